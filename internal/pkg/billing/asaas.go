package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trocalar/TrocaLar/internal/pkg/env"
)

const defaultAsaasAPIBaseURL = "https://api.asaas.com/v3"

// AsaasClient is the production Gateway implementation. It talks to the Asaas
// REST API with the account API key; all state lives on the struct, never in
// package globals.
type AsaasClient struct {
	APIKey     string
	APIBaseURL string

	HTTPClient *http.Client
}

var _ Gateway = (*AsaasClient)(nil)

// NewAsaasClientFromEnv builds a client from ASAAS_API_KEY and
// ASAAS_API_BASE_URL (sandbox runs point the latter at the sandbox host).
func NewAsaasClientFromEnv() *AsaasClient {
	return &AsaasClient{
		APIKey:     strings.TrimSpace(env.GetEnv("ASAAS_API_KEY", "")),
		APIBaseURL: strings.TrimRight(env.GetEnv("ASAAS_API_BASE_URL", defaultAsaasAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type asaasCustomer struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Email             string `json:"email"`
	ExternalReference string `json:"externalReference"`
}

type asaasSubscription struct {
	ID string `json:"id"`
}

type asaasPayment struct {
	ID         string `json:"id"`
	InvoiceURL string `json:"invoiceUrl"`
}

type asaasList[T any] struct {
	Data []T `json:"data"`
}

// EnsureCustomer finds or creates the Asaas customer for a local user. The
// external reference carries our user id so lookups survive email changes.
func (c *AsaasClient) EnsureCustomer(ctx context.Context, name, email, externalRef string) (string, error) {
	if strings.TrimSpace(externalRef) == "" {
		return "", errors.New("external reference is required")
	}

	q := url.Values{}
	q.Set("externalReference", externalRef)
	var found asaasList[asaasCustomer]
	if err := c.doJSON(ctx, http.MethodGet, "/customers?"+q.Encode(), nil, &found); err != nil {
		return "", err
	}
	if len(found.Data) > 0 {
		return found.Data[0].ID, nil
	}

	var created asaasCustomer
	err := c.doJSON(ctx, http.MethodPost, "/customers", map[string]string{
		"name":              name,
		"email":             email,
		"externalReference": externalRef,
	}, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("asaas customer creation returned empty id")
	}
	return created.ID, nil
}

// CreateCheckout creates a recurring subscription and returns the invoice URL
// of its first charge. The caller redirects the user there; everything after
// that arrives via webhook.
func (c *AsaasClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("ASAAS_API_KEY is not configured")
	}
	if strings.TrimSpace(req.CustomerRef) == "" {
		return nil, errors.New("customer reference is required")
	}
	if req.Amount <= 0 {
		return nil, errors.New("checkout amount must be positive")
	}

	cycle := "MONTHLY"
	if req.Cycle == CycleYearly {
		cycle = "YEARLY"
	}

	var sub asaasSubscription
	err := c.doJSON(ctx, http.MethodPost, "/subscriptions", map[string]interface{}{
		"customer":          req.CustomerRef,
		"billingType":       "UNDEFINED",
		"value":             req.Amount,
		"nextDueDate":       time.Now().Format(gatewayDateLayout),
		"cycle":             cycle,
		"description":       req.Description,
		"externalReference": fmt.Sprintf("user:%d plan:%s", req.UserID, req.PlanID),
	}, &sub)
	if err != nil {
		return nil, err
	}
	if sub.ID == "" {
		return nil, errors.New("asaas subscription creation returned empty id")
	}

	var payments asaasList[asaasPayment]
	if err := c.doJSON(ctx, http.MethodGet, "/subscriptions/"+url.PathEscape(sub.ID)+"/payments", nil, &payments); err != nil {
		return nil, err
	}
	if len(payments.Data) == 0 || payments.Data[0].InvoiceURL == "" {
		return nil, errors.New("asaas subscription has no payable invoice yet")
	}

	return &Checkout{
		PaymentID:      payments.Data[0].ID,
		SubscriptionID: sub.ID,
		RedirectURL:    payments.Data[0].InvoiceURL,
	}, nil
}

// CancelSubscription deletes the subscription at the gateway so no further
// charges are issued. Already-deleted subscriptions are treated as success.
func (c *AsaasClient) CancelSubscription(ctx context.Context, externalID string) error {
	if strings.TrimSpace(externalID) == "" {
		return errors.New("subscription id is required")
	}
	err := c.doJSON(ctx, http.MethodDelete, "/subscriptions/"+url.PathEscape(externalID), nil, nil)
	var apiErr *asaasAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}
	return err
}

type asaasAPIError struct {
	StatusCode int
	Body       string
}

func (e *asaasAPIError) Error() string {
	return fmt.Sprintf("asaas request failed: status=%d body=%s", e.StatusCode, e.Body)
}

func (c *AsaasClient) doJSON(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("access_token", c.APIKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &asaasAPIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
