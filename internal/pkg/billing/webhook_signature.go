package billing

import (
	"crypto/subtle"
	"strings"

	"github.com/trocalar/TrocaLar/internal/pkg/env"
)

// WebhookTokenFromEnv returns the shared token Asaas is configured to send in
// the asaas-access-token header. Empty means verification is disabled, which
// is only acceptable in local development.
func WebhookTokenFromEnv() string {
	return strings.TrimSpace(env.GetEnv("ASAAS_WEBHOOK_TOKEN", ""))
}

// VerifyWebhookToken compares the received header value against the expected
// token in constant time. With no expected token configured every delivery
// passes.
func VerifyWebhookToken(received, expected string) bool {
	if expected == "" {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(received), []byte(expected)) == 1
}
