package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/mail"
	"github.com/trocalar/TrocaLar/internal/pkg/usercontext"
)

const proposalPageSize = 20

type createProposalRequest struct {
	FromPropertyUUID string `json:"from_property_uuid"`
	ToPropertyUUID   string `json:"to_property_uuid"`
	Message          string `json:"message"`
}

func proposalJSON(p *models.SwapProposal) fiber.Map {
	return fiber.Map{
		"id":               p.ID,
		"status":           p.Status,
		"message":          p.Message,
		"response_message": p.ResponseMessage,
		"responded_at":     p.RespondedAt,
		"created_at":       p.CreatedAt,
		"from_property": fiber.Map{
			"uuid":  p.FromProperty.UUID,
			"title": p.FromProperty.Title,
			"city":  p.FromProperty.City,
			"uf":    p.FromProperty.UF,
		},
		"to_property": fiber.Map{
			"uuid":  p.ToProperty.UUID,
			"title": p.ToProperty.Title,
			"city":  p.ToProperty.City,
			"uf":    p.ToProperty.UF,
		},
	}
}

// HandleCreateProposal sends a swap proposal from one of the user's listings
// to another user's published listing.
func HandleCreateProposal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req createProposalRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados da proposta inválidos")
	}

	factory := repository.GetGlobalFactory()
	propertyRepo := factory.GetPropertyRepository()

	fromProperty, err := propertyRepo.GetByUUID(req.FromPropertyUUID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Seu imóvel não foi encontrado")
	}
	if fromProperty.UserID != userCtx.UserID {
		return jsonError(c, fiber.StatusForbidden, "O imóvel ofertado não pertence a você")
	}
	if !fromProperty.IsVisible() {
		return jsonError(c, fiber.StatusBadRequest, "Publique seu imóvel antes de enviar propostas")
	}

	toProperty, err := propertyRepo.GetByUUID(req.ToPropertyUUID)
	if err != nil || !toProperty.IsVisible() {
		return jsonError(c, fiber.StatusNotFound, "O imóvel desejado não foi encontrado")
	}
	if toProperty.UserID == userCtx.UserID {
		return jsonError(c, fiber.StatusBadRequest, "Você não pode enviar uma proposta para o próprio imóvel")
	}

	proposalRepo := factory.GetProposalRepository()
	if existing, err := proposalRepo.GetOpenBetween(fromProperty.ID, toProperty.ID); err == nil && existing != nil {
		return jsonError(c, fiber.StatusConflict, "Já existe uma proposta em aberto entre estes imóveis")
	}

	proposal := &models.SwapProposal{
		FromUserID:     userCtx.UserID,
		ToUserID:       toProperty.UserID,
		FromPropertyID: fromProperty.ID,
		ToPropertyID:   toProperty.ID,
		Message:        req.Message,
		Status:         models.ProposalStatusPending,
	}
	if err := proposalRepo.Create(proposal); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao enviar a proposta")
	}
	proposal.FromProperty = *fromProperty
	proposal.ToProperty = *toProperty

	notifyProposalReceived(toProperty.UserID, userCtx.Username, toProperty.Title)

	return c.Status(fiber.StatusCreated).JSON(proposalJSON(proposal))
}

// notifyProposalReceived mails the listing owner if they opted in.
func notifyProposalReceived(ownerID uint, proposerName, listingTitle string) {
	db := database.GetDB()

	settings, err := models.GetOrCreateUserSettings(db, ownerID)
	if err != nil || !settings.NotifyProposals {
		return
	}

	owner, err := repository.GetGlobalFactory().GetUserRepository().GetByID(ownerID)
	if err != nil {
		return
	}

	go func(email, name string) {
		if err := mail.SendProposalReceivedMail(email, name, proposerName, listingTitle); err != nil {
			log.Errorf("Failed to send proposal mail to %s: %v", email, err)
		}
	}(owner.Email, owner.Name)
}

// notifyProposalResponded mails the proposer if they opted in.
func notifyProposalResponded(proposal *models.SwapProposal, accepted bool) {
	db := database.GetDB()

	settings, err := models.GetOrCreateUserSettings(db, proposal.FromUserID)
	if err != nil || !settings.NotifyProposals {
		return
	}

	proposer, err := repository.GetGlobalFactory().GetUserRepository().GetByID(proposal.FromUserID)
	if err != nil {
		return
	}

	title := proposal.ToProperty.Title
	go func(email, name string) {
		if err := mail.SendProposalRespondedMail(email, name, title, accepted); err != nil {
			log.Errorf("Failed to send proposal response mail to %s: %v", email, err)
		}
	}(proposer.Email, proposer.Name)
}

type respondProposalRequest struct {
	Message string `json:"message"`
}

// respondToProposal carries the shared accept/reject path.
func respondToProposal(c *fiber.Ctx, accepted bool) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Identificador de proposta inválido")
	}

	proposalRepo := repository.GetGlobalFactory().GetProposalRepository()
	proposal, err := proposalRepo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Proposta não encontrada")
	}

	if !proposal.CanRespond(userCtx.UserID) {
		if proposal.ToUserID != userCtx.UserID {
			return jsonError(c, fiber.StatusForbidden, "Esta proposta não foi enviada para você")
		}
		return jsonError(c, fiber.StatusConflict, "Esta proposta já foi respondida")
	}

	var req respondProposalRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	now := time.Now()
	proposal.RespondedAt = &now
	proposal.ResponseMessage = req.Message
	if accepted {
		proposal.Status = models.ProposalStatusAccepted
	} else {
		proposal.Status = models.ProposalStatusRejected
	}

	if err := proposalRepo.Update(proposal); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao responder a proposta")
	}

	notifyProposalResponded(proposal, accepted)

	return c.JSON(proposalJSON(proposal))
}

// HandleAcceptProposal accepts a received proposal.
func HandleAcceptProposal(c *fiber.Ctx) error {
	return respondToProposal(c, true)
}

// HandleRejectProposal rejects a received proposal.
func HandleRejectProposal(c *fiber.Ctx) error {
	return respondToProposal(c, false)
}

// HandleWithdrawProposal lets the proposer take back a pending proposal.
func HandleWithdrawProposal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Identificador de proposta inválido")
	}

	proposalRepo := repository.GetGlobalFactory().GetProposalRepository()
	proposal, err := proposalRepo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Proposta não encontrada")
	}

	if proposal.FromUserID != userCtx.UserID {
		return jsonError(c, fiber.StatusForbidden, "Esta proposta não foi enviada por você")
	}
	if !proposal.IsOpen() {
		return jsonError(c, fiber.StatusConflict, "Esta proposta já foi respondida")
	}

	proposal.Status = models.ProposalStatusWithdrawn
	if err := proposalRepo.Update(proposal); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao retirar a proposta")
	}

	return c.JSON(fiber.Map{"message": "Proposta retirada"})
}

// HandleSentProposals lists proposals the user sent.
func HandleSentProposals(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	proposalRepo := repository.GetGlobalFactory().GetProposalRepository()
	proposals, err := proposalRepo.GetSentByUser(userCtx.UserID, (page-1)*proposalPageSize, proposalPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as propostas enviadas")
	}

	out := make([]fiber.Map, 0, len(proposals))
	for i := range proposals {
		out = append(out, proposalJSON(&proposals[i]))
	}

	return c.JSON(fiber.Map{
		"page":      page,
		"proposals": out,
	})
}

// HandleReceivedProposals lists proposals the user received, with the open
// count used for the navigation badge.
func HandleReceivedProposals(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	proposalRepo := repository.GetGlobalFactory().GetProposalRepository()
	proposals, err := proposalRepo.GetReceivedByUser(userCtx.UserID, (page-1)*proposalPageSize, proposalPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as propostas recebidas")
	}

	openCount, err := proposalRepo.CountOpenReceived(userCtx.UserID)
	if err != nil {
		log.Errorf("Failed to count open proposals for user %d: %v", userCtx.UserID, err)
	}

	out := make([]fiber.Map, 0, len(proposals))
	for i := range proposals {
		out = append(out, proposalJSON(&proposals[i]))
	}

	return c.JSON(fiber.Map{
		"page":       page,
		"open_count": openCount,
		"proposals":  out,
	})
}
