package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/database"
	"github.com/trocalar/TrocaLar/internal/pkg/jobqueue"
	"github.com/trocalar/TrocaLar/internal/pkg/statistics"
)

const adminPageSize = 50

func adminPage(c *fiber.Ctx) int {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	return page
}

// HandleAdminDashboard returns the headline numbers and 30-day trend lines.
func HandleAdminDashboard(c *fiber.Ctx) error {
	factory := repository.GetGlobalFactory()

	userCount, err := factory.GetUserRepository().Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar o painel")
	}
	listingCount, err := factory.GetPropertyRepository().Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar o painel")
	}
	paymentCount, err := factory.GetPaymentRepository().Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar o painel")
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)

	userDaily, err := factory.GetUserRepository().GetDailyStats(start, end)
	if err != nil {
		log.Errorf("Failed to load user daily stats: %v", err)
	}
	listingDaily, err := factory.GetPropertyRepository().GetDailyStats(start, end)
	if err != nil {
		log.Errorf("Failed to load listing daily stats: %v", err)
	}
	proposalDaily, err := factory.GetProposalRepository().GetDailyStats(start, end)
	if err != nil {
		log.Errorf("Failed to load proposal daily stats: %v", err)
	}
	revenue, err := factory.GetPaymentRepository().SumPaidAmount(start, end)
	if err != nil {
		log.Errorf("Failed to sum paid amount: %v", err)
	}

	return c.JSON(fiber.Map{
		"totals": fiber.Map{
			"users":          userCount,
			"listings":       listingCount,
			"payments":       paymentCount,
			"swaps":          statistics.GetTotalSwaps(),
			"revenue_30d":    revenue,
			"today_listings": statistics.GetTodayListings(),
		},
		"daily": fiber.Map{
			"users":     userDaily,
			"listings":  listingDaily,
			"proposals": proposalDaily,
		},
	})
}

// HandleAdminUsers lists users with their listing and proposal counts.
func HandleAdminUsers(c *fiber.Ctx) error {
	page := adminPage(c)
	userRepo := repository.GetGlobalFactory().GetUserRepository()

	if query := c.Query("q"); query != "" {
		users, err := userRepo.Search(query)
		if err != nil {
			return jsonError(c, fiber.StatusInternalServerError, "Erro na busca de usuários")
		}
		return c.JSON(fiber.Map{"users": users})
	}

	users, err := userRepo.GetWithStats((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os usuários")
	}

	total, err := userRepo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os usuários")
	}

	out := make([]fiber.Map, 0, len(users))
	for _, u := range users {
		out = append(out, fiber.Map{
			"id":         u.User.ID,
			"name":       u.User.Name,
			"email":      u.User.Email,
			"status":     u.User.Status,
			"role":       u.User.Role,
			"created_at": u.User.CreatedAt,
			"listings":   u.ListingCount,
			"proposals":  u.ProposalCount,
		})
	}

	return c.JSON(fiber.Map{
		"page":  page,
		"total": total,
		"users": out,
	})
}

type adminUserStatusRequest struct {
	Status string `json:"status"`
}

// HandleAdminSetUserStatus activates or disables an account.
func HandleAdminSetUserStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Identificador inválido")
	}

	var req adminUserStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}
	if req.Status != models.STATUS_ACTIVE && req.Status != models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusBadRequest, "Status desconhecido")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Usuário não encontrado")
	}
	if user.IsAdmin() && req.Status == models.STATUS_DISABLED {
		return jsonError(c, fiber.StatusForbidden, "Contas de administrador não podem ser desativadas")
	}

	user.Status = req.Status
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao salvar o usuário")
	}

	return c.JSON(fiber.Map{"message": "Status atualizado"})
}

// HandleAdminListings lists all listings regardless of status.
func HandleAdminListings(c *fiber.Ctx) error {
	page := adminPage(c)
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()

	properties, err := propertyRepo.List((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os anúncios")
	}
	total, err := propertyRepo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os anúncios")
	}

	out := make([]fiber.Map, 0, len(properties))
	for i := range properties {
		out = append(out, propertyJSON(&properties[i], true))
	}

	return c.JSON(fiber.Map{
		"page":       page,
		"total":      total,
		"properties": out,
	})
}

// HandleAdminRemoveListing force-removes a listing.
func HandleAdminRemoveListing(c *fiber.Ctx) error {
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	property, err := propertyRepo.GetByUUID(c.Params("uuid"))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "Anúncio não encontrado")
	}

	images, err := propertyRepo.GetImages(property.ID)
	if err != nil {
		log.Errorf("Failed to list images of property %d: %v", property.ID, err)
	}

	property.Status = models.PropertyStatusRemoved
	if err := propertyRepo.Update(property); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao remover o anúncio")
	}
	if err := propertyRepo.Delete(property.ID); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao remover o anúncio")
	}

	queue := jobqueue.GetManager().GetQueue()
	for _, img := range images {
		if _, err := queue.EnqueuePhotoDeleteJob(img.ID, img.UUID); err != nil {
			log.Errorf("Failed to enqueue photo delete for %s: %v", img.UUID, err)
		}
	}

	return c.JSON(fiber.Map{"message": "Anúncio removido"})
}

// HandleAdminPayments lists the most recent gateway payments.
func HandleAdminPayments(c *fiber.Ctx) error {
	page := adminPage(c)
	paymentRepo := repository.GetGlobalFactory().GetPaymentRepository()

	payments, err := paymentRepo.ListRecent((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os pagamentos")
	}
	total, err := paymentRepo.Count()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar os pagamentos")
	}

	return c.JSON(fiber.Map{
		"page":     page,
		"total":    total,
		"payments": payments,
	})
}

// HandleAdminGetSettings returns the current application settings.
func HandleAdminGetSettings(c *fiber.Ctx) error {
	return c.JSON(models.GetAppSettings())
}

// HandleAdminSaveSettings persists and applies new application settings.
func HandleAdminSaveSettings(c *fiber.Ctx) error {
	var settings models.AppSettings
	if err := c.BodyParser(&settings); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Dados inválidos")
	}

	if err := models.SaveSettings(database.GetDB(), &settings); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "Configurações inválidas: "+err.Error())
	}

	return c.JSON(fiber.Map{"message": "Configurações salvas"})
}

// HandleAdminQueueStats exposes the job queue counters.
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()

	ctx := c.Context()
	stats, err := queue.GetJobStats(ctx)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as estatísticas da fila")
	}
	pending, err := queue.GetQueueSize(ctx)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as estatísticas da fila")
	}
	processing, err := queue.GetProcessingSize(ctx)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar as estatísticas da fila")
	}

	return c.JSON(fiber.Map{
		"running":    jobqueue.GetManager().IsRunning(),
		"pending":    pending,
		"processing": processing,
		"stats":      stats,
	})
}
