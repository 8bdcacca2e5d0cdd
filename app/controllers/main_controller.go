package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/trocalar/TrocaLar/app/models"
	"github.com/trocalar/TrocaLar/app/repository"
	"github.com/trocalar/TrocaLar/internal/pkg/statistics"
)

// HandleHome returns the public home payload: marketplace numbers and the
// latest published listings.
func HandleHome(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()

	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	recent, err := propertyRepo.GetRecentPublished(8)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "Erro ao carregar a página inicial")
	}

	out := make([]fiber.Map, 0, len(recent))
	for i := range recent {
		out = append(out, propertyJSON(&recent[i], true))
	}

	settings := models.GetAppSettings()
	title := "TrocaLar"
	description := ""
	if settings != nil {
		title = settings.SiteTitle
		description = settings.SiteDescription
	}

	return c.JSON(fiber.Map{
		"site": fiber.Map{
			"title":       title,
			"description": description,
		},
		"stats": fiber.Map{
			"total_listings": stats.TotalListings,
			"total_users":    stats.TotalUsers,
			"total_swaps":    stats.TotalSwaps,
			"today_listings": stats.TodayListings,
		},
		"recent": out,
	})
}

// HandleHealth is the liveness probe.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
