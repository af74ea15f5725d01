package handlers

import (
	"context"

	"filmdom/internal/app"
	"filmdom/internal/jobs"
	"filmdom/internal/repositories"
	"filmdom/internal/services"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Handler
	scheduler *services.SchedulerService
	runLock   *services.RunLockService
	runRepo   repositories.IngestionRunRepository
}

func NewAdminHandler(app *app.App, router fiber.Router) *AdminHandler {
	log := logger.New("handlers").File("admin_handler")
	return &AdminHandler{
		scheduler: app.Services.Scheduler,
		runLock:   app.Services.RunLock,
		runRepo:   app.Repos.IngestionRun,
		Handler: Handler{
			log:    log,
			router: router,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin")

	admin.Post("/ingest", h.triggerIngest)
	admin.Get("/ingest/runs", h.listRuns)
}

// triggerIngest kicks off an ad-hoc ingestion run outside the daily
// schedule. A run already holding the lock yields a conflict instead of a
// second concurrent run.
func (h *AdminHandler) triggerIngest(c *fiber.Ctx) error {
	log := h.log.Function("triggerIngest")

	held, err := h.runLock.IsHeld(c.Context())
	if err != nil {
		log.Er("failed to check run lock", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check ingestion state",
		})
	}
	if held {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An ingestion run is already in progress",
		})
	}

	// The job outlives this request, so it gets its own context.
	if err := h.scheduler.TriggerJobByName(context.Background(), jobs.CatalogIngestJobName); err != nil {
		log.Er("failed to trigger ingestion", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to trigger ingestion",
		})
	}

	log.Info("Manual ingestion triggered")
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "triggered",
		"job":    jobs.CatalogIngestJobName,
	})
}

func (h *AdminHandler) listRuns(c *fiber.Ctx) error {
	log := h.log.Function("listRuns")

	runs, err := h.runRepo.GetRecent(c.Context(), 20)
	if err != nil {
		log.Er("failed to list ingestion runs", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list ingestion runs",
		})
	}

	return c.JSON(fiber.Map{
		"runs": runs,
	})
}
