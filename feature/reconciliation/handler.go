package reconciliation

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"vault-inventory/core/logger"
	"vault-inventory/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Runner is the part of the scheduler the handler drives.
type Runner interface {
	Passes() []string
	RunPass(ctx context.Context, name string) (reconcile.Report, error)
	RunAll(ctx context.Context) []reconcile.Report
	LastReports() []reconcile.Report
}

// Handler handles HTTP requests for reconciliation.
type Handler struct {
	runner   Runner
	archiver *Archiver
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. archiver may be nil.
func NewHandler(runner Runner, archiver *Archiver, logger *zap.Logger) *Handler {
	return &Handler{runner: runner, archiver: archiver, logger: logger}
}

// RegisterRoutes registers the reconciliation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconciliation")
	group.Get("/passes", h.HandlePasses)
	group.Post("/passes/:name/run", h.HandleRunPass)
	group.Post("/run", h.HandleRunAll)
	group.Get("/reports", h.HandleLastReports)
	group.Get("/archive", h.HandleArchive)
	group.Get("/archive/*", h.HandleArchivedReport)
}

// HandlePasses lists the registered passes.
// @Summary List Passes
// @Tags reconciliation
// @Produce json
// @Success 200 {array} string "Pass names"
// @Router /reconciliation/passes [get]
func (h *Handler) HandlePasses(c *fiber.Ctx) error {
	return c.JSON(h.runner.Passes())
}

// HandleRunPass runs one pass immediately.
// @Summary Run Pass
// @Description Runs expire, release, low-stock or resync now. Returns 409 while the pass runs elsewhere.
// @Tags reconciliation
// @Produce json
// @Param name path string true "Pass name"
// @Success 200 {object} reconcile.Report "Report"
// @Failure 404 {object} map[string]string "Unknown pass"
// @Failure 409 {object} map[string]string "Pass busy"
// @Router /reconciliation/passes/{name}/run [post]
func (h *Handler) HandleRunPass(c *fiber.Ctx) error {
	name := c.Params("name")
	l := logger.WithRayID(h.logger, c)
	l.Info("Triggering reconciliation pass", zap.String("pass", name))

	report, err := h.runner.RunPass(c.UserContext(), name)
	switch {
	case errors.Is(err, reconcile.ErrUnknownPass):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, reconcile.ErrPassBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		l.Error("Reconciliation pass failed", zap.String("pass", name), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(report)
	}
	return c.JSON(report)
}

// HandleRunAll runs every pass; one failing pass does not stop the others.
// @Summary Run All Passes
// @Tags reconciliation
// @Produce json
// @Success 200 {array} reconcile.Report "Reports"
// @Router /reconciliation/run [post]
func (h *Handler) HandleRunAll(c *fiber.Ctx) error {
	logger.WithRayID(h.logger, c).Info("Triggering all reconciliation passes")
	return c.JSON(h.runner.RunAll(c.UserContext()))
}

// HandleLastReports returns the most recent report of each pass.
// @Summary Last Reports
// @Tags reconciliation
// @Produce json
// @Success 200 {array} reconcile.Report "Reports"
// @Router /reconciliation/reports [get]
func (h *Handler) HandleLastReports(c *fiber.Ctx) error {
	return c.JSON(h.runner.LastReports())
}

// HandleArchive lists archived reports.
// @Summary Archived Reports
// @Tags reconciliation
// @Produce json
// @Param pass query string false "Pass name"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} ArchivedReport "Archived reports"
// @Failure 503 {object} map[string]string "Archive disabled"
// @Router /reconciliation/archive [get]
func (h *Handler) HandleArchive(c *fiber.Ctx) error {
	if h.archiver == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "report archive is disabled"})
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	reports, err := h.archiver.List(c.UserContext(), c.Query("pass"), limit)
	if err != nil {
		logger.WithRayID(h.logger, c).Error("Failed to list archived reports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if reports == nil {
		reports = []ArchivedReport{}
	}
	return c.JSON(reports)
}

// HandleArchivedReport returns one archived report.
// @Summary Archived Report
// @Tags reconciliation
// @Produce json
// @Param key path string true "Object key"
// @Success 200 {object} reconcile.Report "Report"
// @Router /reconciliation/archive/{key} [get]
func (h *Handler) HandleArchivedReport(c *fiber.Ctx) error {
	if h.archiver == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "report archive is disabled"})
	}
	key, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	report, err := h.archiver.Get(c.UserContext(), key)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(report)
}
