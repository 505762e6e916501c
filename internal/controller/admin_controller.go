// FILE: internal/controller/admin_controller.go
package controller

import (
	"strconv"

	"deep-research-be/internal/pkg/logger"
	"deep-research-be/internal/pkg/serverutils"
	"deep-research-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetRecentReports(ctx *fiber.Ctx) error
	GetReportBySession(ctx *fiber.Ctx) error
}

type adminController struct {
	logger      logger.ILogger
	archiveRepo contract.ReportArchiveRepository
}

func NewAdminController(sysLogger logger.ILogger, archiveRepo contract.ReportArchiveRepository) IAdminController {
	return &adminController{
		logger:      sysLogger,
		archiveRepo: archiveRepo,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("/logs", c.GetLogs)
	h.Get("/reports", c.GetRecentReports)
	h.Get("/reports/:session_id", c.GetReportBySession)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))
	level := ctx.Query("level", "")

	logs, err := c.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetRecentReports(ctx *fiber.Ctx) error {
	if c.archiveRepo == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "report archive is not configured")
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "10"))

	reports, err := c.archiveRepo.FindRecent(ctx.Context(), limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Recent reports", reports))
}

// GetReportBySession looks one archived report up by the research
// session that produced it.
func (c *adminController) GetReportBySession(ctx *fiber.Ctx) error {
	if c.archiveRepo == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "report archive is not configured")
	}

	report, err := c.archiveRepo.FindBySessionId(ctx.Context(), ctx.Params("session_id"))
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	if report == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Report not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Report", report))
}
