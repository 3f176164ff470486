package controller

import (
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	ConsistencyCheck(ctx *fiber.Ctx) error
	ConsistencyReport(ctx *fiber.Ctx) error
	AutoFix(ctx *fiber.Ctx) error
	StorageStats(ctx *fiber.Ctx) error
	CleanupOrphaned(ctx *fiber.Ctx) error
	DeleteKBStorage(ctx *fiber.Ctx) error
}

type adminController struct {
	admin       service.IAdminService
	consistency service.IConsistencyService
}

func NewAdminController(admin service.IAdminService, consistency service.IConsistencyService) IAdminController {
	return &adminController{admin: admin, consistency: consistency}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.SuperuserMiddleware)
	h.Get("/consistency-check", c.ConsistencyCheck)
	h.Get("/consistency-report", c.ConsistencyReport)
	h.Post("/consistency-fix", c.AutoFix)
	h.Get("/storage-stats", c.StorageStats)
	h.Post("/cleanup-orphaned-storage", c.CleanupOrphaned)
	h.Delete("/kb-storage/:kbId", c.DeleteKBStorage)
}

func (c *adminController) ConsistencyCheck(ctx *fiber.Ctx) error {
	result := c.consistency.CheckConsistency(ctx.Context())

	issues := make([]dto.ConsistencyIssueResponse, 0, len(result.Issues))
	for _, issue := range result.Issues {
		issues = append(issues, dto.ConsistencyIssueResponse{
			Type:            issue.Type,
			Severity:        issue.Severity,
			Description:     issue.Description,
			KbId:            issue.KbID,
			SuggestedAction: issue.SuggestedAction,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("Success run consistency check", dto.ConsistencyCheckResponse{
		Status:          result.OverallStatus,
		CheckedAt:       result.Timestamp,
		Issues:          issues,
		Statistics:      result.Statistics,
		Recommendations: result.Recommendations,
	}))
}

// ConsistencyReport returns the human readable report as plain text, not
// wrapped in the JSON envelope.
func (c *adminController) ConsistencyReport(ctx *fiber.Ctx) error {
	report := c.consistency.DetailedReport(ctx.Context())
	ctx.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return ctx.SendString(report)
}

func (c *adminController) AutoFix(ctx *fiber.Ctx) error {
	var req dto.ConsistencyFixRequest
	if err := ctx.BodyParser(&req); err != nil {
		// Empty body means a live fix.
		req.DryRun = false
	}
	if ctx.Query("dry_run") == "true" {
		req.DryRun = true
	}

	result := c.consistency.AutoFix(ctx.Context(), req.DryRun)
	return ctx.JSON(serverutils.SuccessResponse("Success run auto fix", dto.ConsistencyFixResponse{
		Fixed:   result.IssuesFixed,
		Skipped: result.IssuesFound - result.IssuesFixed,
		DryRun:  result.DryRun,
		Details: result.ActionsTaken,
	}))
}

func (c *adminController) StorageStats(ctx *fiber.Ctx) error {
	var kbID *int64
	if raw := ctx.QueryInt("kb_id", 0); raw != 0 {
		v := int64(raw)
		kbID = &v
	}

	res, err := c.admin.StorageStats(ctx.Context(), kbID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get storage stats", res))
}

func (c *adminController) CleanupOrphaned(ctx *fiber.Ctx) error {
	res, err := c.admin.CleanupOrphaned(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success cleanup orphaned storage", res))
}

func (c *adminController) DeleteKBStorage(ctx *fiber.Ctx) error {
	kbId, err := ctx.ParamsInt("kbId")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid kbId"))
	}

	if err := c.admin.DeleteKBStorage(ctx.Context(), int64(kbId)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge base storage", fiber.Map{"kb_id": kbId}))
}
