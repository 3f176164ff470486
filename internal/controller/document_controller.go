package controller

import (
	"strconv"
	"strings"

	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// supported upload extensions, matching what the parsers can handle
var allowedExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".ppt": true, ".pptx": true,
	".txt": true, ".md": true, ".png": true, ".jpg": true, ".jpeg": true,
}

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	RetryPending(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Progress(ctx *fiber.Ctx) error
	Retry(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
	worker  service.IWorkerService
}

func NewDocumentController(svc service.IDocumentService, worker service.IWorkerService) IDocumentController {
	return &documentController{service: svc, worker: worker}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("/upload", c.Upload)
	h.Post("/retry-pending", serverutils.SuperuserMiddleware, c.RetryPending)
	h.Get(":id", c.Show)
	h.Get(":id/progress", c.Progress)
	h.Post(":id/retry", c.Retry)
	h.Delete(":id", c.Delete)
}

// RetryPending re-enqueues every document stuck in PENDING. Recovery tool
// for tasks lost to a restart, superuser only.
func (c *documentController) RetryPending(ctx *fiber.Ctx) error {
	count, err := c.worker.RetryPending(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success reschedule pending documents", fiber.Map{"rescheduled": count}))
}

func (c *documentController) Upload(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	file, err := ctx.FormFile("file")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Missing file"))
	}

	ext := ""
	if idx := strings.LastIndex(file.Filename, "."); idx >= 0 {
		ext = strings.ToLower(file.Filename[idx:])
	}
	if !allowedExtensions[ext] {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Unsupported file type: "+ext))
	}

	kbId, err := strconv.ParseInt(ctx.FormValue("knowledge_base_id"), 10, 64)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid knowledge_base_id"))
	}

	req := dto.UploadDocumentRequest{
		KnowledgeBaseId:  kbId,
		LlmModelId:       optionalFormInt64(ctx, "llm_model_id"),
		VlmModelId:       optionalFormInt64(ctx, "vlm_model_id"),
		EmbeddingModelId: optionalFormInt64(ctx, "embedding_model_id"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upload(ctx.Context(), userId, &req, file)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success upload document", res))
}

func optionalFormInt64(ctx *fiber.Ctx, key string) *int64 {
	raw := ctx.FormValue(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (c *documentController) GetAll(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	req := dto.ListDocumentsRequest{
		KnowledgeBaseId: int64(ctx.QueryInt("knowledge_base_id")),
		Status:          ctx.Query("status"),
		Page:            ctx.QueryInt("page", 1),
		PageSize:        ctx.QueryInt("page_size", 50),
	}

	res, err := c.service.List(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	res, err := c.service.Show(ctx.Context(), userId, int64(id))
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Document not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}

func (c *documentController) Progress(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	res, err := c.service.Progress(ctx.Context(), userId, int64(id))
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Document not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get progress", res))
}

func (c *documentController) Retry(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	res, err := c.service.Retry(ctx.Context(), userId, int64(id))
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Document not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success schedule retry", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	res, err := c.service.Delete(ctx.Context(), userId, int64(id))
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Document not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete document", res))
}
