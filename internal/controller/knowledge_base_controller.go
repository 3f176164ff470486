package controller

import (
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IKnowledgeBaseController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
}

type knowledgeBaseController struct {
	service service.IKnowledgeBaseService
}

func NewKnowledgeBaseController(service service.IKnowledgeBaseService) IKnowledgeBaseController {
	return &knowledgeBaseController{service: service}
}

func (c *knowledgeBaseController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge-base/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *knowledgeBaseController) GetAll(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	res, err := c.service.List(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get all knowledge bases", res))
}

func (c *knowledgeBaseController) Create(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	var req dto.CreateKnowledgeBaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create knowledge base", res))
}

func (c *knowledgeBaseController) Show(ctx *fiber.Ctx) error {
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
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Knowledge base not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge base", res))
}

func (c *knowledgeBaseController) Update(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	var req dto.UpdateKnowledgeBaseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = int64(id)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Knowledge base not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update knowledge base", res))
}

func (c *knowledgeBaseController) Delete(ctx *fiber.Ctx) error {
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
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Knowledge base not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete knowledge base", res))
}
