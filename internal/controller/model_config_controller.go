package controller

import (
	"rag-knowledge-be/internal/dto"
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IModelConfigController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
}

type modelConfigController struct {
	service service.IModelConfigService
}

func NewModelConfigController(service service.IModelConfigService) IModelConfigController {
	return &modelConfigController{service: service}
}

func (c *modelConfigController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/model-config/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("", c.GetAll)
	h.Post("", c.Create)
	h.Get(":id", c.Show)
	h.Put(":id", c.Update)
	h.Delete(":id", c.Delete)
}

func (c *modelConfigController) GetAll(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	res, err := c.service.List(ctx.Context(), userId, ctx.Query("model_type"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get model configs", res))
}

func (c *modelConfigController) Create(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)

	var req dto.CreateModelConfigRequest
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
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create model config", res))
}

func (c *modelConfigController) Show(ctx *fiber.Ctx) error {
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
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Model config not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get model config", res))
}

func (c *modelConfigController) Update(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	var req dto.UpdateModelConfigRequest
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
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Model config not found"))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update model config", res))
}

func (c *modelConfigController) Delete(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid id"))
	}

	if err := c.service.Delete(ctx.Context(), userId, int64(id)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete model config", fiber.Map{"id": id}))
}
