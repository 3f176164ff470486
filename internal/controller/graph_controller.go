package controller

import (
	"rag-knowledge-be/internal/pkg/serverutils"
	"rag-knowledge-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGraphController interface {
	RegisterRoutes(r fiber.Router)
	GetGraph(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
}

type graphController struct {
	service service.IGraphService
}

func NewGraphController(service service.IGraphService) IGraphController {
	return &graphController{service: service}
}

func (c *graphController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/graph/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":kbId", c.GetGraph)
	h.Get(":kbId/stats", c.GetStats)
}

func (c *graphController) GetGraph(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	kbId, err := ctx.ParamsInt("kbId")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid kbId"))
	}
	limit := ctx.QueryInt("limit", 100)

	res, err := c.service.GetGraph(ctx.Context(), userId, int64(kbId), limit)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get knowledge graph", res))
}

func (c *graphController) GetStats(ctx *fiber.Ctx) error {
	userId, _ := serverutils.UserIdFromCtx(ctx)
	kbId, err := ctx.ParamsInt("kbId")
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid kbId"))
	}

	res, err := c.service.GetStats(ctx.Context(), userId, int64(kbId))
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get graph stats", res))
}
