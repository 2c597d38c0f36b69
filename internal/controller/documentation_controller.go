package controller

import (
	"doc-agent-be/internal/dto"
	"doc-agent-be/internal/pkg/serverutils"
	"doc-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentationController interface {
	RegisterRoutes(r fiber.Router)
	Process(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type documentationController struct {
	service service.IDocumentService
}

func NewDocumentationController(service service.IDocumentService) IDocumentationController {
	return &documentationController{service: service}
}

func (c *documentationController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/api/v1/documentation")
	h.Post("", c.Process)
	h.Get(":id/status", c.Status)
}

func (c *documentationController) Process(ctx *fiber.Ctx) error {
	var req dto.ProcessDocumentationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.StartProcessing(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Documentation processing started", res))
}

func (c *documentationController) Status(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid chat session id")
	}

	res, err := c.service.Status(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get processing status", res))
}
