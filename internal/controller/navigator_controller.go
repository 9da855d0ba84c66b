package controller

import (
	"bufio"
	"context"

	"ehr-navigator-be/internal/dto"
	"ehr-navigator-be/internal/pkg/logger"
	"ehr-navigator-be/internal/pkg/serverutils"
	"ehr-navigator-be/internal/service"
	"ehr-navigator-be/pkg/navigator"

	"github.com/gofiber/fiber/v2"
)

type INavigatorController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Navigate(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type navigatorController struct {
	service service.INavigatorService
	logger  logger.ILogger
}

func NewNavigatorController(service service.INavigatorService, log logger.ILogger) INavigatorController {
	return &navigatorController{service: service, logger: log}
}

func (c *navigatorController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Get("/health", c.Health)

	h := r.Group("/ehr")
	h.Use(auth)
	h.Post("/navigate", c.Navigate)
	h.Post("/navigate/stream", c.Stream)
}

func (c *navigatorController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("OK", fiber.Map{"status": "ok"}))
}

func (c *navigatorController) Navigate(ctx *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Navigate(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success navigate patient record", res))
}

// Stream writes one JSON object per line as each stage finishes. The run is
// cancelled as soon as a write to the client fails.
func (c *navigatorController) Stream(ctx *fiber.Ctx) error {
	var req dto.NavigateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "application/x-ndjson")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	// The fiber context is recycled once the handler returns, so the run
	// gets its own.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx.UserContext()))
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		if err := navigator.WriteNDJSON(w, c.service.Stream(runCtx, &req), w.Flush); err != nil {
			c.logger.Warn("NavigatorController", "Stream closed early", map[string]interface{}{
				"patient_id": req.PatientID,
				"error":      err.Error(),
			})
		}
	})

	return nil
}
