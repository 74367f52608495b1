package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/utils"
)

type EventHandler struct {
	eventService *service.EventService
	validator    *utils.Validator
	log          *zap.Logger
}

func NewEventHandler(eventService *service.EventService, validator *utils.Validator, log *zap.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		validator:    validator,
		log:          log,
	}
}

func (h *EventHandler) ListEvents(c *fiber.Ctx) error {
	events, err := h.eventService.ListEvents(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(events, ""))
}

func (h *EventHandler) GetEvent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	event, err := h.eventService.GetEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(event, ""))
}

func (h *EventHandler) ListMUNEvents(c *fiber.Ctx) error {
	events, err := h.eventService.ListMUNEvents(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(events, ""))
}

func (h *EventHandler) GetMUNEvent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}
	event, err := h.eventService.GetMUNEvent(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(event, ""))
}

func (h *EventHandler) CreateEvent(c *fiber.Ctx) error {
	var req models.CreateEventRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	event, err := h.eventService.CreateEvent(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(event, "Event created successfully"))
}

func (h *EventHandler) CreateMUNEvent(c *fiber.Ctx) error {
	var req models.CreateMUNEventRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	event, err := h.eventService.CreateMUNEvent(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(event, "MUN event created successfully"))
}

// SetRegistrationOpen returns a handler that opens or closes registration
// for the event kind it is mounted under.
func (h *EventHandler) SetRegistrationOpen(kind models.EventKind, open bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, h.log, err)
		}
		rules, err := h.eventService.SetRegistrationOpen(c.UserContext(), eventRef(kind, id), open)
		if err != nil {
			return respondError(c, h.log, err)
		}
		message := "Registration closed"
		if open {
			message = "Registration opened"
		}
		return c.JSON(models.SuccessResponse(rules, message))
	}
}

func (h *EventHandler) UpdateFee(kind models.EventKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "id")
		if err != nil {
			return respondError(c, h.log, err)
		}
		var req models.UpdateFeeRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, h.log, err)
		}
		if err := h.validator.Struct(req); err != nil {
			return respondError(c, h.log, err)
		}

		rules, err := h.eventService.UpdateFee(c.UserContext(), eventRef(kind, id), req.Fee)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(models.SuccessResponse(rules, "Fee updated"))
	}
}

func eventRef(kind models.EventKind, id uint) models.EventRef {
	if kind == models.EventKindMUN {
		return models.MUNEventRef(id)
	}
	return models.StandardEvent(id)
}
