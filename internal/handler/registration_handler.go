package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/utils"
)

type RegistrationHandler struct {
	registrationService *service.RegistrationService
	validator           *utils.Validator
	log                 *zap.Logger
}

func NewRegistrationHandler(registrationService *service.RegistrationService, validator *utils.Validator, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		registrationService: registrationService,
		validator:           validator,
		log:                 log,
	}
}

func (h *RegistrationHandler) RegisterSolo(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	eventID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.RegisterSoloRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	reg, err := h.registrationService.RegisterSolo(c.UserContext(), models.StandardEvent(eventID), userID, req.Phone, models.Applicant{})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(reg, "Registered successfully"))
}

func (h *RegistrationHandler) RegisterMUN(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	eventID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.RegisterMUNRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	reg, err := h.registrationService.RegisterSolo(c.UserContext(), models.MUNEventRef(eventID), userID, req.Phone, req.Applicant())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(reg, "Registered successfully"))
}

func (h *RegistrationHandler) MyRegistrations(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	regs, err := h.registrationService.ListForUser(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(regs, ""))
}
