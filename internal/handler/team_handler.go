package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/qrcode"
	"github.com/sefazor/festival-backend/pkg/utils"
)

type TeamHandler struct {
	teamService *service.TeamService
	validator   *utils.Validator
	log         *zap.Logger
}

func NewTeamHandler(teamService *service.TeamService, validator *utils.Validator, log *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		validator:   validator,
		log:         log,
	}
}

func (h *TeamHandler) CreateTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	eventID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.CreateTeamRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	created, err := h.teamService.CreateTeam(c.UserContext(), eventID, userID, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(created, "Team created successfully"))
}

func (h *TeamHandler) JoinTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.JoinTeamRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}

	member, err := h.teamService.JoinTeam(c.UserContext(), userID, req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.SuccessResponse(member, "Joined team successfully"))
}

func (h *TeamHandler) GetTeam(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	details, err := h.teamService.GetTeam(c.UserContext(), teamID, userID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(details, ""))
}

// JoinQR serves the team's join link as a PNG. ?size= sets the edge in
// pixels.
func (h *TeamHandler) JoinQR(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	teamID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	size := c.QueryInt("size", qrcode.DefaultSize)
	if size < 64 || size > 1024 {
		size = qrcode.DefaultSize
	}

	png, err := h.teamService.JoinQR(c.UserContext(), teamID, userID, size)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}
