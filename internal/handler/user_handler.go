package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/pkg/apperror"
)

// ProfileReader looks up the caller's profile.
type ProfileReader interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
}

type UserHandler struct {
	profiles ProfileReader
	log      *zap.Logger
}

func NewUserHandler(profiles ProfileReader, log *zap.Logger) *UserHandler {
	return &UserHandler{
		profiles: profiles,
		log:      log,
	}
}

// GetMyProfile returns the caller's profile, including their role.
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	profile, err := h.profiles.GetProfile(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.log, apperror.Wrap(apperror.ErrUnauthenticated, err))
	}
	return c.JSON(models.SuccessResponse(profile, ""))
}
