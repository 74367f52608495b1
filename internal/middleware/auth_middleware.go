package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/handler"
	"github.com/sefazor/festival-backend/internal/models"
	jwtPkg "github.com/sefazor/festival-backend/pkg/jwt"
)

// ProfileSyncer records the authenticated caller's profile.
type ProfileSyncer interface {
	EnsureProfile(ctx context.Context, user models.CurrentUser) (*models.Profile, error)
}

// AdminChecker reports whether a user holds the admin role.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AuthMiddleware validates the bearer token, stores the caller in
// c.Locals and makes sure a profile row exists for them.
func AuthMiddleware(tokens *jwtPkg.Manager, profiles ProfileSyncer, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthenticated(c, "Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthenticated(c, "Invalid authorization header format")
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			log.Debug("token rejected", zap.Error(err))
			return unauthenticated(c, "Invalid token")
		}

		user := models.CurrentUser{ID: claims.Subject, Email: claims.Email, FullName: claims.Name}
		if _, err := profiles.EnsureProfile(c.UserContext(), user); err != nil {
			log.Error("failed to sync profile", zap.String("user_id", user.ID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(models.CodedErrorResponse("internal server error", "internal", ""))
		}

		c.Locals(handler.LocalUserID, user.ID)
		return c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin(admins AdminChecker, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals(handler.LocalUserID).(string)
		if userID == "" {
			return unauthenticated(c, "User not authenticated")
		}

		ok, err := admins.IsAdmin(c.UserContext(), userID)
		if err != nil {
			log.Error("failed to check admin role", zap.String("user_id", userID), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(models.CodedErrorResponse("internal server error", "internal", ""))
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(models.CodedErrorResponse("admin access required", "unauthorized", ""))
		}
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.CodedErrorResponse(message, "unauthenticated", ""))
}
