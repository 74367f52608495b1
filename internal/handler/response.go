package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/pkg/apperror"
)

// LocalUserID is the c.Locals key the auth middleware stores the caller in.
const LocalUserID = "userID"

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case apperror.KindUnauthorized, apperror.KindClosed:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindConflict, apperror.KindAlreadyVerified:
		return fiber.StatusConflict
	case apperror.KindNotPayable:
		return fiber.StatusUnprocessableEntity
	case apperror.KindExhaustedRetries:
		return fiber.StatusServiceUnavailable
	case apperror.KindUpstream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a coded error response. Internal errors are
// logged and hidden from the client.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	status := StatusFor(err)
	appErr, ok := apperror.As(err)
	if !ok {
		if status == fiber.StatusInternalServerError {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(status).JSON(models.CodedErrorResponse("internal server error", string(apperror.KindInternal), ""))
		}
		return c.Status(status).JSON(models.ErrorResponse(err.Error()))
	}
	if appErr.Kind == apperror.KindUpstream {
		log.Warn("upstream failure", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(status).JSON(models.CodedErrorResponse(appErr.Message, appErr.Code, ""))
	}
	return c.Status(status).JSON(models.CodedErrorResponse(appErr.Message, appErr.Code, appErr.Field))
}

// respondCommitted answers an operation whose write succeeded but whose
// follow-up email may have failed. An upstream error after a commit is a
// warning, anything else is a failure.
func respondCommitted(c *fiber.Ctx, log *zap.Logger, status int, data interface{}, message string, err error) error {
	if err == nil {
		return c.Status(status).JSON(models.SuccessResponse(data, message))
	}
	if apperror.KindOf(err) != apperror.KindUpstream {
		return respondError(c, log, err)
	}
	log.Warn("notification failed", zap.String("path", c.Path()), zap.Error(err))
	resp := models.SuccessResponse(data, message)
	resp.Warning = "confirmation email could not be sent"
	return c.Status(status).JSON(resp)
}

func currentUserID(c *fiber.Ctx) (string, error) {
	userID, ok := c.Locals(LocalUserID).(string)
	if !ok || userID == "" {
		return "", apperror.ErrUnauthenticated
	}
	return userID, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, apperror.Validation(name, "must be a positive integer")
	}
	return uint(id), nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperror.Wrap(apperror.ErrValidation, err)
	}
	return nil
}
