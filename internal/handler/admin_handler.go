package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/apperror"
	"github.com/sefazor/festival-backend/pkg/report"
	"github.com/sefazor/festival-backend/pkg/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type AdminHandler struct {
	adminService *service.AdminService
	validator    *utils.Validator
	log          *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, validator *utils.Validator, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		validator:    validator,
		log:          log,
	}
}

func (h *AdminHandler) ListRegistrations(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}

	views, err := h.adminService.ListRegistrations(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(views, ""))
}

func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	stats, err := h.adminService.Stats(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(stats, ""))
}

// Export streams the filtered registrations as a file download.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	data, filename, contentType, err := h.adminService.Export(c.UserContext(), filter, c.Query("format", report.FormatExcel))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	regID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.SetStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}
	field, err := models.ParseStatusField(req.Field)
	if err != nil {
		return respondError(c, h.log, apperror.Validation("field", err.Error()))
	}

	reg, err := h.adminService.SetStatus(c.UserContext(), adminID, regID, field, models.Status(req.Value), req.Notify)
	if reg == nil {
		return respondError(c, h.log, err)
	}
	return respondCommitted(c, h.log, fiber.StatusOK, reg, "Status updated", err)
}

func (h *AdminHandler) BulkSetStatus(c *fiber.Ctx) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}

	var req models.BulkSetStatusRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, h.log, err)
	}
	field, err := models.ParseStatusField(req.Field)
	if err != nil {
		return respondError(c, h.log, apperror.Validation("field", err.Error()))
	}

	results, err := h.adminService.BulkSetStatus(c.UserContext(), adminID, req.IDs, field, models.Status(req.Value), req.Notify)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(results, "Bulk update processed"))
}

func (h *AdminHandler) TeamMembers(c *fiber.Ctx) error {
	teamID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	details, err := h.adminService.TeamMembers(c.UserContext(), teamID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(models.SuccessResponse(details, ""))
}

// parseFilter reads event_id, mun_event_id, kind, status, payment_status,
// payment_verification, search, limit and offset from the query string.
func parseFilter(c *fiber.Ctx) (models.RegistrationFilter, error) {
	var filter models.RegistrationFilter

	for _, p := range []struct {
		name string
		dst  **uint
	}{
		{"event_id", &filter.EventID},
		{"mun_event_id", &filter.MUNEventID},
	} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return filter, apperror.Validation(p.name, "must be a positive integer")
		}
		v := uint(id)
		*p.dst = &v
	}

	filter.Kind = strings.ToLower(c.Query("kind"))
	switch filter.Kind {
	case "", models.ViewKindSolo, models.ViewKindTeam, models.ViewKindMUN:
	default:
		return filter, apperror.Validation("kind", "must be one of solo, team, mun")
	}

	for _, p := range []struct {
		name string
		dst  *models.Status
	}{
		{"status", &filter.Status},
		{"payment_verification", &filter.PaymentVerification},
	} {
		raw := models.Status(strings.ToLower(c.Query(p.name)))
		if raw == "" {
			continue
		}
		if !raw.Valid() {
			return filter, apperror.Validation(p.name, "must be one of pending, verified, rejected")
		}
		*p.dst = raw
	}

	if raw := strings.ToLower(c.Query("payment_status")); raw != "" {
		ps := models.PaymentStatus(raw)
		switch ps {
		case models.PaymentPending, models.PaymentVerified, models.PaymentRejected:
			filter.PaymentStatus = ps
		default:
			return filter, apperror.Validation("payment_status", "must be one of pending, verified, rejected")
		}
	}

	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Limit = c.QueryInt("limit", 0)
	filter.Offset = c.QueryInt("offset", 0)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}
