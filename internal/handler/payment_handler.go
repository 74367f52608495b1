package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/apperror"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	log            *zap.Logger
}

func NewPaymentHandler(paymentService *service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		log:            log,
	}
}

// SubmitProof accepts a multipart upload in the "file" field.
func (h *PaymentHandler) SubmitProof(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	regID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, h.log, err)
	}

	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.log, apperror.Validation("file", "is required"))
	}
	if header.Size > service.MaxProofBytes {
		return respondError(c, h.log, apperror.Validation("file", "must be at most 5 MB"))
	}

	file, err := header.Open()
	if err != nil {
		return respondError(c, h.log, err)
	}
	defer file.Close()

	// One byte past the limit so the service can reject oversize bodies
	// whose header lied about the size.
	body, err := io.ReadAll(io.LimitReader(file, service.MaxProofBytes+1))
	if err != nil {
		return respondError(c, h.log, err)
	}

	reg, err := h.paymentService.SubmitProof(c.UserContext(), regID, userID, body)
	if reg == nil {
		return respondError(c, h.log, err)
	}
	return respondCommitted(c, h.log, fiber.StatusOK, reg, "Payment proof uploaded successfully", err)
}
