package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/apperror"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/utils"
)

// MaxProofBytes is the upload ceiling for payment proofs (5 MiB).
const MaxProofBytes = 5 << 20

// PaymentService accepts payment proof uploads.
type PaymentService struct {
	events   EventStore
	teams    TeamStore
	regs     RegistrationStore
	storage  BlobStorage
	notifier *Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewPaymentService(
	events EventStore,
	teams TeamStore,
	regs RegistrationStore,
	storage BlobStorage,
	notifier *Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		events:   events,
		teams:    teams,
		regs:     regs,
		storage:  storage,
		notifier: notifier,
		metrics:  m,
		log:      log.Named("payments"),
	}
}

// SubmitProof stores a payment screenshot and marks the registration's
// payment as submitted. Solo registrations accept uploads from their user,
// team registrations from the team leader only.
//
// When the confirmation email fails the updated registration is returned
// together with an upstream error.
func (s *PaymentService) SubmitProof(ctx context.Context, registrationID uint, actorID string, file []byte) (reg *models.Registration, err error) {
	defer s.metrics.ObserveOperation("submit_payment_proof", time.Now())
	defer func() { s.metrics.PaymentProofs.WithLabelValues(metrics.Outcome(errorCode(err))).Inc() }()

	reg, err = s.regs.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, notFound(err, apperror.ErrRegistrationNotFound)
	}

	teamName, err := s.authorizePayer(ctx, reg, actorID)
	if err != nil {
		return nil, err
	}

	rules, err := loadRules(ctx, s.events, reg.Event)
	if err != nil {
		return nil, err
	}
	if !rules.IsPaid() {
		return nil, apperror.ErrNotPayable
	}
	if reg.PaymentStatus == models.PaymentVerified {
		return nil, apperror.ErrAlreadyVerified
	}

	if len(file) == 0 {
		return nil, apperror.Validation("file", "is required")
	}
	if len(file) > MaxProofBytes {
		return nil, apperror.Validation("file", "must be at most 5 MB")
	}
	mtype := mimetype.Detect(file)
	if !utils.SupportedImageTypes[mtype.String()] {
		return nil, apperror.Validation("file", "must be a JPEG, PNG or WebP image")
	}

	key := fmt.Sprintf("payment-proofs/%d/%s%s", reg.ID, uuid.NewString(), mtype.Extension())
	url, err := s.storage.Upload(ctx, key, file, mtype.String())
	if err != nil {
		return nil, apperror.Upstream("storage", err)
	}

	if err := s.regs.SetPaymentProof(ctx, reg.ID, url); err != nil {
		s.discard(ctx, key)
		switch {
		case errors.Is(err, repository.ErrStaleState):
			return nil, apperror.Wrap(apperror.ErrAlreadyVerified, err)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperror.ErrRegistrationNotFound
		default:
			return nil, err
		}
	}

	reg, err = s.regs.GetRegistration(ctx, reg.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment proof stored", zap.Uint("registration_id", reg.ID), zap.String("actor_id", actorID), zap.String("key", key))

	data := email.TemplateData{EventName: rules.Name, TeamName: teamName}
	if err := s.notifier.Notify(ctx, actorID, "Payment proof received: "+rules.Name, email.TemplateProofReceived, data); err != nil {
		s.log.Warn("proof received email failed", zap.Uint("registration_id", reg.ID), zap.Error(err))
		return reg, apperror.Upstream("mail", err)
	}
	return reg, nil
}

// authorizePayer checks that actorID may pay for reg and returns the team
// name for team registrations.
func (s *PaymentService) authorizePayer(ctx context.Context, reg *models.Registration, actorID string) (string, error) {
	if userID, ok := reg.Payer.UserID(); ok {
		if userID != actorID {
			return "", apperror.ErrUnauthorized
		}
		return "", nil
	}

	teamID, _ := reg.Payer.TeamID()
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return "", notFound(err, apperror.ErrTeamNotFound)
	}
	if team.CreatedBy != actorID {
		return "", apperror.ErrUnauthorized
	}
	return team.Name, nil
}

func (s *PaymentService) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.log.Error("failed to delete orphaned proof", zap.String("key", key), zap.Error(err))
	}
}
