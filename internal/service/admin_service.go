package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/apperror"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/report"
)

// AdminService is the staff side: status decisions, listings, statistics
// and exports.
type AdminService struct {
	events   EventStore
	teams    *TeamService
	teamRepo TeamStore
	regs     RegistrationStore
	profiles ProfileStore
	notifier *Notifier
	exporter *report.Exporter
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewAdminService(
	events EventStore,
	teams *TeamService,
	teamRepo TeamStore,
	regs RegistrationStore,
	profiles ProfileStore,
	notifier *Notifier,
	exporter *report.Exporter,
	m *metrics.Metrics,
	log *zap.Logger,
) *AdminService {
	return &AdminService{
		events:   events,
		teams:    teams,
		teamRepo: teamRepo,
		regs:     regs,
		profiles: profiles,
		notifier: notifier,
		exporter: exporter,
		metrics:  m,
		log:      log.Named("admin"),
	}
}

// IsAdmin reports whether the user's profile carries the admin role.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return profile.IsAdmin(), nil
}

func (s *AdminService) requireAdmin(ctx context.Context, actorID string) error {
	ok, err := s.IsAdmin(ctx, actorID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrUnauthorized
	}
	return nil
}

// SetStatus moves one admin-controlled field of a registration. Setting the
// current value again is a successful no-op; a terminal value can not be
// changed. With notify, verifying a payment mails the payer exactly once.
//
// When the email fails the updated registration is returned together with
// an upstream error.
func (s *AdminService) SetStatus(ctx context.Context, actorID string, registrationID uint, field models.StatusField, value models.Status, notify bool) (*models.Registration, error) {
	defer s.metrics.ObserveOperation("admin_set_status", time.Now())

	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if !value.Valid() {
		return nil, apperror.Validation("value", "must be one of pending, verified, rejected")
	}

	reg, err := s.regs.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, notFound(err, apperror.ErrRegistrationNotFound)
	}

	current := reg.StatusOf(field)
	if current == value {
		return reg, nil
	}
	if current.Terminal() {
		return nil, apperror.ErrStatusFinalized
	}

	rules, err := loadRules(ctx, s.events, reg.Event)
	if err != nil {
		return nil, err
	}
	if value == models.StatusVerified && rules.IsPaid() && reg.PaymentStatus != models.PaymentVerified {
		return nil, apperror.ErrProofMissing
	}

	err = s.regs.CompareAndSetStatus(ctx, reg.ID, field, current, value)
	if errors.Is(err, repository.ErrStaleState) {
		// Someone else moved the field first.
		latest, getErr := s.regs.GetRegistration(ctx, reg.ID)
		if getErr != nil {
			return nil, getErr
		}
		if latest.StatusOf(field) == value {
			return latest, nil
		}
		return nil, apperror.Wrap(apperror.ErrStatusFinalized, err)
	}
	if err != nil {
		return nil, notFound(err, apperror.ErrRegistrationNotFound)
	}

	reg.SetStatus(field, value)
	if updated, err := s.regs.GetRegistration(ctx, reg.ID); err == nil {
		reg = updated
	}

	s.metrics.StatusChanges.WithLabelValues(string(field), string(value)).Inc()
	s.log.Info("status changed",
		zap.Uint("registration_id", reg.ID),
		zap.String("field", string(field)),
		zap.String("from", string(current)),
		zap.String("to", string(value)),
		zap.String("actor_id", actorID))

	if notify && field == models.FieldPaymentVerification && value == models.StatusVerified {
		if err := s.notifyVerified(ctx, reg, rules); err != nil {
			s.log.Warn("payment verified email failed", zap.Uint("registration_id", reg.ID), zap.Error(err))
			return reg, apperror.Upstream("mail", err)
		}
	}
	return reg, nil
}

func (s *AdminService) notifyVerified(ctx context.Context, reg *models.Registration, rules models.EventRules) error {
	data := email.TemplateData{EventName: rules.Name}
	recipient, _ := reg.Payer.UserID()
	if teamID, ok := reg.Payer.TeamID(); ok {
		team, err := s.teamRepo.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		recipient = team.CreatedBy
		data.TeamName = team.Name
	}
	return s.notifier.Notify(ctx, recipient, "Payment verified: "+rules.Name, email.TemplatePaymentVerified, data)
}

// BulkSetStatus applies SetStatus to each id and reports every outcome.
func (s *AdminService) BulkSetStatus(ctx context.Context, actorID string, ids []uint, field models.StatusField, value models.Status, notify bool) ([]models.BulkStatusResult, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(ids))
	results := make([]models.BulkStatusResult, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		reg, err := s.SetStatus(ctx, actorID, id, field, value, notify)
		result := models.BulkStatusResult{ID: id, Registration: reg}
		if err != nil {
			result.Error = err.Error()
			result.Code = errorCode(err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *AdminService) ListRegistrations(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationView, error) {
	return s.regs.ListViews(ctx, filter)
}

// Stats counts the registrations matching filter. Limit and offset are
// ignored.
func (s *AdminService) Stats(ctx context.Context, filter models.RegistrationFilter) (*models.RegistrationStats, error) {
	filter.Limit, filter.Offset = 0, 0
	views, err := s.regs.ListViews(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &models.RegistrationStats{
		Total:                 len(views),
		ByKind:                map[string]int{},
		ByStatus:              map[models.Status]int{},
		ByPaymentStatus:       map[models.PaymentStatus]int{},
		ByPaymentVerification: map[models.Status]int{},
		GeneratedAt:           time.Now(),
	}
	for _, v := range views {
		stats.ByKind[v.Kind]++
		stats.ByStatus[v.Status]++
		stats.ByPaymentStatus[v.PaymentStatus]++
		stats.ByPaymentVerification[v.PaymentVerification]++
		if v.PaymentStatus == models.PaymentVerified && v.PaymentVerification == models.StatusPending {
			stats.ProofsAwaitingReview++
		}
	}
	return stats, nil
}

// Export renders the matching registrations as xlsx, csv or pdf.
func (s *AdminService) Export(ctx context.Context, filter models.RegistrationFilter, format string) ([]byte, string, string, error) {
	switch format {
	case report.FormatExcel, report.FormatCSV, report.FormatPDF:
	default:
		return nil, "", "", apperror.Validation("format", "must be one of xlsx, csv, pdf")
	}

	filter.Limit, filter.Offset = 0, 0
	views, err := s.regs.ListViews(ctx, filter)
	if err != nil {
		return nil, "", "", err
	}
	return s.exporter.Export(format, views)
}

// TeamMembers is the admin view of a team's roster.
func (s *AdminService) TeamMembers(ctx context.Context, teamID uint) (*models.TeamDetails, error) {
	return s.teams.TeamDetails(ctx, teamID)
}
