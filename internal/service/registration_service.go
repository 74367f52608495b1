package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/apperror"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/utils"
)

// RegistrationService registers individuals for standard and MUN events.
type RegistrationService struct {
	events   EventStore
	teams    TeamStore
	regs     RegistrationStore
	notifier *Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewRegistrationService(
	events EventStore,
	teams TeamStore,
	regs RegistrationStore,
	notifier *Notifier,
	m *metrics.Metrics,
	log *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		events:   events,
		teams:    teams,
		regs:     regs,
		notifier: notifier,
		metrics:  m,
		log:      log.Named("registrations"),
	}
}

// RegisterSolo creates an individual registration for a standard or MUN
// event.
func (s *RegistrationService) RegisterSolo(ctx context.Context, ref models.EventRef, userID, phone string, applicant models.Applicant) (*models.Registration, error) {
	defer s.metrics.ObserveOperation("register_solo", time.Now())

	if !utils.IsValidPhone(phone) {
		return nil, apperror.Validation("phone", "must be exactly 10 digits")
	}

	rules, err := loadRules(ctx, s.events, ref)
	if err != nil {
		return nil, err
	}
	if !rules.RegistrationOpen {
		return nil, apperror.ErrClosed
	}

	if ref.IsMUN() {
		if applicant, err = ValidateApplicant(rules.Subtype, applicant); err != nil {
			return nil, err
		}
	} else {
		applicant = models.Applicant{}
		if rules.IsTeamCapable {
			found, err := exists(s.teams.FindMembership(ctx, ref.ID(), userID))
			if err != nil {
				return nil, err
			}
			if found {
				return nil, apperror.ErrAlreadyInAnotherTeam
			}
		}
	}

	found, err := exists(s.regs.FindSoloRegistration(ctx, ref, userID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.ErrAlreadyRegistered
	}

	reg := models.NewRegistration(models.SoloPayer(userID), ref, phone, applicant)
	if err := s.regs.CreateRegistration(ctx, reg); err != nil {
		if _, dup := repository.DuplicateConstraint(err); dup {
			return nil, apperror.Wrap(apperror.ErrAlreadyRegistered, err)
		}
		return nil, err
	}

	kind := models.ViewKindSolo
	if ref.IsMUN() {
		kind = models.ViewKindMUN
	}
	s.metrics.RegistrationsCreated.WithLabelValues(kind).Inc()
	s.log.Info("registered", zap.Uint("registration_id", reg.ID), zap.Stringer("event", ref), zap.String("user_id", userID))

	data := email.TemplateData{EventName: rules.Name, Paid: rules.IsPaid()}
	if err := s.notifier.Notify(ctx, userID, "Registration received: "+rules.Name, email.TemplateRegistrationConfirmed, data); err != nil {
		s.log.Warn("registration email failed", zap.Uint("registration_id", reg.ID), zap.Error(err))
	}
	return reg, nil
}

// ValidateApplicant checks the extra fields a MUN committee requires and
// returns them normalised.
func ValidateApplicant(subtype models.MUNSubtype, a models.Applicant) (models.Applicant, error) {
	a.Institute = strings.TrimSpace(a.Institute)
	a.Qualification = strings.TrimSpace(a.Qualification)
	a.Referral = strings.TrimSpace(a.Referral)
	a.PortfolioPreference1 = strings.TrimSpace(a.PortfolioPreference1)
	a.PortfolioPreference2 = strings.TrimSpace(a.PortfolioPreference2)
	a.Category = strings.TrimSpace(a.Category)

	if a.Institute == "" {
		return a, apperror.Validation("institute", "is required")
	}
	if a.Qualification == "" {
		return a, apperror.Validation("qualification", "is required")
	}

	switch subtype {
	case models.MUNSubtypeDualPortfolio:
		if a.PortfolioPreference1 == "" {
			return a, apperror.Validation("portfolio_preference_1", "is required")
		}
		if a.PortfolioPreference2 == "" {
			return a, apperror.Validation("portfolio_preference_2", "is required")
		}
		if strings.EqualFold(a.PortfolioPreference1, a.PortfolioPreference2) {
			return a, apperror.Validation("portfolio_preference_2", "must differ from portfolio_preference_1")
		}
	case models.MUNSubtypeCategory:
		category, ok := models.CanonicalCategory(a.Category)
		if !ok {
			return a, apperror.Validation("category", "must be one of "+strings.Join(models.PressCategories, ", "))
		}
		a.Category = category
	}
	return a, nil
}

// ListForUser returns the caller's solo registrations and those of every
// team they belong to.
func (s *RegistrationService) ListForUser(ctx context.Context, userID string) ([]models.Registration, error) {
	return s.regs.ListForUser(ctx, userID)
}
