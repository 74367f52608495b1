package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/pkg/apperror"
)

// EventService is the event catalog: public reads plus the admin-only
// mutations of registration_open and fee.
type EventService struct {
	events EventStore
	log    *zap.Logger
}

func NewEventService(events EventStore, log *zap.Logger) *EventService {
	return &EventService{events: events, log: log.Named("events")}
}

func (s *EventService) CreateEvent(ctx context.Context, req models.CreateEventRequest) (*models.Event, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name", "is required")
	}
	if req.Fee != nil && *req.Fee < 0 {
		return nil, apperror.Validation("fee", "must not be negative")
	}

	event := &models.Event{
		Name:             name,
		Description:      req.Description,
		Fee:              req.Fee,
		IsTeamCapable:    req.IsTeamCapable,
		MinTeamSize:      1,
		MaxTeamSize:      1,
		RegistrationOpen: true,
	}
	if req.RegistrationOpen != nil {
		event.RegistrationOpen = *req.RegistrationOpen
	}
	if req.IsTeamCapable {
		if req.MinTeamSize > 0 {
			event.MinTeamSize = req.MinTeamSize
		}
		event.MaxTeamSize = req.MaxTeamSize
		if event.MaxTeamSize == 0 {
			event.MaxTeamSize = event.MinTeamSize
		}
		if event.MaxTeamSize < event.MinTeamSize {
			return nil, apperror.Validation("max_team_size", "must not be smaller than min_team_size")
		}
	}

	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.log.Info("event created", zap.Uint("event_id", event.ID), zap.String("name", event.Name))
	return event, nil
}

func (s *EventService) CreateMUNEvent(ctx context.Context, req models.CreateMUNEventRequest) (*models.MUNEvent, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name", "is required")
	}
	if req.Fee != nil && *req.Fee < 0 {
		return nil, apperror.Validation("fee", "must not be negative")
	}

	event := &models.MUNEvent{
		Name:             name,
		Description:      req.Description,
		Fee:              req.Fee,
		RegistrationOpen: true,
	}
	if req.RegistrationOpen != nil {
		event.RegistrationOpen = *req.RegistrationOpen
	}
	if err := s.events.CreateMUNEvent(ctx, event); err != nil {
		return nil, err
	}
	s.log.Info("mun event created",
		zap.Uint("mun_event_id", event.ID),
		zap.String("name", event.Name),
		zap.String("subtype", string(event.Subtype)))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.events.GetEvent(ctx, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrEventNotFound)
	}
	return event, nil
}

func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.events.ListEvents(ctx)
}

func (s *EventService) GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error) {
	event, err := s.events.GetMUNEvent(ctx, id)
	if err != nil {
		return nil, notFound(err, apperror.ErrEventNotFound)
	}
	return event, nil
}

func (s *EventService) ListMUNEvents(ctx context.Context) ([]models.MUNEvent, error) {
	return s.events.ListMUNEvents(ctx)
}

// Rules returns the uniform view of either kind of event.
func (s *EventService) Rules(ctx context.Context, ref models.EventRef) (models.EventRules, error) {
	return loadRules(ctx, s.events, ref)
}

// SetRegistrationOpen closes (open=false) or reopens registration.
func (s *EventService) SetRegistrationOpen(ctx context.Context, ref models.EventRef, open bool) (models.EventRules, error) {
	rules, err := s.update(ctx, ref, models.EventPatch{RegistrationOpen: &open})
	if err == nil {
		s.log.Info("registration toggled", zap.Stringer("event", ref), zap.Bool("open", open))
	}
	return rules, err
}

// UpdateFee sets the fee; nil makes the event free.
func (s *EventService) UpdateFee(ctx context.Context, ref models.EventRef, fee *int64) (models.EventRules, error) {
	if fee != nil && *fee < 0 {
		return models.EventRules{}, apperror.Validation("fee", "must not be negative")
	}
	rules, err := s.update(ctx, ref, models.EventPatch{Fee: fee, SetFee: true})
	if err == nil {
		s.log.Info("fee updated", zap.Stringer("event", ref))
	}
	return rules, err
}

func (s *EventService) update(ctx context.Context, ref models.EventRef, patch models.EventPatch) (models.EventRules, error) {
	var err error
	if ref.IsMUN() {
		err = s.events.UpdateMUNEvent(ctx, ref.ID(), patch)
	} else {
		err = s.events.UpdateEvent(ctx, ref.ID(), patch)
	}
	if err != nil {
		return models.EventRules{}, notFound(err, apperror.ErrEventNotFound)
	}
	return loadRules(ctx, s.events, ref)
}

func loadRules(ctx context.Context, events EventStore, ref models.EventRef) (models.EventRules, error) {
	if ref.IsMUN() {
		event, err := events.GetMUNEvent(ctx, ref.ID())
		if err != nil {
			return models.EventRules{}, notFound(err, apperror.ErrEventNotFound)
		}
		return models.RulesForMUNEvent(event), nil
	}
	event, err := events.GetEvent(ctx, ref.ID())
	if err != nil {
		return models.EventRules{}, notFound(err, apperror.ErrEventNotFound)
	}
	return models.RulesForEvent(event), nil
}
