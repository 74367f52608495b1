package repository

import (
	"context"

	"github.com/sefazor/festival-backend/internal/models"
	"gorm.io/gorm"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) CreateEvent(ctx context.Context, event *models.Event) error {
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *EventRepository) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &event, nil
}

func (r *EventRepository) ListEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).Order("id ASC").Find(&events).Error
	return events, translateError(err)
}

func (r *EventRepository) UpdateEvent(ctx context.Context, id uint, patch models.EventPatch) error {
	return r.update(ctx, &models.Event{}, id, patch)
}

func (r *EventRepository) CreateMUNEvent(ctx context.Context, event *models.MUNEvent) error {
	event.Classify()
	return translateError(r.db.WithContext(ctx).Create(event).Error)
}

func (r *EventRepository) GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error) {
	var event models.MUNEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, translateError(err)
	}
	if event.Subtype == "" {
		event.Classify()
	}
	return &event, nil
}

func (r *EventRepository) ListMUNEvents(ctx context.Context) ([]models.MUNEvent, error) {
	var events []models.MUNEvent
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&events).Error; err != nil {
		return nil, translateError(err)
	}
	for i := range events {
		if events[i].Subtype == "" {
			events[i].Classify()
		}
	}
	return events, nil
}

func (r *EventRepository) UpdateMUNEvent(ctx context.Context, id uint, patch models.EventPatch) error {
	return r.update(ctx, &models.MUNEvent{}, id, patch)
}

// update writes only the columns the patch sets.
func (r *EventRepository) update(ctx context.Context, model interface{}, id uint, patch models.EventPatch) error {
	cols := patch.Columns()
	if len(cols) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
