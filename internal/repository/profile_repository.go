package repository

import (
	"context"

	"github.com/sefazor/festival-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &profile, nil
}

// EnsureProfile creates the profile on first sight and keeps the email and,
// when the token carries one, the name in sync afterwards. The role is never
// touched here.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, user models.CurrentUser) (*models.Profile, error) {
	profile := &models.Profile{ID: user.ID, Email: user.Email, FullName: user.FullName, Role: models.RoleParticipant}
	columns := []string{"email", "updated_at"}
	if user.FullName != "" {
		columns = append(columns, "full_name")
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(profile).Error
	if err != nil {
		return nil, translateError(err)
	}
	return r.GetProfile(ctx, user.ID)
}
