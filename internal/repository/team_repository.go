package repository

import (
	"context"

	"github.com/sefazor/festival-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) GetTeam(ctx context.Context, id uint) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &team, nil
}

func (r *TeamRepository) FindTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&team).Error; err != nil {
		return nil, translateError(err)
	}
	return &team, nil
}

func (r *TeamRepository) FindTeamByLeader(ctx context.Context, eventID uint, leaderID string) (*models.Team, error) {
	var team models.Team
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND created_by = ?", eventID, leaderID).
		First(&team).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &team, nil
}

// FindMembership returns the user's membership in any team of the event.
func (r *TeamRepository) FindMembership(ctx context.Context, eventID uint, userID string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&member).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &member, nil
}

func (r *TeamRepository) JoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Team{}).Where("join_code = ?", code).Count(&count).Error
	return count > 0, translateError(err)
}

// CreateTeam inserts the team, its leader membership and the team's single
// registration in one transaction.
func (r *TeamRepository) CreateTeam(ctx context.Context, team *models.Team, leader *models.TeamMember, reg *models.Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return translateError(err)
		}

		leader.TeamID = team.ID
		leader.EventID = team.EventID
		if err := tx.Create(leader).Error; err != nil {
			return translateError(err)
		}

		reg.Payer = models.TeamPayer(team.ID)
		rec := toRecord(reg)
		if err := tx.Create(rec).Error; err != nil {
			return translateError(err)
		}
		*reg = *rec.toModel()
		return nil
	})
}

// AddMember locks the team row, checks capacity and inserts the member, so
// concurrent joiners cannot push a team past maxSize.
func (r *TeamRepository) AddMember(ctx context.Context, member *models.TeamMember, maxSize int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var team models.Team
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&team, member.TeamID).Error
		if err != nil {
			return translateError(err)
		}

		var count int64
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&count).Error; err != nil {
			return translateError(err)
		}
		if int(count) >= maxSize {
			return ErrCapacityReached
		}

		member.EventID = team.EventID
		return translateError(tx.Create(member).Error)
	})
}

func (r *TeamRepository) CountMembers(ctx context.Context, teamID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error
	return count, translateError(err)
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID uint) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	return members, translateError(err)
}
