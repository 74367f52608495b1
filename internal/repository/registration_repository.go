package repository

import (
	"context"
	"time"

	"github.com/sefazor/festival-backend/internal/models"
	"gorm.io/gorm"
)

type RegistrationRepository struct {
	db *gorm.DB
}

func NewRegistrationRepository(db *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) CreateRegistration(ctx context.Context, reg *models.Registration) error {
	rec := toRecord(reg)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return translateError(err)
	}
	*reg = *rec.toModel()
	return nil
}

func (r *RegistrationRepository) GetRegistration(ctx context.Context, id uint) (*models.Registration, error) {
	var rec registrationRecord
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, translateError(err)
	}
	return rec.toModel(), nil
}

func (r *RegistrationRepository) FindSoloRegistration(ctx context.Context, event models.EventRef, userID string) (*models.Registration, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if event.IsMUN() {
		q = q.Where("mun_event_id = ?", event.ID())
	} else {
		q = q.Where("event_id = ?", event.ID())
	}

	var rec registrationRecord
	if err := q.First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	return rec.toModel(), nil
}

func (r *RegistrationRepository) FindTeamRegistration(ctx context.Context, teamID uint) (*models.Registration, error) {
	var rec registrationRecord
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).First(&rec).Error; err != nil {
		return nil, translateError(err)
	}
	return rec.toModel(), nil
}

// ListForUser returns the user's solo registrations and the registrations
// of every team the user belongs to.
func (r *RegistrationRepository) ListForUser(ctx context.Context, userID string) ([]models.Registration, error) {
	var recs []registrationRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Or("team_id IN (?)", r.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", userID)).
		Order("registered_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, translateError(err)
	}

	regs := make([]models.Registration, 0, len(recs))
	for i := range recs {
		regs = append(regs, *recs[i].toModel())
	}
	return regs, nil
}

// SetPaymentProof records the proof URL and marks the payment as submitted,
// unless it already is. The condition is evaluated by the store so two
// concurrent uploads cannot both succeed.
func (r *RegistrationRepository) SetPaymentProof(ctx context.Context, id uint, url string) error {
	res := r.db.WithContext(ctx).Model(&registrationRecord{}).
		Where("id = ? AND payment_status <> ?", id, models.PaymentVerified).
		Updates(map[string]interface{}{
			"payment_proof_url": url,
			"payment_status":    string(models.PaymentVerified),
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

// CompareAndSetStatus moves an admin field from one value to another.
func (r *RegistrationRepository) CompareAndSetStatus(ctx context.Context, id uint, field models.StatusField, from, to models.Status) error {
	col := statusColumn(field)
	res := r.db.WithContext(ctx).Model(&registrationRecord{}).
		Where("id = ? AND "+col+" = ?", id, string(from)).
		Updates(map[string]interface{}{
			col:          string(to),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.staleOrMissing(ctx, id)
	}
	return nil
}

func (r *RegistrationRepository) staleOrMissing(ctx context.Context, id uint) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&registrationRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translateError(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrStaleState
}

type registrationViewRow struct {
	registrationRecord
	EventName   string
	TeamName    *string
	JoinCode    *string
	LeaderID    *string
	MemberCount int
	PayerEmail  *string
	PayerName   *string
}

// ListViews joins registrations with their event, team and payer profile.
func (r *RegistrationRepository) ListViews(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationView, error) {
	q := r.db.WithContext(ctx).
		Table("registrations AS r").
		Select(`r.*,
			COALESCE(e.name, m.name, '') AS event_name,
			t.name AS team_name,
			t.join_code AS join_code,
			t.created_by AS leader_id,
			(SELECT COUNT(*) FROM team_members tm WHERE tm.team_id = r.team_id) AS member_count,
			p.email AS payer_email,
			p.full_name AS payer_name`).
		Joins("LEFT JOIN events e ON e.id = r.event_id").
		Joins("LEFT JOIN mun_events m ON m.id = r.mun_event_id").
		Joins("LEFT JOIN teams t ON t.id = r.team_id").
		Joins("LEFT JOIN profiles p ON p.id = COALESCE(r.user_id, t.created_by)")

	if filter.EventID != nil {
		q = q.Where("r.event_id = ?", *filter.EventID)
	}
	if filter.MUNEventID != nil {
		q = q.Where("r.mun_event_id = ?", *filter.MUNEventID)
	}
	switch filter.Kind {
	case models.ViewKindSolo:
		q = q.Where("r.user_id IS NOT NULL AND r.event_id IS NOT NULL")
	case models.ViewKindTeam:
		q = q.Where("r.team_id IS NOT NULL")
	case models.ViewKindMUN:
		q = q.Where("r.mun_event_id IS NOT NULL")
	}
	if filter.Status != "" {
		q = q.Where("r.status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		q = q.Where("r.payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.PaymentVerification != "" {
		q = q.Where("r.payment_verification = ?", string(filter.PaymentVerification))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("p.email ILIKE ? OR p.full_name ILIKE ? OR t.name ILIKE ? OR r.phone ILIKE ?", like, like, like, like)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var rows []registrationViewRow
	if err := q.Order("r.registered_at DESC, r.id DESC").Scan(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	views := make([]models.RegistrationView, 0, len(rows))
	for i := range rows {
		views = append(views, rows[i].toView())
	}
	return views, nil
}

func (row *registrationViewRow) toView() models.RegistrationView {
	reg := row.registrationRecord.toModel()
	view := models.RegistrationView{
		Registration: *reg,
		EventName:    row.EventName,
		MemberCount:  row.MemberCount,
		TeamName:     deref(row.TeamName),
		JoinCode:     deref(row.JoinCode),
		LeaderID:     deref(row.LeaderID),
		PayerEmail:   deref(row.PayerEmail),
		PayerName:    deref(row.PayerName),
	}
	view.Kind = viewKind(reg)
	return view
}

func viewKind(reg *models.Registration) string {
	switch {
	case reg.Event.IsMUN():
		return models.ViewKindMUN
	case reg.Payer.Kind() == models.PayerTeam:
		return models.ViewKindTeam
	default:
		return models.ViewKindSolo
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
