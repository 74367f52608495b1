package repository

import (
	"time"

	"github.com/sefazor/festival-backend/internal/models"
)

// registrationRecord is the storage shape of models.Registration. The payer
// and event variants become pairs of nullable columns guarded by CHECK
// constraints.
type registrationRecord struct {
	ID                   uint    `gorm:"primaryKey"`
	UserID               *string `gorm:"type:varchar(64);uniqueIndex:idx_registrations_event_user,priority:2;uniqueIndex:idx_registrations_mun_user,priority:2;check:chk_registrations_payer,(user_id IS NULL) <> (team_id IS NULL)"`
	TeamID               *uint   `gorm:"uniqueIndex:idx_registrations_team"`
	EventID              *uint   `gorm:"uniqueIndex:idx_registrations_event_user,priority:1;check:chk_registrations_event,(event_id IS NULL) <> (mun_event_id IS NULL)"`
	MUNEventID           *uint   `gorm:"column:mun_event_id;uniqueIndex:idx_registrations_mun_user,priority:1"`
	Phone                string  `gorm:"type:varchar(16);not null"`
	Institute            string
	Qualification        string
	Referral             string
	PortfolioPreference1 string `gorm:"column:portfolio_preference_1"`
	PortfolioPreference2 string `gorm:"column:portfolio_preference_2"`
	Category             string
	PaymentStatus        string    `gorm:"type:varchar(16);not null;default:'pending';index"`
	PaymentVerification  string    `gorm:"type:varchar(16);not null;default:'pending'"`
	Status               string    `gorm:"type:varchar(16);not null;default:'pending';index"`
	PaymentProofURL      *string   `gorm:"type:text"`
	RegisteredAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time
}

func (registrationRecord) TableName() string {
	return "registrations"
}

func toRecord(reg *models.Registration) *registrationRecord {
	rec := &registrationRecord{
		ID:                   reg.ID,
		Phone:                reg.Phone,
		Institute:            reg.Applicant.Institute,
		Qualification:        reg.Applicant.Qualification,
		Referral:             reg.Applicant.Referral,
		PortfolioPreference1: reg.Applicant.PortfolioPreference1,
		PortfolioPreference2: reg.Applicant.PortfolioPreference2,
		Category:             reg.Applicant.Category,
		PaymentStatus:        string(reg.PaymentStatus),
		PaymentVerification:  string(reg.PaymentVerification),
		Status:               string(reg.Status),
		PaymentProofURL:      reg.PaymentProofURL,
		RegisteredAt:         reg.RegisteredAt,
		UpdatedAt:            reg.UpdatedAt,
	}
	if userID, ok := reg.Payer.UserID(); ok {
		rec.UserID = &userID
	}
	if teamID, ok := reg.Payer.TeamID(); ok {
		rec.TeamID = &teamID
	}
	id := reg.Event.ID()
	if reg.Event.IsMUN() {
		rec.MUNEventID = &id
	} else {
		rec.EventID = &id
	}
	return rec
}

func (rec *registrationRecord) toModel() *models.Registration {
	reg := &models.Registration{
		ID:    rec.ID,
		Phone: rec.Phone,
		Applicant: models.Applicant{
			Institute:            rec.Institute,
			Qualification:        rec.Qualification,
			Referral:             rec.Referral,
			PortfolioPreference1: rec.PortfolioPreference1,
			PortfolioPreference2: rec.PortfolioPreference2,
			Category:             rec.Category,
		},
		PaymentStatus:       models.PaymentStatus(rec.PaymentStatus),
		PaymentVerification: models.Status(rec.PaymentVerification),
		Status:              models.Status(rec.Status),
		PaymentProofURL:     rec.PaymentProofURL,
		RegisteredAt:        rec.RegisteredAt,
		UpdatedAt:           rec.UpdatedAt,
	}
	switch {
	case rec.TeamID != nil:
		reg.Payer = models.TeamPayer(*rec.TeamID)
	case rec.UserID != nil:
		reg.Payer = models.SoloPayer(*rec.UserID)
	}
	switch {
	case rec.MUNEventID != nil:
		reg.Event = models.MUNEventRef(*rec.MUNEventID)
	case rec.EventID != nil:
		reg.Event = models.StandardEvent(*rec.EventID)
	}
	return reg
}

func statusColumn(field models.StatusField) string {
	if field == models.FieldPaymentVerification {
		return "payment_verification"
	}
	return "status"
}
