package models

import (
	"strings"
	"time"
)

type Event struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"not null"`
	Description      string    `json:"description"`
	Fee              *int64    `json:"fee"` // nil or zero means free
	IsTeamCapable    bool      `json:"is_team_capable" gorm:"not null;default:false"`
	MinTeamSize      int       `json:"min_team_size" gorm:"not null;default:1"`
	MaxTeamSize      int       `json:"max_team_size" gorm:"not null;default:1"`
	RegistrationOpen bool      `json:"registration_open" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (e *Event) IsPaid() bool {
	return e.Fee != nil && *e.Fee > 0
}

// MUNSubtype decides which extra applicant fields a MUN committee requires.
type MUNSubtype string

const (
	MUNSubtypeOrdinary      MUNSubtype = "ordinary"
	MUNSubtypeDualPortfolio MUNSubtype = "dual_portfolio"
	MUNSubtypeCategory      MUNSubtype = "category"
)

// ClassifyMUNSubtype derives the committee subtype from its name.
// "WHO" and "AIPPM" committees ask for two portfolio preferences; the
// International Press ("IP") asks for a category.
func ClassifyMUNSubtype(name string) MUNSubtype {
	upper := strings.ToUpper(name)
	switch {
	case strings.Contains(upper, "WHO"), strings.Contains(upper, "AIPPM"):
		return MUNSubtypeDualPortfolio
	case strings.Contains(upper, "IP"):
		return MUNSubtypeCategory
	default:
		return MUNSubtypeOrdinary
	}
}

type MUNEvent struct {
	ID               uint       `json:"id" gorm:"primaryKey"`
	Name             string     `json:"name" gorm:"not null"`
	Description      string     `json:"description"`
	Fee              *int64     `json:"fee"`
	RegistrationOpen bool       `json:"registration_open" gorm:"not null"`
	Subtype          MUNSubtype `json:"subtype" gorm:"type:varchar(32);not null;default:'ordinary'"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (MUNEvent) TableName() string {
	return "mun_events"
}

func (e *MUNEvent) IsPaid() bool {
	return e.Fee != nil && *e.Fee > 0
}

// Classify stores the subtype derived from the current name.
func (e *MUNEvent) Classify() {
	e.Subtype = ClassifyMUNSubtype(e.Name)
}

// EventRules is the uniform view of an Event or MUNEvent that the
// registration engine works against.
type EventRules struct {
	Ref              EventRef   `json:"event"`
	Name             string     `json:"name"`
	Fee              *int64     `json:"fee"`
	RegistrationOpen bool       `json:"registration_open"`
	IsTeamCapable    bool       `json:"is_team_capable"`
	MinTeamSize      int        `json:"min_team_size,omitempty"`
	MaxTeamSize      int        `json:"max_team_size,omitempty"`
	Subtype          MUNSubtype `json:"subtype,omitempty"`
}

func (r EventRules) IsPaid() bool {
	return r.Fee != nil && *r.Fee > 0
}

func RulesForEvent(e *Event) EventRules {
	return EventRules{
		Ref:              StandardEvent(e.ID),
		Name:             e.Name,
		Fee:              e.Fee,
		RegistrationOpen: e.RegistrationOpen,
		IsTeamCapable:    e.IsTeamCapable,
		MinTeamSize:      e.MinTeamSize,
		MaxTeamSize:      e.MaxTeamSize,
	}
}

func RulesForMUNEvent(e *MUNEvent) EventRules {
	subtype := e.Subtype
	if subtype == "" {
		subtype = ClassifyMUNSubtype(e.Name)
	}
	return EventRules{
		Ref:              MUNEventRef(e.ID),
		Name:             e.Name,
		Fee:              e.Fee,
		RegistrationOpen: e.RegistrationOpen,
		Subtype:          subtype,
	}
}

type CreateEventRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Description      string `json:"description"`
	Fee              *int64 `json:"fee" validate:"omitempty,min=0"`
	IsTeamCapable    bool   `json:"is_team_capable"`
	MinTeamSize      int    `json:"min_team_size" validate:"omitempty,min=1"`
	MaxTeamSize      int    `json:"max_team_size" validate:"omitempty,min=1"`
	RegistrationOpen *bool  `json:"registration_open"`
}

type CreateMUNEventRequest struct {
	Name             string `json:"name" validate:"required,max=200"`
	Description      string `json:"description"`
	Fee              *int64 `json:"fee" validate:"omitempty,min=0"`
	RegistrationOpen *bool  `json:"registration_open"`
}

type UpdateFeeRequest struct {
	Fee *int64 `json:"fee" validate:"omitempty,min=0"`
}

// EventPatch names the admin-mutable fields of an event. Only the fields it
// sets are written, so a fee change never rewrites registration_open.
type EventPatch struct {
	RegistrationOpen *bool
	Fee              *int64
	SetFee           bool
}

// Columns is the column set the patch updates.
func (p EventPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{}, 2)
	if p.RegistrationOpen != nil {
		cols["registration_open"] = *p.RegistrationOpen
	}
	if p.SetFee {
		cols["fee"] = p.Fee
	}
	return cols
}

// Apply copies the set fields into open and fee.
func (p EventPatch) Apply(open *bool, fee **int64) {
	if p.RegistrationOpen != nil {
		*open = *p.RegistrationOpen
	}
	if p.SetFee {
		*fee = p.Fee
	}
}
