package models

import (
	"time"
)

type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// Profile mirrors the identity provider's user record. Rows are created on
// first authenticated request; the role is managed outside this service.
type Profile struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Email     string    `json:"email" gorm:"not null"`
	FullName  string    `json:"full_name"`
	Role      Role      `json:"role" gorm:"type:varchar(32);not null;default:'participant'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CurrentUser is the authenticated caller as reported by the identity provider.
type CurrentUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
