package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/sefazor/festival-backend/internal/service BlobStorage,Mailer

import (
	"context"

	"github.com/sefazor/festival-backend/internal/models"
)

// EventStore persists the event catalog.
type EventStore interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	UpdateEvent(ctx context.Context, id uint, patch models.EventPatch) error
	CreateMUNEvent(ctx context.Context, event *models.MUNEvent) error
	GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error)
	ListMUNEvents(ctx context.Context) ([]models.MUNEvent, error)
	UpdateMUNEvent(ctx context.Context, id uint, patch models.EventPatch) error
}

// TeamStore persists teams and their members. CreateTeam and AddMember are
// atomic: the first writes team, leader and registration together, the
// second enforces the size limit under a lock.
type TeamStore interface {
	GetTeam(ctx context.Context, id uint) (*models.Team, error)
	FindTeamByCode(ctx context.Context, code string) (*models.Team, error)
	FindTeamByLeader(ctx context.Context, eventID uint, leaderID string) (*models.Team, error)
	FindMembership(ctx context.Context, eventID uint, userID string) (*models.TeamMember, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	CreateTeam(ctx context.Context, team *models.Team, leader *models.TeamMember, reg *models.Registration) error
	AddMember(ctx context.Context, member *models.TeamMember, maxSize int) error
	CountMembers(ctx context.Context, teamID uint) (int64, error)
	ListMembers(ctx context.Context, teamID uint) ([]models.TeamMember, error)
}

// RegistrationStore persists registrations. SetPaymentProof and
// CompareAndSetStatus are conditional updates that fail with
// repository.ErrStaleState when their precondition no longer holds.
type RegistrationStore interface {
	CreateRegistration(ctx context.Context, reg *models.Registration) error
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
	FindSoloRegistration(ctx context.Context, event models.EventRef, userID string) (*models.Registration, error)
	FindTeamRegistration(ctx context.Context, teamID uint) (*models.Registration, error)
	ListForUser(ctx context.Context, userID string) ([]models.Registration, error)
	SetPaymentProof(ctx context.Context, id uint, url string) error
	CompareAndSetStatus(ctx context.Context, id uint, field models.StatusField, from, to models.Status) error
	ListViews(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationView, error)
}

type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, user models.CurrentUser) (*models.Profile, error)
}

// BlobStorage keeps uploaded payment proofs.
type BlobStorage interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Mailer delivers one HTML email.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
