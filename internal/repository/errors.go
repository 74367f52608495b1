package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Names of the unique indexes that close the check-then-insert races. The
// in-memory store reports violations under the same names.
const (
	ConstraintTeamJoinCode          = "idx_teams_join_code"
	ConstraintTeamEventCreator      = "idx_teams_event_creator"
	ConstraintMemberTeamUser        = "idx_team_members_team_user"
	ConstraintMemberEventUser       = "idx_team_members_event_user"
	ConstraintRegistrationEventUser = "idx_registrations_event_user"
	ConstraintRegistrationMUNUser   = "idx_registrations_mun_user"
	ConstraintRegistrationTeam      = "idx_registrations_team"
)

const pgUniqueViolation = "23505"

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleState is returned by conditional updates whose precondition no
	// longer holds.
	ErrStaleState = errors.New("record changed concurrently")
	// ErrCapacityReached is returned when a team already has its maximum
	// number of members.
	ErrCapacityReached = errors.New("team capacity reached")
)

// DuplicateError reports a unique constraint violation.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	if e.Constraint == "" {
		return "duplicate key"
	}
	return fmt.Sprintf("duplicate key violates %s", e.Constraint)
}

func (e *DuplicateError) Unwrap() error { return e.Err }

// DuplicateConstraint returns the violated constraint when err is a DuplicateError.
func DuplicateConstraint(err error) (string, bool) {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint, true
	}
	return "", false
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &DuplicateError{Constraint: pgErr.ConstraintName, Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &DuplicateError{Err: err}
	}
	return err
}
