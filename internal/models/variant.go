package models

import (
	"encoding/json"
	"fmt"
)

type PayerKind string

const (
	PayerSolo PayerKind = "solo"
	PayerTeam PayerKind = "team"
)

// Payer is who owns a Registration: a single user or a team. The fields
// are unexported so a Payer can only be built through SoloPayer/TeamPayer,
// which makes "exactly one of user/team" hold by construction.
type Payer struct {
	kind   PayerKind
	userID string
	teamID uint
}

func SoloPayer(userID string) Payer {
	return Payer{kind: PayerSolo, userID: userID}
}

func TeamPayer(teamID uint) Payer {
	return Payer{kind: PayerTeam, teamID: teamID}
}

func (p Payer) Kind() PayerKind { return p.kind }

func (p Payer) IsZero() bool { return p.kind == "" }

// UserID returns the solo payer's user id.
func (p Payer) UserID() (string, bool) {
	return p.userID, p.kind == PayerSolo
}

// TeamID returns the team payer's team id.
func (p Payer) TeamID() (uint, bool) {
	return p.teamID, p.kind == PayerTeam
}

func (p Payer) String() string {
	switch p.kind {
	case PayerSolo:
		return "solo:" + p.userID
	case PayerTeam:
		return fmt.Sprintf("team:%d", p.teamID)
	default:
		return "none"
	}
}

type payerJSON struct {
	Kind   PayerKind `json:"kind"`
	UserID string    `json:"user_id,omitempty"`
	TeamID uint      `json:"team_id,omitempty"`
}

func (p Payer) MarshalJSON() ([]byte, error) {
	return json.Marshal(payerJSON{Kind: p.kind, UserID: p.userID, TeamID: p.teamID})
}

type EventKind string

const (
	EventKindStandard EventKind = "event"
	EventKindMUN      EventKind = "mun_event"
)

// EventRef links a Registration to exactly one of Event or MUNEvent.
type EventRef struct {
	kind EventKind
	id   uint
}

func StandardEvent(id uint) EventRef {
	return EventRef{kind: EventKindStandard, id: id}
}

func MUNEventRef(id uint) EventRef {
	return EventRef{kind: EventKindMUN, id: id}
}

func (r EventRef) Kind() EventKind { return r.kind }

func (r EventRef) ID() uint { return r.id }

func (r EventRef) IsMUN() bool { return r.kind == EventKindMUN }

func (r EventRef) IsZero() bool { return r.kind == "" }

func (r EventRef) String() string {
	return fmt.Sprintf("%s:%d", r.kind, r.id)
}

type eventRefJSON struct {
	Kind EventKind `json:"kind"`
	ID   uint      `json:"id"`
}

func (r EventRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventRefJSON{Kind: r.kind, ID: r.id})
}
