package models

import "time"

// RegistrationView is a registration joined with its event, team and the
// profile of whoever pays (the solo user or the team leader).
type RegistrationView struct {
	Registration
	Kind        string `json:"kind"` // solo, team or mun
	EventName   string `json:"event_name"`
	TeamName    string `json:"team_name,omitempty"`
	JoinCode    string `json:"join_code,omitempty"`
	LeaderID    string `json:"leader_id,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
	PayerEmail  string `json:"payer_email"`
	PayerName   string `json:"payer_name"`
}

const (
	ViewKindSolo = "solo"
	ViewKindTeam = "team"
	ViewKindMUN  = "mun"
)

type RegistrationFilter struct {
	EventID             *uint
	MUNEventID          *uint
	Kind                string
	Status              Status
	PaymentStatus       PaymentStatus
	PaymentVerification Status
	Search              string
	Limit               int
	Offset              int
}

type RegistrationStats struct {
	Total                 int                   `json:"total"`
	ByKind                map[string]int        `json:"by_kind"`
	ByStatus              map[Status]int        `json:"by_status"`
	ByPaymentStatus       map[PaymentStatus]int `json:"by_payment_status"`
	ByPaymentVerification map[Status]int        `json:"by_payment_verification"`
	ProofsAwaitingReview  int                   `json:"proofs_awaiting_review"`
	GeneratedAt           time.Time             `json:"generated_at"`
}
