package models

import "time"

type TeamRole string

const (
	TeamRoleLeader TeamRole = "leader"
	TeamRoleMember TeamRole = "member"
)

type Team struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   uint      `json:"event_id" gorm:"not null;uniqueIndex:idx_teams_event_creator,priority:1"`
	Name      string    `json:"name" gorm:"not null"`
	JoinCode  string    `json:"join_code" gorm:"type:varchar(16);not null;uniqueIndex:idx_teams_join_code"`
	CreatedBy string    `json:"created_by" gorm:"not null;uniqueIndex:idx_teams_event_creator,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember rows carry the event id so the store can enforce one team per
// user per event with a plain unique index.
type TeamMember struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	TeamID   uint      `json:"team_id" gorm:"not null;uniqueIndex:idx_team_members_team_user,priority:1"`
	EventID  uint      `json:"event_id" gorm:"not null;uniqueIndex:idx_team_members_event_user,priority:1"`
	UserID   string    `json:"user_id" gorm:"not null;uniqueIndex:idx_team_members_team_user,priority:2;uniqueIndex:idx_team_members_event_user,priority:2"`
	Role     TeamRole  `json:"role" gorm:"type:varchar(16);not null;default:'member'"`
	Phone    string    `json:"phone" gorm:"type:varchar(16)"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

type CreateTeamRequest struct {
	TeamName string `json:"team_name" validate:"required,min=2,max=80"`
	Phone    string `json:"phone" validate:"required,phone"`
}

type JoinTeamRequest struct {
	JoinCode string `json:"join_code" validate:"required,min=4,max=16"`
	Phone    string `json:"phone" validate:"required,phone"`
}

// TeamCreation is the result of creating a team: the team and the single
// fee-bearing registration owned by its leader.
type TeamCreation struct {
	Team         *Team         `json:"team"`
	Leader       *TeamMember   `json:"leader"`
	Registration *Registration `json:"registration"`
	JoinCode     string        `json:"join_code"`
}

type TeamDetails struct {
	Team         *Team         `json:"team"`
	Members      []TeamMember  `json:"members"`
	Registration *Registration `json:"registration,omitempty"`
}
