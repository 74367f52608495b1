package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/apperror"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/qrcode"
	"github.com/sefazor/festival-backend/pkg/utils"
)

// MaxJoinCodeAttempts bounds join code generation. Exhausting it is
// reported as apperror.ErrExhaustedRetries.
const MaxJoinCodeAttempts = 5

type TeamOptions struct {
	// ExclusiveSoloAndTeam refuses to create a team for a leader who
	// already holds a solo registration for the event.
	ExclusiveSoloAndTeam bool
}

type TeamService struct {
	events   EventStore
	teams    TeamStore
	regs     RegistrationStore
	notifier *Notifier
	qr       *qrcode.QRService
	opts     TeamOptions
	metrics  *metrics.Metrics
	log      *zap.Logger

	generateCode func() (string, error)
}

func NewTeamService(
	events EventStore,
	teams TeamStore,
	regs RegistrationStore,
	notifier *Notifier,
	qr *qrcode.QRService,
	opts TeamOptions,
	m *metrics.Metrics,
	log *zap.Logger,
) *TeamService {
	return &TeamService{
		events:       events,
		teams:        teams,
		regs:         regs,
		notifier:     notifier,
		qr:           qr,
		opts:         opts,
		metrics:      m,
		log:          log.Named("teams"),
		generateCode: utils.GenerateJoinCode,
	}
}

// CreateTeam creates a team for a team-capable event with the caller as
// leader, together with the team's single registration.
func (s *TeamService) CreateTeam(ctx context.Context, eventID uint, leaderID string, req models.CreateTeamRequest) (*models.TeamCreation, error) {
	defer s.metrics.ObserveOperation("create_team", time.Now())

	name := strings.TrimSpace(req.TeamName)
	if name == "" {
		return nil, apperror.Validation("team_name", "is required")
	}
	if !utils.IsValidPhone(req.Phone) {
		return nil, apperror.Validation("phone", "must be exactly 10 digits")
	}

	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, notFound(err, apperror.ErrEventNotFound)
	}
	if !event.RegistrationOpen {
		return nil, apperror.ErrClosed
	}
	if !event.IsTeamCapable {
		return nil, apperror.ErrNotTeamEvent
	}

	found, err := exists(s.teams.FindTeamByLeader(ctx, eventID, leaderID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.ErrTeamExists
	}

	found, err = exists(s.teams.FindMembership(ctx, eventID, leaderID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.ErrAlreadyInAnotherTeam
	}

	if s.opts.ExclusiveSoloAndTeam {
		found, err = exists(s.regs.FindSoloRegistration(ctx, models.StandardEvent(eventID), leaderID))
		if err != nil {
			return nil, err
		}
		if found {
			return nil, apperror.ErrAlreadySoloRegistered
		}
	}

	for attempt := 1; attempt <= MaxJoinCodeAttempts; attempt++ {
		code, err := s.generateCode()
		if err != nil {
			return nil, err
		}

		taken, err := s.teams.JoinCodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if taken {
			s.metrics.JoinCodeCollisions.Inc()
			continue
		}

		team := &models.Team{EventID: eventID, Name: name, JoinCode: code, CreatedBy: leaderID}
		leader := &models.TeamMember{UserID: leaderID, Role: models.TeamRoleLeader, Phone: req.Phone}
		reg := models.NewRegistration(models.Payer{}, models.StandardEvent(eventID), req.Phone, models.Applicant{})

		err = s.teams.CreateTeam(ctx, team, leader, reg)
		if constraint, ok := repository.DuplicateConstraint(err); ok {
			if constraint == repository.ConstraintTeamJoinCode {
				s.metrics.JoinCodeCollisions.Inc()
				continue
			}
			return nil, createTeamConflict(constraint, err)
		}
		if err != nil {
			return nil, err
		}

		s.metrics.TeamsCreated.Inc()
		s.metrics.RegistrationsCreated.WithLabelValues(models.ViewKindTeam).Inc()
		s.log.Info("team created",
			zap.Uint("team_id", team.ID),
			zap.Uint("event_id", eventID),
			zap.String("leader_id", leaderID),
			zap.Int("attempt", attempt))

		s.notifyTeamCreated(ctx, event, team)

		return &models.TeamCreation{Team: team, Leader: leader, Registration: reg, JoinCode: code}, nil
	}

	s.log.Warn("join code attempts exhausted", zap.Uint("event_id", eventID), zap.String("leader_id", leaderID))
	return nil, apperror.ErrExhaustedRetries
}

func createTeamConflict(constraint string, err error) error {
	switch constraint {
	case repository.ConstraintMemberEventUser, repository.ConstraintMemberTeamUser:
		return apperror.Wrap(apperror.ErrAlreadyInAnotherTeam, err)
	default:
		return apperror.Wrap(apperror.ErrTeamExists, err)
	}
}

// notifyTeamCreated mails the join code to the leader. Delivery is best
// effort: the team is already committed.
func (s *TeamService) notifyTeamCreated(ctx context.Context, event *models.Event, team *models.Team) {
	data := email.TemplateData{
		EventName: event.Name,
		TeamName:  team.Name,
		JoinCode:  team.JoinCode,
		JoinURL:   s.qr.JoinURL(team.JoinCode),
	}
	if err := s.notifier.Notify(ctx, team.CreatedBy, "Your team "+team.Name+" is ready", email.TemplateTeamCreated, data); err != nil {
		s.log.Warn("team created email failed", zap.Uint("team_id", team.ID), zap.Error(err))
	}
}

// JoinTeam adds the caller to the team identified by the join code. The
// checks run in a fixed order so each refusal has one reason.
func (s *TeamService) JoinTeam(ctx context.Context, userID string, req models.JoinTeamRequest) (member *models.TeamMember, err error) {
	defer s.metrics.ObserveOperation("join_team", time.Now())
	defer func() { s.metrics.TeamJoins.WithLabelValues(metrics.Outcome(errorCode(err))).Inc() }()

	if !utils.IsValidPhone(req.Phone) {
		return nil, apperror.Validation("phone", "must be exactly 10 digits")
	}
	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))

	team, err := s.teams.FindTeamByCode(ctx, code)
	if err != nil {
		return nil, notFound(err, apperror.ErrTeamNotFound)
	}

	event, err := s.events.GetEvent(ctx, team.EventID)
	if err != nil {
		return nil, notFound(err, apperror.ErrEventNotFound)
	}
	if !event.RegistrationOpen {
		return nil, apperror.ErrClosed
	}

	found, err := exists(s.regs.FindSoloRegistration(ctx, models.StandardEvent(team.EventID), userID))
	if err != nil {
		return nil, err
	}
	if found {
		return nil, apperror.ErrAlreadySoloRegistered
	}

	membership, err := s.teams.FindMembership(ctx, team.EventID, userID)
	switch {
	case err == nil && membership.TeamID != team.ID:
		return nil, apperror.ErrAlreadyInAnotherTeam
	case err == nil:
		return nil, apperror.ErrAlreadyMember
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	count, err := s.teams.CountMembers(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if int(count) >= event.MaxTeamSize {
		return nil, apperror.ErrTeamFull
	}

	found, err = exists(s.regs.FindTeamRegistration(ctx, team.ID))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, apperror.ErrLeaderHasNotRegistered
	}

	member = &models.TeamMember{TeamID: team.ID, UserID: userID, Role: models.TeamRoleMember, Phone: req.Phone}
	err = s.teams.AddMember(ctx, member, event.MaxTeamSize)
	if errors.Is(err, repository.ErrCapacityReached) {
		return nil, apperror.Wrap(apperror.ErrTeamFull, err)
	}
	if constraint, ok := repository.DuplicateConstraint(err); ok {
		if constraint == repository.ConstraintMemberTeamUser {
			return nil, apperror.Wrap(apperror.ErrAlreadyMember, err)
		}
		return nil, apperror.Wrap(apperror.ErrAlreadyInAnotherTeam, err)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("member joined", zap.Uint("team_id", team.ID), zap.String("user_id", userID))
	return member, nil
}

// GetTeam returns the team, its roster and its registration. Only members
// may read it.
func (s *TeamService) GetTeam(ctx context.Context, teamID uint, actorID string) (*models.TeamDetails, error) {
	details, err := s.TeamDetails(ctx, teamID)
	if err != nil {
		return nil, err
	}
	for _, m := range details.Members {
		if m.UserID == actorID {
			return details, nil
		}
	}
	return nil, apperror.ErrUnauthorized
}

// TeamDetails is GetTeam without the membership check.
func (s *TeamService) TeamDetails(ctx context.Context, teamID uint) (*models.TeamDetails, error) {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFound(err, apperror.ErrTeamNotFound)
	}
	members, err := s.teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	details := &models.TeamDetails{Team: team, Members: members}
	reg, err := s.regs.FindTeamRegistration(ctx, teamID)
	switch {
	case err == nil:
		details.Registration = reg
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}
	return details, nil
}

// JoinQR renders the team's join link as a PNG. Leader only.
func (s *TeamService) JoinQR(ctx context.Context, teamID uint, actorID string, size int) ([]byte, error) {
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return nil, notFound(err, apperror.ErrTeamNotFound)
	}
	if team.CreatedBy != actorID {
		return nil, apperror.ErrUnauthorized
	}
	return s.qr.GenerateQRCode(team.JoinCode, size)
}
