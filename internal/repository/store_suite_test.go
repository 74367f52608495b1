package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/stretchr/testify/suite"

	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
)

// store is everything the services read and write, satisfied by the
// in-memory store and by the Postgres repositories together.
type store interface {
	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	UpdateEvent(ctx context.Context, id uint, patch models.EventPatch) error
	UpdateMUNEvent(ctx context.Context, id uint, patch models.EventPatch) error
	CreateMUNEvent(ctx context.Context, event *models.MUNEvent) error
	GetMUNEvent(ctx context.Context, id uint) (*models.MUNEvent, error)

	GetTeam(ctx context.Context, id uint) (*models.Team, error)
	FindTeamByCode(ctx context.Context, code string) (*models.Team, error)
	FindTeamByLeader(ctx context.Context, eventID uint, leaderID string) (*models.Team, error)
	FindMembership(ctx context.Context, eventID uint, userID string) (*models.TeamMember, error)
	JoinCodeExists(ctx context.Context, code string) (bool, error)
	CreateTeam(ctx context.Context, team *models.Team, leader *models.TeamMember, reg *models.Registration) error
	AddMember(ctx context.Context, member *models.TeamMember, maxSize int) error
	CountMembers(ctx context.Context, teamID uint) (int64, error)
	ListMembers(ctx context.Context, teamID uint) ([]models.TeamMember, error)

	CreateRegistration(ctx context.Context, reg *models.Registration) error
	GetRegistration(ctx context.Context, id uint) (*models.Registration, error)
	FindSoloRegistration(ctx context.Context, event models.EventRef, userID string) (*models.Registration, error)
	FindTeamRegistration(ctx context.Context, teamID uint) (*models.Registration, error)
	ListForUser(ctx context.Context, userID string) ([]models.Registration, error)
	SetPaymentProof(ctx context.Context, id uint, url string) error
	CompareAndSetStatus(ctx context.Context, id uint, field models.StatusField, from, to models.Status) error
	ListViews(ctx context.Context, filter models.RegistrationFilter) ([]models.RegistrationView, error)

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, user models.CurrentUser) (*models.Profile, error)
}

// StoreSuite holds the behaviour both store implementations must share.
type StoreSuite struct {
	suite.Suite
	reset func() store
	store store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.reset()
}

func (s *StoreSuite) teamEvent(maxSize int) *models.Event {
	fee := int64(500)
	ev := &models.Event{
		Name:             "Hackathon",
		Fee:              &fee,
		IsTeamCapable:    true,
		MinTeamSize:      1,
		MaxTeamSize:      maxSize,
		RegistrationOpen: true,
	}
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))
	return ev
}

func (s *StoreSuite) createTeam(ev *models.Event, leader, code string) (*models.Team, *models.Registration) {
	team := &models.Team{EventID: ev.ID, Name: "Team " + leader, JoinCode: code, CreatedBy: leader}
	member := &models.TeamMember{UserID: leader, Role: models.TeamRoleLeader, Phone: "9876543210"}
	reg := models.NewRegistration(models.Payer{}, models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
	s.Require().NoError(s.store.CreateTeam(s.ctx, team, member, reg))
	return team, reg
}

func (s *StoreSuite) requireDuplicate(err error, constraint string) {
	s.Require().Error(err)
	got, ok := repository.DuplicateConstraint(err)
	s.Require().True(ok, "expected duplicate error, got %v", err)
	if constraint != "" {
		s.Equal(constraint, got)
	}
}

func (s *StoreSuite) TestSoloRegistrationIsUniquePerEvent() {
	ev := s.teamEvent(4)

	first := models.NewRegistration(models.SoloPayer("u1"), models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
	s.Require().NoError(s.store.CreateRegistration(s.ctx, first))
	s.NotZero(first.ID)
	s.False(first.RegisteredAt.IsZero())

	again := models.NewRegistration(models.SoloPayer("u1"), models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
	s.requireDuplicate(s.store.CreateRegistration(s.ctx, again), repository.ConstraintRegistrationEventUser)

	found, err := s.store.FindSoloRegistration(s.ctx, models.StandardEvent(ev.ID), "u1")
	s.Require().NoError(err)
	s.Equal(first.ID, found.ID)
	uid, ok := found.Payer.UserID()
	s.True(ok)
	s.Equal("u1", uid)
}

func (s *StoreSuite) TestMUNRegistrationIsUniquePerCommittee() {
	mun := &models.MUNEvent{Name: "AIPPM", RegistrationOpen: true}
	s.Require().NoError(s.store.CreateMUNEvent(s.ctx, mun))
	s.Equal(models.MUNSubtypeDualPortfolio, mun.Subtype)

	applicant := models.Applicant{Institute: "IIT", Qualification: "BTech", PortfolioPreference1: "A", PortfolioPreference2: "B"}
	reg := models.NewRegistration(models.SoloPayer("u1"), models.MUNEventRef(mun.ID), "9876543210", applicant)
	s.Require().NoError(s.store.CreateRegistration(s.ctx, reg))

	again := models.NewRegistration(models.SoloPayer("u1"), models.MUNEventRef(mun.ID), "9876543210", applicant)
	s.requireDuplicate(s.store.CreateRegistration(s.ctx, again), repository.ConstraintRegistrationMUNUser)

	stored, err := s.store.GetRegistration(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.True(stored.Event.IsMUN())
	s.Equal("B", stored.Applicant.PortfolioPreference2)
}

func (s *StoreSuite) TestCreateTeamWritesTeamLeaderAndRegistration() {
	ev := s.teamEvent(4)
	team, reg := s.createTeam(ev, "leader", "K7M4QX")

	s.NotZero(team.ID)
	teamID, ok := reg.Payer.TeamID()
	s.Require().True(ok)
	s.Equal(team.ID, teamID)
	s.Equal(models.PaymentPending, reg.PaymentStatus)

	members, err := s.store.ListMembers(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Require().Len(members, 1)
	s.Equal(models.TeamRoleLeader, members[0].Role)
	s.Equal(ev.ID, members[0].EventID)

	byCode, err := s.store.FindTeamByCode(s.ctx, "K7M4QX")
	s.Require().NoError(err)
	s.Equal(team.ID, byCode.ID)

	byLeader, err := s.store.FindTeamByLeader(s.ctx, ev.ID, "leader")
	s.Require().NoError(err)
	s.Equal(team.ID, byLeader.ID)

	exists, err := s.store.JoinCodeExists(s.ctx, "K7M4QX")
	s.Require().NoError(err)
	s.True(exists)

	teamReg, err := s.store.FindTeamRegistration(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(reg.ID, teamReg.ID)
}

func (s *StoreSuite) TestCreateTeamRejectsDuplicates() {
	ev := s.teamEvent(4)
	s.createTeam(ev, "leader", "AAAAAA")

	team := &models.Team{EventID: ev.ID, Name: "Again", JoinCode: "BBBBBB", CreatedBy: "leader"}
	leader := &models.TeamMember{UserID: "leader", Role: models.TeamRoleLeader}
	reg := models.NewRegistration(models.Payer{}, models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
	s.requireDuplicate(s.store.CreateTeam(s.ctx, team, leader, reg), repository.ConstraintTeamEventCreator)

	team = &models.Team{EventID: ev.ID, Name: "Clash", JoinCode: "AAAAAA", CreatedBy: "other"}
	leader = &models.TeamMember{UserID: "other", Role: models.TeamRoleLeader}
	reg = models.NewRegistration(models.Payer{}, models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
	s.requireDuplicate(s.store.CreateTeam(s.ctx, team, leader, reg), repository.ConstraintTeamJoinCode)

	_, err := s.store.FindTeamByLeader(s.ctx, ev.ID, "other")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestAddMemberEnforcesCapacityAndOneTeamPerEvent() {
	ev := s.teamEvent(2)
	team, _ := s.createTeam(ev, "leader", "CCCCCC")
	other, _ := s.createTeam(ev, "rival", "DDDDDD")

	s.Require().NoError(s.store.AddMember(s.ctx, &models.TeamMember{TeamID: team.ID, UserID: "b", Role: models.TeamRoleMember}, ev.MaxTeamSize))

	err := s.store.AddMember(s.ctx, &models.TeamMember{TeamID: team.ID, UserID: "c", Role: models.TeamRoleMember}, ev.MaxTeamSize)
	s.ErrorIs(err, repository.ErrCapacityReached)

	err = s.store.AddMember(s.ctx, &models.TeamMember{TeamID: other.ID, UserID: "b", Role: models.TeamRoleMember}, ev.MaxTeamSize)
	s.requireDuplicate(err, repository.ConstraintMemberEventUser)

	count, err := s.store.CountMembers(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), count)

	membership, err := s.store.FindMembership(s.ctx, ev.ID, "b")
	s.Require().NoError(err)
	s.Equal(team.ID, membership.TeamID)
}

func (s *StoreSuite) TestSetPaymentProofOnlyOnce() {
	ev := s.teamEvent(4)
	_, reg := s.createTeam(ev, "leader", "EEEEEE")

	s.Require().NoError(s.store.SetPaymentProof(s.ctx, reg.ID, "https://cdn/first.png"))
	err := s.store.SetPaymentProof(s.ctx, reg.ID, "https://cdn/second.png")
	s.ErrorIs(err, repository.ErrStaleState)

	stored, err := s.store.GetRegistration(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentVerified, stored.PaymentStatus)
	s.Require().NotNil(stored.PaymentProofURL)
	s.Equal("https://cdn/first.png", *stored.PaymentProofURL)
	s.Equal(models.StatusPending, stored.Status)

	s.ErrorIs(s.store.SetPaymentProof(s.ctx, 9999, "x"), repository.ErrNotFound)
}

func (s *StoreSuite) TestCompareAndSetStatus() {
	ev := s.teamEvent(4)
	_, reg := s.createTeam(ev, "leader", "FFFFFF")

	s.Require().NoError(s.store.CompareAndSetStatus(s.ctx, reg.ID, models.FieldPaymentVerification, models.StatusPending, models.StatusVerified))
	err := s.store.CompareAndSetStatus(s.ctx, reg.ID, models.FieldPaymentVerification, models.StatusPending, models.StatusRejected)
	s.ErrorIs(err, repository.ErrStaleState)

	stored, err := s.store.GetRegistration(s.ctx, reg.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, stored.PaymentVerification)
	s.Equal(models.StatusPending, stored.Status)

	err = s.store.CompareAndSetStatus(s.ctx, 9999, models.FieldStatus, models.StatusPending, models.StatusVerified)
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestListForUserIncludesTeamRegistrations() {
	ev := s.teamEvent(4)
	solo := s.teamEvent(1)
	team, teamReg := s.createTeam(ev, "leader", "GGGGGG")
	s.Require().NoError(s.store.AddMember(s.ctx, &models.TeamMember{TeamID: team.ID, UserID: "b", Role: models.TeamRoleMember}, 4))

	soloReg := models.NewRegistration(models.SoloPayer("b"), models.StandardEvent(solo.ID), "9876543210", models.Applicant{})
	s.Require().NoError(s.store.CreateRegistration(s.ctx, soloReg))

	regs, err := s.store.ListForUser(s.ctx, "b")
	s.Require().NoError(err)
	ids := []uint{}
	for _, r := range regs {
		ids = append(ids, r.ID)
	}
	s.ElementsMatch([]uint{teamReg.ID, soloReg.ID}, ids)

	regs, err = s.store.ListForUser(s.ctx, "stranger")
	s.Require().NoError(err)
	s.Empty(regs)
}

func (s *StoreSuite) TestListViewsJoinsPayerAndTeam() {
	ev := s.teamEvent(4)
	_, err := s.store.EnsureProfile(s.ctx, models.CurrentUser{ID: "leader", Email: "leader@example.com", FullName: "Lea Leader"})
	s.Require().NoError(err)
	_, err = s.store.EnsureProfile(s.ctx, models.CurrentUser{ID: "solo", Email: "solo@example.com", FullName: "Sol Solo"})
	s.Require().NoError(err)

	team, _ := s.createTeam(ev, "leader", "HHHHHH")
	s.Require().NoError(s.store.AddMember(s.ctx, &models.TeamMember{TeamID: team.ID, UserID: "b", Role: models.TeamRoleMember}, 4))

	free := s.teamEvent(1)
	soloReg := models.NewRegistration(models.SoloPayer("solo"), models.StandardEvent(free.ID), "9123456789", models.Applicant{})
	s.Require().NoError(s.store.CreateRegistration(s.ctx, soloReg))

	views, err := s.store.ListViews(s.ctx, models.RegistrationFilter{Kind: models.ViewKindTeam})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("Team leader", views[0].TeamName)
	s.Equal("HHHHHH", views[0].JoinCode)
	s.Equal(2, views[0].MemberCount)
	s.Equal("leader@example.com", views[0].PayerEmail)
	s.Equal("Lea Leader", views[0].PayerName)
	s.Equal("Hackathon", views[0].EventName)

	views, err = s.store.ListViews(s.ctx, models.RegistrationFilter{Search: "SOLO@"})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal(models.ViewKindSolo, views[0].Kind)

	views, err = s.store.ListViews(s.ctx, models.RegistrationFilter{Search: "sol solo"})
	s.Require().NoError(err)
	s.Require().Len(views, 1)
	s.Equal("Sol Solo", views[0].PayerName)

	views, err = s.store.ListViews(s.ctx, models.RegistrationFilter{Limit: 1})
	s.Require().NoError(err)
	s.Len(views, 1)
}

func (s *StoreSuite) TestEnsureProfileKeepsRole() {
	p, err := s.store.EnsureProfile(s.ctx, models.CurrentUser{ID: "u1", Email: "old@example.com"})
	s.Require().NoError(err)
	s.Equal(models.RoleParticipant, p.Role)

	p, err = s.store.EnsureProfile(s.ctx, models.CurrentUser{ID: "u1", Email: "new@example.com", FullName: "Uma One"})
	s.Require().NoError(err)
	s.Equal("new@example.com", p.Email)
	s.Equal("Uma One", p.FullName)

	// A token without a name keeps the stored one.
	p, err = s.store.EnsureProfile(s.ctx, models.CurrentUser{ID: "u1", Email: "new@example.com"})
	s.Require().NoError(err)
	s.Equal("Uma One", p.FullName)

	_, err = s.store.GetProfile(s.ctx, "missing")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *StoreSuite) TestUpdateEventPersistsOpenAndFee() {
	ev := s.teamEvent(4)
	closed := false
	s.Require().NoError(s.store.UpdateEvent(s.ctx, ev.ID, models.EventPatch{RegistrationOpen: &closed}))
	s.Require().NoError(s.store.UpdateEvent(s.ctx, ev.ID, models.EventPatch{SetFee: true}))

	stored, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.False(stored.RegistrationOpen)
	s.False(stored.IsPaid())

	s.ErrorIs(s.store.UpdateEvent(s.ctx, 9999, models.EventPatch{RegistrationOpen: &closed}), repository.ErrNotFound)
}

func (s *StoreSuite) TestFeeUpdateLeavesRegistrationOpenAlone() {
	ev := s.teamEvent(4)
	stale := *ev

	closed := false
	s.Require().NoError(s.store.UpdateEvent(s.ctx, ev.ID, models.EventPatch{RegistrationOpen: &closed}))

	// A fee change built from a copy read before the close.
	fee := int64(900)
	s.Require().True(stale.RegistrationOpen)
	s.Require().NoError(s.store.UpdateEvent(s.ctx, stale.ID, models.EventPatch{Fee: &fee, SetFee: true}))

	stored, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.False(stored.RegistrationOpen)
	s.Require().NotNil(stored.Fee)
	s.Equal(int64(900), *stored.Fee)

	mun := &models.MUNEvent{Name: "UNHRC", RegistrationOpen: true}
	s.Require().NoError(s.store.CreateMUNEvent(s.ctx, mun))
	s.Require().NoError(s.store.UpdateMUNEvent(s.ctx, mun.ID, models.EventPatch{RegistrationOpen: &closed}))
	s.Require().NoError(s.store.UpdateMUNEvent(s.ctx, mun.ID, models.EventPatch{Fee: &fee, SetFee: true}))

	storedMUN, err := s.store.GetMUNEvent(s.ctx, mun.ID)
	s.Require().NoError(err)
	s.False(storedMUN.RegistrationOpen)
	s.True(storedMUN.IsPaid())
}

func (s *StoreSuite) TestCreateClosedEventStaysClosed() {
	ev := &models.Event{Name: "Closed Quiz", MinTeamSize: 1, MaxTeamSize: 1, RegistrationOpen: false}
	s.Require().NoError(s.store.CreateEvent(s.ctx, ev))

	stored, err := s.store.GetEvent(s.ctx, ev.ID)
	s.Require().NoError(err)
	s.False(stored.RegistrationOpen)

	mun := &models.MUNEvent{Name: "WHO", RegistrationOpen: false}
	s.Require().NoError(s.store.CreateMUNEvent(s.ctx, mun))

	storedMUN, err := s.store.GetMUNEvent(s.ctx, mun.ID)
	s.Require().NoError(err)
	s.False(storedMUN.RegistrationOpen)
}

// TestConcurrentSoloRegistration verifies that concurrent registrations for
// the same user and event result in exactly one success.
func (s *StoreSuite) TestConcurrentSoloRegistration() {
	ev := s.teamEvent(4)
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg := models.NewRegistration(models.SoloPayer("racer"), models.StandardEvent(ev.ID), "9876543210", models.Applicant{})
			err := s.store.CreateRegistration(context.Background(), reg)
			var dup *repository.DuplicateError
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.As(err, &dup):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one registration should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load(), "all others should conflict")
}

// TestConcurrentJoinsRespectCapacity verifies that a team never grows past
// its maximum size when many users join at once.
func (s *StoreSuite) TestConcurrentJoinsRespectCapacity() {
	ev := s.teamEvent(3)
	team, _ := s.createTeam(ev, "leader", "JJJJJJ")
	const goroutines = 10

	var wg sync.WaitGroup
	var joined, full atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			member := &models.TeamMember{TeamID: team.ID, UserID: fmt.Sprintf("joiner-%d", i), Role: models.TeamRoleMember}
			err := s.store.AddMember(context.Background(), member, ev.MaxTeamSize)
			switch {
			case err == nil:
				joined.Add(1)
			case errors.Is(err, repository.ErrCapacityReached):
				full.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(2), joined.Load())
	s.Equal(int32(goroutines-2), full.Load())

	count, err := s.store.CountMembers(s.ctx, team.ID)
	s.Require().NoError(err)
	s.Equal(int64(3), count)
}
