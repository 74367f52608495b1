package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sefazor/festival-backend/internal/models"
)

// MemoryStore keeps every table in process memory. It enforces the same
// unique indexes and capacity rule as the Postgres schema and reports
// violations under the same constraint names. Used with STORE_DRIVER=memory
// and in tests.
type MemoryStore struct {
	mu sync.Mutex

	now func() time.Time

	events        map[uint]models.Event
	munEvents     map[uint]models.MUNEvent
	teams         map[uint]models.Team
	members       map[uint]models.TeamMember
	registrations map[uint]models.Registration
	profiles      map[string]models.Profile

	nextEventID        uint
	nextMUNEventID     uint
	nextTeamID         uint
	nextMemberID       uint
	nextRegistrationID uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:           time.Now,
		events:        make(map[uint]models.Event),
		munEvents:     make(map[uint]models.MUNEvent),
		teams:         make(map[uint]models.Team),
		members:       make(map[uint]models.TeamMember),
		registrations: make(map[uint]models.Registration),
		profiles:      make(map[string]models.Profile),
	}
}

func duplicate(constraint string) error {
	return &DuplicateError{Constraint: constraint}
}

// Events

func (s *MemoryStore) CreateEvent(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextEventID++
	now := s.now()
	event.ID = s.nextEventID
	event.CreatedAt, event.UpdatedAt = now, now
	s.events[event.ID] = *event
	return nil
}

func (s *MemoryStore) GetEvent(_ context.Context, id uint) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (s *MemoryStore) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.Event, 0, len(s.events))
	for _, e := range s.events {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (s *MemoryStore) UpdateEvent(_ context.Context, id uint, patch models.EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&stored.RegistrationOpen, &stored.Fee)
	stored.UpdatedAt = s.now()
	s.events[id] = stored
	return nil
}

func (s *MemoryStore) CreateMUNEvent(_ context.Context, event *models.MUNEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextMUNEventID++
	now := s.now()
	event.ID = s.nextMUNEventID
	event.Classify()
	event.CreatedAt, event.UpdatedAt = now, now
	s.munEvents[event.ID] = *event
	return nil
}

func (s *MemoryStore) GetMUNEvent(_ context.Context, id uint) (*models.MUNEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.munEvents[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &event, nil
}

func (s *MemoryStore) ListMUNEvents(_ context.Context) ([]models.MUNEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]models.MUNEvent, 0, len(s.munEvents))
	for _, e := range s.munEvents {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (s *MemoryStore) UpdateMUNEvent(_ context.Context, id uint, patch models.EventPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.munEvents[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&stored.RegistrationOpen, &stored.Fee)
	stored.UpdatedAt = s.now()
	s.munEvents[id] = stored
	return nil
}

// Teams

func (s *MemoryStore) GetTeam(_ context.Context, id uint) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &team, nil
}

func (s *MemoryStore) FindTeamByCode(_ context.Context, code string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.JoinCode == code {
			team := t
			return &team, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTeamByLeader(_ context.Context, eventID uint, leaderID string) (*models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.EventID == eventID && t.CreatedBy == leaderID {
			team := t
			return &team, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindMembership(_ context.Context, eventID uint, userID string) (*models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.members {
		if m.EventID == eventID && m.UserID == userID {
			member := m
			return &member, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) JoinCodeExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, team *models.Team, leader *models.TeamMember, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.teams {
		if t.JoinCode == team.JoinCode {
			return duplicate(ConstraintTeamJoinCode)
		}
		if t.EventID == team.EventID && t.CreatedBy == team.CreatedBy {
			return duplicate(ConstraintTeamEventCreator)
		}
	}
	if err := s.checkMemberLocked(team.EventID, 0, leader.UserID); err != nil {
		return err
	}

	now := s.now()
	s.nextTeamID++
	team.ID = s.nextTeamID
	team.CreatedAt = now

	s.nextMemberID++
	leader.ID = s.nextMemberID
	leader.TeamID = team.ID
	leader.EventID = team.EventID
	leader.JoinedAt = now

	reg.Payer = models.TeamPayer(team.ID)
	s.nextRegistrationID++
	reg.ID = s.nextRegistrationID
	reg.RegisteredAt, reg.UpdatedAt = now, now

	s.teams[team.ID] = *team
	s.members[leader.ID] = *leader
	s.registrations[reg.ID] = *reg
	return nil
}

func (s *MemoryStore) checkMemberLocked(eventID, teamID uint, userID string) error {
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		if teamID != 0 && m.TeamID == teamID {
			return duplicate(ConstraintMemberTeamUser)
		}
		if m.EventID == eventID {
			return duplicate(ConstraintMemberEventUser)
		}
	}
	return nil
}

func (s *MemoryStore) AddMember(_ context.Context, member *models.TeamMember, maxSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[member.TeamID]
	if !ok {
		return ErrNotFound
	}
	if s.countMembersLocked(team.ID) >= maxSize {
		return ErrCapacityReached
	}
	if err := s.checkMemberLocked(team.EventID, team.ID, member.UserID); err != nil {
		return err
	}

	s.nextMemberID++
	member.ID = s.nextMemberID
	member.EventID = team.EventID
	member.JoinedAt = s.now()
	s.members[member.ID] = *member
	return nil
}

func (s *MemoryStore) countMembersLocked(teamID uint) int {
	n := 0
	for _, m := range s.members {
		if m.TeamID == teamID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) CountMembers(_ context.Context, teamID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return int64(s.countMembersLocked(teamID)), nil
}

func (s *MemoryStore) ListMembers(_ context.Context, teamID uint) ([]models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listMembersLocked(teamID), nil
}

func (s *MemoryStore) listMembersLocked(teamID uint) []models.TeamMember {
	members := make([]models.TeamMember, 0)
	for _, m := range s.members {
		if m.TeamID == teamID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

// Registrations

func (s *MemoryStore) CreateRegistration(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRegistrationLocked(reg); err != nil {
		return err
	}

	now := s.now()
	s.nextRegistrationID++
	reg.ID = s.nextRegistrationID
	reg.RegisteredAt, reg.UpdatedAt = now, now
	s.registrations[reg.ID] = *reg
	return nil
}

func (s *MemoryStore) checkRegistrationLocked(reg *models.Registration) error {
	userID, solo := reg.Payer.UserID()
	teamID, _ := reg.Payer.TeamID()
	for _, r := range s.registrations {
		if !solo {
			if id, ok := r.Payer.TeamID(); ok && id == teamID {
				return duplicate(ConstraintRegistrationTeam)
			}
			continue
		}
		if id, ok := r.Payer.UserID(); !ok || id != userID || r.Event != reg.Event {
			continue
		}
		if reg.Event.IsMUN() {
			return duplicate(ConstraintRegistrationMUNUser)
		}
		return duplicate(ConstraintRegistrationEventUser)
	}
	return nil
}

func (s *MemoryStore) GetRegistration(_ context.Context, id uint) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reg, nil
}

func (s *MemoryStore) FindSoloRegistration(_ context.Context, event models.EventRef, userID string) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.registrations {
		if id, ok := r.Payer.UserID(); ok && id == userID && r.Event == event {
			reg := r
			return &reg, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindTeamRegistration(_ context.Context, teamID uint) (*models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.registrations {
		if id, ok := r.Payer.TeamID(); ok && id == teamID {
			reg := r
			return &reg, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListForUser(_ context.Context, userID string) ([]models.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	teams := make(map[uint]bool)
	for _, m := range s.members {
		if m.UserID == userID {
			teams[m.TeamID] = true
		}
	}

	regs := make([]models.Registration, 0)
	for _, r := range s.registrations {
		if id, ok := r.Payer.UserID(); ok && id == userID {
			regs = append(regs, r)
			continue
		}
		if id, ok := r.Payer.TeamID(); ok && teams[id] {
			regs = append(regs, r)
		}
	}
	sortNewestFirst(regs)
	return regs, nil
}

func sortNewestFirst(regs []models.Registration) {
	sort.Slice(regs, func(i, j int) bool {
		if !regs[i].RegisteredAt.Equal(regs[j].RegisteredAt) {
			return regs[i].RegisteredAt.After(regs[j].RegisteredAt)
		}
		return regs[i].ID > regs[j].ID
	})
}

func (s *MemoryStore) SetPaymentProof(_ context.Context, id uint, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok {
		return ErrNotFound
	}
	if reg.PaymentStatus == models.PaymentVerified {
		return ErrStaleState
	}
	reg.PaymentProofURL = &url
	reg.PaymentStatus = models.PaymentVerified
	reg.UpdatedAt = s.now()
	s.registrations[id] = reg
	return nil
}

func (s *MemoryStore) CompareAndSetStatus(_ context.Context, id uint, field models.StatusField, from, to models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.registrations[id]
	if !ok {
		return ErrNotFound
	}
	if reg.StatusOf(field) != from {
		return ErrStaleState
	}
	reg.SetStatus(field, to)
	reg.UpdatedAt = s.now()
	s.registrations[id] = reg
	return nil
}

func (s *MemoryStore) ListViews(_ context.Context, filter models.RegistrationFilter) ([]models.RegistrationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	regs := make([]models.Registration, 0, len(s.registrations))
	for _, r := range s.registrations {
		regs = append(regs, r)
	}
	sortNewestFirst(regs)

	views := make([]models.RegistrationView, 0)
	for i := range regs {
		view := s.viewLocked(&regs[i])
		if !matchesFilter(view, filter) {
			continue
		}
		views = append(views, view)
	}

	if filter.Offset > 0 {
		if filter.Offset >= len(views) {
			return []models.RegistrationView{}, nil
		}
		views = views[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(views) {
		views = views[:filter.Limit]
	}
	return views, nil
}

func (s *MemoryStore) viewLocked(reg *models.Registration) models.RegistrationView {
	view := models.RegistrationView{Registration: *reg, Kind: viewKind(reg)}

	if reg.Event.IsMUN() {
		view.EventName = s.munEvents[reg.Event.ID()].Name
	} else {
		view.EventName = s.events[reg.Event.ID()].Name
	}

	payerID, _ := reg.Payer.UserID()
	if teamID, ok := reg.Payer.TeamID(); ok {
		team := s.teams[teamID]
		view.TeamName = team.Name
		view.JoinCode = team.JoinCode
		view.LeaderID = team.CreatedBy
		view.MemberCount = s.countMembersLocked(teamID)
		payerID = team.CreatedBy
	}
	if p, ok := s.profiles[payerID]; ok {
		view.PayerEmail = p.Email
		view.PayerName = p.FullName
	}
	return view
}

func matchesFilter(v models.RegistrationView, f models.RegistrationFilter) bool {
	if f.EventID != nil && (v.Event.IsMUN() || v.Event.ID() != *f.EventID) {
		return false
	}
	if f.MUNEventID != nil && (!v.Event.IsMUN() || v.Event.ID() != *f.MUNEventID) {
		return false
	}
	if f.Kind != "" && v.Kind != f.Kind {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.PaymentStatus != "" && v.PaymentStatus != f.PaymentStatus {
		return false
	}
	if f.PaymentVerification != "" && v.PaymentVerification != f.PaymentVerification {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		found := false
		for _, hay := range []string{v.PayerEmail, v.PayerName, v.TeamName, v.Phone} {
			if strings.Contains(strings.ToLower(hay), needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Profiles

func (s *MemoryStore) GetProfile(_ context.Context, id string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) EnsureProfile(_ context.Context, user models.CurrentUser) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p, ok := s.profiles[user.ID]
	if !ok {
		p = models.Profile{ID: user.ID, Role: models.RoleParticipant, CreatedAt: now}
	}
	p.Email = user.Email
	if user.FullName != "" {
		p.FullName = user.FullName
	}
	p.UpdatedAt = now
	s.profiles[user.ID] = p
	return &p, nil
}

// SaveProfile inserts or replaces a profile, role included.
func (s *MemoryStore) SaveProfile(profile models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if profile.Role == "" {
		profile.Role = models.RoleParticipant
	}
	s.profiles[profile.ID] = profile
}
