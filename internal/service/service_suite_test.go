package service_test

import (
	"context"
	"strings"
	"sync"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/internal/service/mocks"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/qrcode"
	"github.com/sefazor/festival-backend/pkg/report"
	"github.com/sefazor/festival-backend/pkg/storage"
)

const (
	adminID   = "admin"
	testPhone = "9876543210"
)

// pngProof is the smallest payload mimetype recognises as a PNG.
var pngProof = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

// EngineSuite wires every service against the in-memory store and a
// recording mock mailer.
type EngineSuite struct {
	suite.Suite

	ctx   context.Context
	ctrl  *gomock.Controller
	store *repository.MemoryStore
	blobs *storage.MemoryStorage

	mailer  *mocks.MockMailer
	mailMu  sync.Mutex
	mails   []sentMail
	mailErr error

	notifier *service.Notifier
	events   *service.EventService
	teams    *service.TeamService
	regs     *service.RegistrationService
	payments *service.PaymentService
	admin    *service.AdminService
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.store = repository.NewMemoryStore()
	s.blobs = storage.NewMemoryStorage("https://files.example.com")
	s.mails = nil
	s.mailErr = nil

	s.mailer = mocks.NewMockMailer(s.ctrl)
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, to, subject, html string) error {
			s.mailMu.Lock()
			defer s.mailMu.Unlock()
			if s.mailErr != nil {
				return s.mailErr
			}
			s.mails = append(s.mails, sentMail{To: to, Subject: subject, HTML: html})
			return nil
		}).AnyTimes()

	renderer, err := email.NewRenderer("Spring Fest", "https://fest.example.com")
	s.Require().NoError(err)

	log := zap.NewNop()
	m := metrics.NewNop()
	s.notifier = service.NewNotifier(s.mailer, renderer, s.store, m, log)
	s.events = service.NewEventService(s.store, log)
	s.teams = service.NewTeamService(s.store, s.store, s.store, s.notifier,
		qrcode.NewQRService("https://fest.example.com"), service.TeamOptions{}, m, log)
	s.regs = service.NewRegistrationService(s.store, s.store, s.store, s.notifier, m, log)
	s.payments = service.NewPaymentService(s.store, s.store, s.store, s.blobs, s.notifier, m, log)
	s.admin = service.NewAdminService(s.store, s.teams, s.store, s.store, s.store, s.notifier, report.NewExporter(), m, log)

	s.store.SaveProfile(models.Profile{ID: adminID, Email: "admin@example.com", FullName: "Admin", Role: models.RoleAdmin})
}

// user seeds a participant profile so notifications have an address.
func (s *EngineSuite) user(id string) string {
	s.store.SaveProfile(models.Profile{ID: id, Email: id + "@example.com", FullName: strings.ToUpper(id[:1]) + id[1:]})
	return id
}

func (s *EngineSuite) users(ids ...string) {
	for _, id := range ids {
		s.user(id)
	}
}

func fee(v int64) *int64 { return &v }

func (s *EngineSuite) soloEvent(name string, f *int64) *models.Event {
	ev, err := s.events.CreateEvent(s.ctx, models.CreateEventRequest{Name: name, Fee: f})
	s.Require().NoError(err)
	return ev
}

func (s *EngineSuite) teamEvent(name string, f *int64, minSize, maxSize int) *models.Event {
	ev, err := s.events.CreateEvent(s.ctx, models.CreateEventRequest{
		Name:          name,
		Fee:           f,
		IsTeamCapable: true,
		MinTeamSize:   minSize,
		MaxTeamSize:   maxSize,
	})
	s.Require().NoError(err)
	return ev
}

func (s *EngineSuite) munEvent(name string, f *int64) *models.MUNEvent {
	ev, err := s.events.CreateMUNEvent(s.ctx, models.CreateMUNEventRequest{Name: name, Fee: f})
	s.Require().NoError(err)
	return ev
}

func (s *EngineSuite) createTeam(ev *models.Event, leader, name string) *models.TeamCreation {
	created, err := s.teams.CreateTeam(s.ctx, ev.ID, leader, models.CreateTeamRequest{TeamName: name, Phone: testPhone})
	s.Require().NoError(err)
	return created
}

func (s *EngineSuite) join(code, userID string) error {
	_, err := s.teams.JoinTeam(s.ctx, userID, models.JoinTeamRequest{JoinCode: code, Phone: testPhone})
	return err
}

func (s *EngineSuite) registerSolo(ev *models.Event, userID string) *models.Registration {
	reg, err := s.regs.RegisterSolo(s.ctx, models.StandardEvent(ev.ID), userID, testPhone, models.Applicant{})
	s.Require().NoError(err)
	return reg
}

// sent returns the mails whose subject starts with prefix.
func (s *EngineSuite) sent(prefix string) []sentMail {
	s.mailMu.Lock()
	defer s.mailMu.Unlock()

	var out []sentMail
	for _, m := range s.mails {
		if strings.HasPrefix(m.Subject, prefix) {
			out = append(out, m)
		}
	}
	return out
}

func (s *EngineSuite) failMail(err error) {
	s.mailMu.Lock()
	defer s.mailMu.Unlock()
	s.mailErr = err
}
