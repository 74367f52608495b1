package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/handler"
	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/middleware"
	"github.com/sefazor/festival-backend/internal/models"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/internal/service"
	"github.com/sefazor/festival-backend/pkg/email"
	"github.com/sefazor/festival-backend/pkg/jwt"
	"github.com/sefazor/festival-backend/pkg/qrcode"
	"github.com/sefazor/festival-backend/pkg/report"
	"github.com/sefazor/festival-backend/pkg/storage"
	"github.com/sefazor/festival-backend/pkg/utils"
)

var pngProof = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Field   string          `json:"field"`
	Warning string          `json:"warning"`
	Data    json.RawMessage `json:"data"`
}

type HandlerSuite struct {
	suite.Suite

	app    *fiber.App
	store  *repository.MemoryStore
	tokens *jwt.Manager
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := zap.NewNop()
	m := metrics.NewNop()
	s.store = repository.NewMemoryStore()

	var err error
	s.tokens, err = jwt.NewManager("test-secret")
	s.Require().NoError(err)

	renderer, err := email.NewRenderer("Spring Fest", "https://fest.example.com")
	s.Require().NoError(err)
	notifier := service.NewNotifier(email.NewLogSender(log), renderer, s.store, m, log)
	validator := utils.NewValidator()

	events := service.NewEventService(s.store, log)
	teams := service.NewTeamService(s.store, s.store, s.store, notifier,
		qrcode.NewQRService("https://fest.example.com"), service.TeamOptions{}, m, log)
	regs := service.NewRegistrationService(s.store, s.store, s.store, notifier, m, log)
	payments := service.NewPaymentService(s.store, s.store, s.store,
		storage.NewMemoryStorage("https://files.example.com"), notifier, m, log)
	admin := service.NewAdminService(s.store, teams, s.store, s.store, s.store, notifier, report.NewExporter(), m, log)

	s.app = fiber.New()
	handler.RegisterRoutes(s.app.Group("/api"), &handler.Handlers{
		Event:        handler.NewEventHandler(events, validator, log),
		Team:         handler.NewTeamHandler(teams, validator, log),
		Registration: handler.NewRegistrationHandler(regs, validator, log),
		Payment:      handler.NewPaymentHandler(payments, log),
		Admin:        handler.NewAdminHandler(admin, validator, log),
		User:         handler.NewUserHandler(s.store, log),
	},
		middleware.AuthMiddleware(s.tokens, s.store, log),
		middleware.RequireAdmin(admin, log))

	s.store.SaveProfile(models.Profile{ID: "admin", Email: "admin@example.com", Role: models.RoleAdmin})
}

func (s *HandlerSuite) token(userID string) string {
	token, err := s.tokens.GenerateToken(userID, userID+"@example.com", "Member "+userID, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *HandlerSuite) do(method, path, userID string, body interface{}) (*http.Response, envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if userID != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(userID))
	}
	return s.send(req)
}

func (s *HandlerSuite) send(req *http.Request) (*http.Response, envelope) {
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (s *HandlerSuite) decode(env envelope, out interface{}) {
	s.Require().NoError(json.Unmarshal(env.Data, out))
}

func (s *HandlerSuite) createEvent(req models.CreateEventRequest) models.Event {
	resp, env := s.do(http.MethodPost, "/api/admin/events", "admin", req)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var ev models.Event
	s.decode(env, &ev)
	return ev
}

func (s *HandlerSuite) TestCatalogIsPublic() {
	fee := int64(100)
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz", Fee: &fee})

	resp, env := s.do(http.MethodGet, "/api/events", "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	var events []models.Event
	s.decode(env, &events)
	s.Len(events, 1)

	resp, _ = s.do(http.MethodGet, fmt.Sprintf("/api/events/%d", ev.ID), "", nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, env = s.do(http.MethodGet, "/api/events/77", "", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("event_not_found", env.Code)

	resp, env = s.do(http.MethodGet, "/api/events/abc", "", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("id", env.Field)
}

func (s *HandlerSuite) TestAuthIsRequired() {
	resp, env := s.do(http.MethodGet, "/api/me/registrations", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("unauthenticated", env.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me/registrations", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer not-a-token")
	resp, _ = s.send(req)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestFirstRequestCreatesProfile() {
	resp, env := s.do(http.MethodGet, "/api/me", "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var profile models.Profile
	s.decode(env, &profile)
	s.Equal("alice", profile.ID)
	s.Equal("alice@example.com", profile.Email)
	s.Equal("Member alice", profile.FullName)
	s.Equal(models.RoleParticipant, profile.Role)
}

func (s *HandlerSuite) TestAdminRoutesRequireAdminRole() {
	resp, env := s.do(http.MethodPost, "/api/admin/events", "alice", models.CreateEventRequest{Name: "Quiz"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("unauthorized", env.Code)

	resp, _ = s.do(http.MethodGet, "/api/admin/registrations", "", nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *HandlerSuite) TestRegisterSoloAndDuplicate() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz"})

	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)

	resp, env = s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_registered", env.Code)

	resp, env = s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "bob", models.RegisterSoloRequest{Phone: "123"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("phone", env.Field)
}

func (s *HandlerSuite) TestClosedEventIsForbidden() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz"})

	resp, _ := s.do(http.MethodPost, fmt.Sprintf("/api/admin/events/%d/close", ev.ID), "admin", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Equal(http.StatusForbidden, resp.StatusCode)
	s.Equal("registration_closed", env.Code)
}

func (s *HandlerSuite) TestTeamFlow() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Robo Wars", IsTeamCapable: true, MinTeamSize: 2, MaxTeamSize: 2})

	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/teams", ev.ID), "leader",
		models.CreateTeamRequest{TeamName: "Falcons", Phone: "9876543210"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var created models.TeamCreation
	s.decode(env, &created)
	s.Len(created.JoinCode, utils.JoinCodeLength)

	resp, env = s.do(http.MethodPost, "/api/teams/join", "alice", models.JoinTeamRequest{JoinCode: created.JoinCode, Phone: "9876543211"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)

	resp, env = s.do(http.MethodPost, "/api/teams/join", "bob", models.JoinTeamRequest{JoinCode: created.JoinCode, Phone: "9876543212"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("team_full", env.Code)

	resp, env = s.do(http.MethodPost, "/api/teams/join", "bob", models.JoinTeamRequest{JoinCode: "NOPE42", Phone: "9876543212"})
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal("team_not_found", env.Code)

	resp, _ = s.do(http.MethodGet, fmt.Sprintf("/api/teams/%d", created.Team.ID), "bob", nil)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, env = s.do(http.MethodGet, fmt.Sprintf("/api/teams/%d", created.Team.ID), "alice", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var details models.TeamDetails
	s.decode(env, &details)
	s.Len(details.Members, 2)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/teams/%d/qr?size=128", created.Team.ID), nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token("leader"))
	resp, _ = s.send(req)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("image/png", resp.Header.Get(fiber.HeaderContentType))
}

func (s *HandlerSuite) TestMUNRegistration() {
	resp, env := s.do(http.MethodPost, "/api/admin/mun-events", "admin", models.CreateMUNEventRequest{Name: "IP - International Press"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var mun models.MUNEvent
	s.decode(env, &mun)

	body := models.RegisterMUNRequest{Phone: "9876543210", Institute: "DU", Qualification: "BA"}
	resp, env = s.do(http.MethodPost, fmt.Sprintf("/api/mun-events/%d/register", mun.ID), "alice", body)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("category", env.Field)

	body.Category = "journalism"
	resp, env = s.do(http.MethodPost, fmt.Sprintf("/api/mun-events/%d/register", mun.ID), "alice", body)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var reg struct {
		Applicant models.Applicant `json:"applicant"`
	}
	s.decode(env, &reg)
	s.Equal("Journalism", reg.Applicant.Category)
}

func (s *HandlerSuite) uploadProof(regID uint, userID string, file []byte) (*http.Response, envelope) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "proof.png")
	s.Require().NoError(err)
	_, err = part.Write(file)
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/registrations/%d/payment-proof", regID), &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token(userID))
	return s.send(req)
}

func (s *HandlerSuite) TestPaymentProofAndVerification() {
	fee := int64(300)
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz", Fee: &fee})
	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var reg struct {
		ID uint `json:"id"`
	}
	s.decode(env, &reg)

	resp, env = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/registrations/%d/status", reg.ID), "admin",
		models.SetStatusRequest{Field: "payment_verification", Value: "verified", Notify: true})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("payment_not_submitted", env.Code)

	resp, env = s.uploadProof(reg.ID, "bob", pngProof)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, env = s.uploadProof(reg.ID, "alice", []byte("plain text"))
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("file", env.Field)

	resp, env = s.uploadProof(reg.ID, "alice", pngProof)
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Error)

	resp, env = s.uploadProof(reg.ID, "alice", pngProof)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_verified", env.Code)

	resp, env = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/registrations/%d/status", reg.ID), "admin",
		models.SetStatusRequest{Field: "payment_verification", Value: "verified", Notify: true})
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Error)

	resp, env = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/registrations/%d/status", reg.ID), "admin",
		models.SetStatusRequest{Field: "payment_verification", Value: "rejected"})
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("status_finalized", env.Code)

	resp, env = s.do(http.MethodPatch, fmt.Sprintf("/api/admin/registrations/%d/status", reg.ID), "admin",
		models.SetStatusRequest{Field: "approval", Value: "verified"})
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("field", env.Field)
}

func (s *HandlerSuite) TestFreeEventProofIsNotPayable() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Open Mic"})
	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var reg struct {
		ID uint `json:"id"`
	}
	s.decode(env, &reg)

	resp, env = s.uploadProof(reg.ID, "alice", pngProof)
	s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
	s.Equal("not_payable", env.Code)
}

func (s *HandlerSuite) TestAdminListStatsAndExport() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz"})
	for _, user := range []string{"alice", "bob"} {
		resp, _ := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), user, models.RegisterSoloRequest{Phone: "9876543210"})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
	}

	resp, env := s.do(http.MethodGet, "/api/admin/registrations?kind=solo&search=alice", "admin", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Error)
	var views []models.RegistrationView
	s.decode(env, &views)
	s.Len(views, 1)

	resp, env = s.do(http.MethodGet, "/api/admin/registrations?kind=group", "admin", nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("kind", env.Field)

	resp, env = s.do(http.MethodGet, "/api/admin/registrations/stats", "admin", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var stats models.RegistrationStats
	s.decode(env, &stats)
	s.Equal(2, stats.Total)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/registrations/export?format=csv", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.token("admin"))
	resp, _ = s.send(req)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(resp.Header.Get(fiber.HeaderContentDisposition), ".csv")
	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(body), "alice@example.com")
}

func (s *HandlerSuite) TestBulkStatus() {
	ev := s.createEvent(models.CreateEventRequest{Name: "Quiz"})
	resp, env := s.do(http.MethodPost, fmt.Sprintf("/api/events/%d/register", ev.ID), "alice", models.RegisterSoloRequest{Phone: "9876543210"})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	var reg struct {
		ID uint `json:"id"`
	}
	s.decode(env, &reg)

	resp, env = s.do(http.MethodPatch, "/api/admin/registrations/status", "admin",
		models.BulkSetStatusRequest{IDs: []uint{reg.ID, 404}, Field: "status", Value: "verified"})
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Error)

	var results []models.BulkStatusResult
	s.decode(env, &results)
	s.Require().Len(results, 2)
	s.Empty(results[0].Code)
	s.Equal("registration_not_found", results[1].Code)
}
