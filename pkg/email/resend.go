package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/resendlabs/resend-go"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateProofReceived         = "proof_received.html"
	TemplatePaymentVerified       = "payment_verified.html"
	TemplateTeamCreated           = "team_created.html"
	TemplateRegistrationConfirmed = "registration_confirmed.html"
)

// TemplateData is what every template can reference.
type TemplateData struct {
	Festival    string
	FrontendURL string
	Year        int
	EventName   string
	TeamName    string
	JoinCode    string
	JoinURL     string
	Paid        bool
}

// Renderer renders the embedded templates inside the shared layout.
type Renderer struct {
	festival    string
	frontendURL string
	templates   map[string]*template.Template
}

func NewRenderer(festival, frontendURL string) (*Renderer, error) {
	r := &Renderer{festival: festival, frontendURL: frontendURL, templates: make(map[string]*template.Template)}
	for _, name := range []string{TemplateProofReceived, TemplatePaymentVerified, TemplateTeamCreated, TemplateRegistrationConfirmed} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(name string, data TemplateData) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown template %s", name)
	}
	data.Festival = r.festival
	data.FrontendURL = r.frontendURL
	data.Year = time.Now().Year()

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return body.String(), nil
}

// EmailService sends mail through Resend.
type EmailService struct {
	client   *resend.Client
	from     string
	fromName string
	logger   *zap.Logger
}

func NewEmailService(apiKey, from, fromName string, log *zap.Logger) *EmailService {
	return &EmailService{
		client:   resend.NewClient(apiKey),
		from:     from,
		fromName: fromName,
		logger:   log.Named("email"),
	}
}

func (s *EmailService) Send(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &resend.SendEmailRequest{
		From:    s.fromName + " <" + s.from + ">",
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	resp, err := s.client.Emails.Send(params)
	if err != nil {
		s.logger.Error("failed to send email", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return err
	}

	s.logger.Info("sent email", zap.String("to", to), zap.String("subject", subject), zap.String("id", resp.Id))
	return nil
}

// LogSender writes emails to the log instead of sending them. Used when no
// Resend key is configured.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{logger: log.Named("email")}
}

func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("email not sent, no provider configured", zap.String("to", to), zap.String("subject", subject))
	return nil
}
