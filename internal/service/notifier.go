package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sefazor/festival-backend/internal/metrics"
	"github.com/sefazor/festival-backend/internal/repository"
	"github.com/sefazor/festival-backend/pkg/email"
)

// Notifier renders a template and mails it to a user's profile address.
type Notifier struct {
	mailer   Mailer
	renderer *email.Renderer
	profiles ProfileStore
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewNotifier(mailer Mailer, renderer *email.Renderer, profiles ProfileStore, m *metrics.Metrics, log *zap.Logger) *Notifier {
	return &Notifier{mailer: mailer, renderer: renderer, profiles: profiles, metrics: m, log: log.Named("notifier")}
}

// Notify sends template to userID. A user without a known address is
// skipped; rendering and delivery failures are returned.
func (n *Notifier) Notify(ctx context.Context, userID, subject, template string, data email.TemplateData) error {
	profile, err := n.profiles.GetProfile(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && profile.Email == "") {
		n.metrics.EmailsSent.WithLabelValues(template, "no_recipient").Inc()
		n.log.Warn("no email address for user", zap.String("user_id", userID), zap.String("template", template))
		return nil
	}
	if err != nil {
		return err
	}

	html, err := n.renderer.Render(template, data)
	if err != nil {
		n.metrics.EmailsSent.WithLabelValues(template, "render_error").Inc()
		return err
	}

	if err := n.mailer.Send(ctx, profile.Email, subject, html); err != nil {
		n.metrics.EmailsSent.WithLabelValues(template, "error").Inc()
		return err
	}
	n.metrics.EmailsSent.WithLabelValues(template, "sent").Inc()
	return nil
}
