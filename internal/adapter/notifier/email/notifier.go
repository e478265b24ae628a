// Package email delivers the sync report over SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"

	"github.com/mlerena/comprobantes/internal/domain"
	"github.com/mlerena/comprobantes/internal/report"
)

// Config holds SMTP transport and addressing settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	To       string
}

// Notifier implements usecase.Notifier over SMTP. Delivery is a single
// attempt; transport failures surface wrapped in domain.ErrNotification
// and are never retried here.
type Notifier struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates an SMTP notifier.
func New(cfg Config, logger zerolog.Logger) *Notifier {
	return &Notifier{cfg: cfg, logger: logger}
}

// Send delivers the report to the configured recipient with the markdown
// body as the text part and the rendered HTML as the alternative.
func (n *Notifier) Send(ctx context.Context, r *report.Report) error {
	msg, err := newMessage(n.cfg.From, n.cfg.To, r)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNotification, err)
	}

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
	}
	if n.cfg.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("%w: creating smtp client: %v", domain.ErrNotification, err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: sending report: %v", domain.ErrNotification, err)
	}

	n.logger.Info().Str("to", n.cfg.To).Str("subject", r.Subject()).Msg("report delivered")
	return nil
}

func newMessage(from, to string, r *report.Report) (*mail.Msg, error) {
	html, err := r.HTML()
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("bad from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("bad to address: %w", err)
	}
	msg.Subject(r.Subject())
	msg.SetBodyString(mail.TypeTextPlain, r.Markdown())
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	// Unique per message so providers don't collapse successive reports
	// into one thread.
	msg.SetGenHeader("X-Entity-Ref-ID", uuid.NewString())

	return msg, nil
}
