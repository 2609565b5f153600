package notify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wneessen/go-mail"

	"esilogis/internal/bootstrap/logging"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends HTML mail through an SMTP relay.
type SMTPMailer struct {
	cfg SMTPConfig
}

var _ ports.Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, job ports.MailJob) error {
	if strings.TrimSpace(job.To) == "" {
		return errs.Validation("mail recipient is required")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return errs.Wrap(err, "set mail sender")
	}
	if err := msg.To(job.To); err != nil {
		return errs.Wrap(err, "set mail recipient")
	}
	msg.Subject(job.Subject)
	msg.SetBodyString(mail.TypeTextHTML, job.HTMLBody)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return errs.Wrap(err, "create smtp client")
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errs.Wrapf(err, "send mail to %s", job.To)
	}
	return nil
}

// LogMailer writes mail to the log instead of sending it. It stands in when
// no SMTP host is configured.
type LogMailer struct{}

var _ ports.Mailer = LogMailer{}

func (LogMailer) Send(ctx context.Context, job ports.MailJob) error {
	logging.Info(ctx, "mail not sent, smtp disabled",
		slog.Uint64("notification_id", job.NotificationID),
		slog.String("to", job.To),
		slog.String("subject", job.Subject),
	)
	return nil
}
