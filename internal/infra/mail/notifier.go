package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"rentdesk/internal/app/notifications"
	"rentdesk/internal/app/policies"
	"rentdesk/internal/domain/shared/events"
)

type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender is the part of the go-mail client the notifier uses.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Notifier emails tenants about their reservations.
type Notifier struct {
	Sender Sender
	From   string
	Logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) (*Notifier, error) {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		return nil, fmt.Errorf("mail: smtp host is required")
	}
	port := opts.Port
	if port <= 0 {
		port = 587
	}
	clientOpts := []gomail.Option{gomail.WithPort(port), gomail.WithTLSPolicy(gomail.TLSOpportunistic)}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(opts.Username),
			gomail.WithPassword(opts.Password),
		)
	}
	client, err := gomail.NewClient(host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("mail: create client: %w", err)
	}
	from := opts.From
	if from == "" {
		from = "no-reply@rentdesk.local"
	}
	return &Notifier{Sender: client, From: from, Logger: logger}, nil
}

func (n *Notifier) Notify(ctx context.Context, ev events.DomainEvent) error {
	msg, ok := notifications.Compose(ev)
	if !ok {
		return nil
	}
	out, err := n.build(msg)
	if err != nil {
		return err
	}
	if err := n.Sender.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("mail: send %s: %w", ev.EventName(), err)
	}
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "notification sent", "event", ev.EventName(), "to", msg.To)
	}
	return nil
}

func (n *Notifier) build(msg notifications.Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(n.From); err != nil {
		return nil, fmt.Errorf("mail: from: %w", err)
	}
	if msg.Name != "" {
		if err := out.AddToFormat(msg.Name, msg.To); err != nil {
			return nil, fmt.Errorf("mail: to: %w", err)
		}
	} else if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)
	return out, nil
}

var _ policies.Notifier = (*Notifier)(nil)
