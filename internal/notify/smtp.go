package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SendFunc hands a composed message to the mail server.
type SendFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPConfig configures an SMTPSubscriber.
type SMTPConfig struct {
	Addr     string
	From     string
	Username string
	Password string
	// To lists the addresses subscribed to the channel.
	To []string
}

const smtpTimeout = 10 * time.Second

// SMTPSubscriber emails every message to the channel's subscribed addresses.
type SMTPSubscriber struct {
	cfg  SMTPConfig
	send SendFunc
	now  func() time.Time
}

// NewSMTPSubscriber creates an SMTPSubscriber. A nil send dials cfg.Addr,
// using STARTTLS when the server offers it and PLAIN auth when a username is
// set.
func NewSMTPSubscriber(cfg SMTPConfig, send SendFunc) (*SMTPSubscriber, error) {
	if cfg.Addr == "" || cfg.From == "" {
		return nil, errors.New("smtp subscriber requires an address and a sender")
	}
	if len(cfg.To) == 0 {
		return nil, errors.New("smtp subscriber requires at least one recipient")
	}

	host, portStr, err := net.SplitHostPort(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp port %q: %w", portStr, err)
	}

	if send == nil {
		opts := []mail.Option{
			mail.WithPort(port),
			mail.WithTLSPortPolicy(mail.TLSOpportunistic),
			mail.WithTimeout(smtpTimeout),
		}
		if cfg.Username != "" {
			opts = append(opts,
				mail.WithSMTPAuth(mail.SMTPAuthPlain),
				mail.WithUsername(cfg.Username),
				mail.WithPassword(cfg.Password))
		}
		client, err := mail.NewClient(host, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp client: %w", err)
		}
		send = func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		}
	}

	return &SMTPSubscriber{cfg: cfg, send: send, now: time.Now}, nil
}

// Name implements Subscriber.
func (s *SMTPSubscriber) Name() string { return "smtp" }

// Deliver implements Subscriber.
func (s *SMTPSubscriber) Deliver(ctx context.Context, channel string, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, err := s.compose(channel, msg)
	if err != nil {
		return fmt.Errorf("smtp message on channel %s: %w", channel, err)
	}
	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery on channel %s: %w", channel, err)
	}
	return nil
}

func (s *SMTPSubscriber) compose(channel string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	if err := m.To(s.cfg.To...); err != nil {
		return nil, fmt.Errorf("recipients: %w", err)
	}
	m.Subject(sanitizeHeader(msg.Subject))
	m.SetDateWithValue(s.now().UTC())
	m.SetGenHeader(mail.Header("X-Notification-Channel"), sanitizeHeader(channel))
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
