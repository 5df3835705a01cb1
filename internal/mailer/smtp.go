package mailer

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/geocoder89/solarml/internal/config"
)

// SMTP delivers mail over a plain-auth SMTP submission port.
type SMTP struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTP {
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if !s.cfg.Configured() {
		return fmt.Errorf("smtp not configured")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	raw := []byte("To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + msg.Body + "\r\n")

	// net/smtp has no context support; the Protected wrapper bounds the call.
	errCh := make(chan error, 1)

	go func() {
		errCh <- smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, raw)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
