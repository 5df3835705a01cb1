package mailer

import (
	"context"

	"github.com/geocoder89/solarml/internal/observability"
)

// Instrumented counts delivery attempts per template purpose.
type Instrumented struct {
	inner Mailer
	prom  *observability.Prom
}

func NewInstrumented(inner Mailer, prom *observability.Prom) *Instrumented {
	return &Instrumented{inner: inner, prom: prom}
}

func (m *Instrumented) Send(ctx context.Context, msg Message) error {
	err := m.inner.Send(ctx, msg)

	result := "ok"
	if err != nil {
		result = "error"
	}

	purpose := msg.Purpose
	if purpose == "" {
		purpose = "unknown"
	}

	m.prom.MailSendsTotal.WithLabelValues(purpose, result).Inc()

	return err
}
