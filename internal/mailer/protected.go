package mailer

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("mail circuit breaker open")

type ProtectedConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// Protected wraps a Mailer with a per-send timeout and a circuit breaker, so a
// dead SMTP provider fails fast instead of stalling every OTP request.
type Protected struct {
	inner Mailer
	cfg   ProtectedConfig
	mu    sync.Mutex

	state string // "closed" | "open" | "half_open"

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtected(inner Mailer, cfg ProtectedConfig) *Protected {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &Protected{
		inner: inner,
		cfg:   cfg,
		state: "closed",
	}
}

func (p *Protected) Send(ctx context.Context, msg Message) error {
	// fail-fast gate

	if !p.allowRequest() {
		return ErrCircuitOpen
	}
	// enforce timeout

	sendCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	err := p.inner.Send(sendCtx, msg)

	p.afterRequest(err)

	return err
}

func (p *Protected) allowRequest() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case "closed":
		return true
	case "open":
		// cooldown has passed? move to half open

		if time.Since(p.openedAt) >= p.cfg.Cooldown {
			p.state = "half_open"
			p.halfOpenInFlight = 0
			return true
		}
		return false
	case "half_open":
		if p.halfOpenInFlight >= p.cfg.HalfOpenMaxCalls {
			return false
		}
		p.halfOpenInFlight++
		return true

	default:
		// safe fallback
		return true
	}
}

func (p *Protected) afterRequest(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// half-open call just finished
	if p.state == "half_open" && p.halfOpenInFlight > 0 {
		p.halfOpenInFlight--
	}

	if err == nil {
		// success => close circuit and reset counters
		p.consecutiveFailures = 0
		p.state = "closed"
		return
	}

	// failure
	p.consecutiveFailures++

	// if half-open failed, reopen immediately
	if p.state == "half_open" {
		p.state = "open"
		p.openedAt = time.Now()
		return
	}

	// if failures reached threshold, open circuit
	if p.consecutiveFailures >= p.cfg.FailureThreshold {
		p.state = "open"
		p.openedAt = time.Now()
	}
}
