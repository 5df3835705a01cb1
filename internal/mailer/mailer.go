package mailer

import (
	"context"
	"fmt"
)

type Message struct {
	To      string
	Subject string
	Body    string

	// Purpose labels the template for metrics; it is never sent on the wire.
	Purpose string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationMessage is the signup-verification template.
func VerificationMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "Verify your SolarPower-ML account",
		Purpose: "signup_verification",
		Body: fmt.Sprintf(
			"Your verification code is: %s\n\nThis code will expire in 5 minutes.\n\nIf you didn't request this, ignore this email.",
			code,
		),
	}
}

// PasswordResetMessage is the password-reset template.
func PasswordResetMessage(to, code string) Message {
	return Message{
		To:      to,
		Subject: "SolarPower-ML password reset code",
		Purpose: "password_reset",
		Body: fmt.Sprintf(
			"Your password reset code is: %s\n\nThis code will expire in 5 minutes.\n\nIf you didn't request a reset, ignore this email.",
			code,
		),
	}
}
