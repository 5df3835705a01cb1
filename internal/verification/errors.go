package verification

import "errors"

var (
	ErrAlreadyVerified     = errors.New("user already verified")
	ErrNoOTP               = errors.New("no otp found")
	ErrOTPExpired          = errors.New("otp expired")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrNotVerified         = errors.New("email not verified")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmailDeliveryFailed = errors.New("email delivery failed")
)
