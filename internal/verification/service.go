package verification

import (
	"context"
	"fmt"

	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/mailer"
	"github.com/geocoder89/solarml/internal/security"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Store is the slice of the credential store the service needs. Both the
// postgres repo and the in-memory repo satisfy it.
type Store interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) error
	Save(ctx context.Context, u user.User) error
	DeleteUnverifiedByEmail(ctx context.Context, email string) error
}

// Service drives a user record through the signup-verification and
// password-reset flows. All time arithmetic goes through the injected clock so
// tests can freeze it.
type Service struct {
	store Store
	mail  mailer.Mailer
	clock clockwork.Clock
}

func NewService(store Store, mail mailer.Mailer, clock clockwork.Clock) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		store: store,
		mail:  mail,
		clock: clock,
	}
}

type SignUpInput struct {
	Fullname    string
	Email       string
	Password    string
	PhoneNumber string
}

// SignUp creates an unverified record with a fresh OTP and mails the code.
// When delivery fails the record is still kept, OTP included, so the client
// can fall back to resend instead of signing up from scratch.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (user.User, error) {
	hash, err := security.HashPassword(in.Password)

	if err != nil {
		return user.User{}, err
	}

	now := s.clock.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Fullname:     in.Fullname,
		Email:        in.Email,
		PasswordHash: hash,
		PhoneNumber:  in.PhoneNumber,
		IsVerified:   false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	code, err := GenerateOTP()

	if err != nil {
		return user.User{}, err
	}

	u.SetOTP(code, now.Add(OTPTTL))

	if err := s.store.Create(ctx, u); err != nil {
		return user.User{}, err
	}

	if err := s.mail.Send(ctx, mailer.VerificationMessage(u.Email, code)); err != nil {
		return u, fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	return u, nil
}

// ResendOTP overwrites any previous code. The old code stops verifying the
// moment the new one is saved.
func (s *Service) ResendOTP(ctx context.Context, id string) error {
	u, err := s.store.GetByID(ctx, id)

	if err != nil {
		return err
	}

	if u.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.issue(ctx, &u); err != nil {
		return err
	}

	if err := s.mail.Send(ctx, mailer.VerificationMessage(u.Email, *u.OTP)); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	return nil
}

// VerifySignUp runs the three-tier code check and, on success, flips the
// record to verified and clears the OTP fields. Verified is terminal for this
// flow: repeated calls report ErrAlreadyVerified without touching the record.
func (s *Service) VerifySignUp(ctx context.Context, id, code string) (user.User, error) {
	u, err := s.store.GetByID(ctx, id)

	if err != nil {
		return user.User{}, err
	}

	if u.IsVerified {
		return user.User{}, ErrAlreadyVerified
	}

	if err := s.checkOTP(u, code); err != nil {
		return user.User{}, err
	}

	u.IsVerified = true
	u.ClearOTP()
	u.UpdatedAt = s.clock.Now().UTC()

	if err := s.store.Save(ctx, u); err != nil {
		return user.User{}, err
	}

	return u, nil
}

// SignIn is a read-only credential check with one documented exception: an
// unverified record is deleted on sight so the email can be registered again.
// Wrong-password and unknown-email both surface as ErrInvalidCredentials /
// ErrNotFound without saying which check failed.
func (s *Service) SignIn(ctx context.Context, email, password string) (user.User, error) {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return user.User{}, err
	}

	if !u.IsVerified {
		_ = s.store.DeleteUnverifiedByEmail(ctx, email)
		return user.User{}, ErrNotVerified
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return user.User{}, ErrInvalidCredentials
	}

	return u, nil
}

// DeleteUnverified removes an unverified record by email. Verified records are
// never deleted through this path; the store reports not-found for them.
func (s *Service) DeleteUnverified(ctx context.Context, email string) error {
	return s.store.DeleteUnverifiedByEmail(ctx, email)
}

// RequestPasswordReset issues a reset OTP without touching is_verified.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return err
	}

	if err := s.issue(ctx, &u); err != nil {
		return err
	}

	if err := s.mail.Send(ctx, mailer.PasswordResetMessage(u.Email, *u.OTP)); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}

	return nil
}

// VerifyResetOTP checks the code but leaves it in place, so the client can do
// a verify step and a reset step without asking the user to retype the code.
func (s *Service) VerifyResetOTP(ctx context.Context, email, code string) error {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return err
	}

	return s.checkOTP(u, code)
}

// ResetPassword re-validates the code, swaps the password hash, and clears the
// OTP fields.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.store.GetByEmail(ctx, email)

	if err != nil {
		return err
	}

	if err := s.checkOTP(u, code); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)

	if err != nil {
		return err
	}

	u.PasswordHash = hash
	u.ClearOTP()
	u.UpdatedAt = s.clock.Now().UTC()

	return s.store.Save(ctx, u)
}

// issue generates a fresh code, stamps the 5-minute expiry, and persists the
// record before any delivery attempt.
func (s *Service) issue(ctx context.Context, u *user.User) error {
	code, err := GenerateOTP()

	if err != nil {
		return err
	}

	now := s.clock.Now().UTC()
	u.SetOTP(code, now.Add(OTPTTL))
	u.UpdatedAt = now

	return s.store.Save(ctx, *u)
}

// checkOTP applies the three checks in precedence order: existence, then
// expiry, then equality. The order keeps the most specific error on top, so a
// client can tell "never requested" from "too late" from "wrong code".
func (s *Service) checkOTP(u user.User, code string) error {
	if !u.HasOTP() {
		return ErrNoOTP
	}

	if s.clock.Now().After(*u.OTPExpiry) {
		return ErrOTPExpired
	}

	if *u.OTP != code {
		return ErrInvalidOTP
	}

	return nil
}
