package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/gin-gonic/gin"
)

// respondVerificationError maps the verification taxonomy onto HTTP. OTP
// failures stay distinguishable (no_otp vs otp_expired vs invalid_otp) so the
// client can prompt the right remedial action.
func respondVerificationError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondBadRequest(ctx, "email_taken", "User already exists")
	case errors.Is(err, verification.ErrAlreadyVerified):
		RespondBadRequest(ctx, "already_verified", "User already verified")
	case errors.Is(err, verification.ErrNoOTP):
		RespondBadRequest(ctx, "no_otp", "No OTP found. Please request a new one.")
	case errors.Is(err, verification.ErrOTPExpired):
		RespondBadRequest(ctx, "otp_expired", "OTP expired. Please request a new one.")
	case errors.Is(err, verification.ErrInvalidOTP):
		RespondBadRequest(ctx, "invalid_otp", "Invalid OTP")
	case errors.Is(err, verification.ErrEmailDeliveryFailed):
		RespondError(ctx, http.StatusInternalServerError, "email_delivery_failed", "Failed to send verification email", nil)
	default:
		RespondInternal(ctx, "Something went wrong")
	}
}
