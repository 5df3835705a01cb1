package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/solarml/internal/config"
	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/http/middlewares"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/gin-gonic/gin"
)

type SignInService interface {
	SignIn(ctx context.Context, email, password string) (user.User, error)
	DeleteUnverified(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyResetOTP(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type TokenIssuer interface {
	GenerateAccessToken(userID, email string) (string, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type SigninHandler struct {
	svc   SignInService
	users UserReader
	jwt   TokenIssuer
}

func NewSigninHandler(svc SignInService, users UserReader, jwt TokenIssuer) *SigninHandler {
	return &SigninHandler{
		svc:   svc,
		users: users,
		jwt:   jwt,
	}
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetVerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	OTP      string `json:"otp" binding:"required,len=6"`
	Password string `json:"password" binding:"required,min=8"`
}

// SignIn never says whether the email or the password was wrong; the only
// distinction a caller gets is verified-vs-not.
func (h *SigninHandler) SignIn(ctx *gin.Context) {
	var req SignInRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.svc.SignIn(cctx, req.Email, req.Password)

	if err != nil {
		switch {
		case errors.Is(err, verification.ErrNotVerified):
			RespondUnAuthorized(ctx, "not_verified", "Email not verified. Please sign up again.")
		case errors.Is(err, user.ErrNotFound), errors.Is(err, verification.ErrInvalidCredentials):
			RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		default:
			RespondInternal(ctx, "Could not sign in")
		}
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(u.ID, u.Email)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":     "Login successful",
		"user":        u.Project(),
		"accessToken": accessToken,
	})
}

// DeleteUnverified is the explicit cleanup path. It only ever removes
// unverified records; a verified record behind the same email reports 404.
func (h *SigninHandler) DeleteUnverified(ctx *gin.Context) {
	var req EmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.svc.DeleteUnverified(cctx, req.Email); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "No unverified user found with this email")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Unverified user deleted successfully",
	})
}

func (h *SigninHandler) ForgotPassword(ctx *gin.Context) {
	var req EmailRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	if err := h.svc.RequestPasswordReset(cctx, req.Email); err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Password reset OTP sent successfully",
	})
}

func (h *SigninHandler) VerifyResetOTP(ctx *gin.Context) {
	var req ResetVerifyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.svc.VerifyResetOTP(cctx, req.Email, req.OTP); err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "OTP verified",
	})
}

func (h *SigninHandler) ResetPassword(ctx *gin.Context) {
	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.svc.ResetPassword(cctx, req.Email, req.OTP, req.Password); err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Password reset successful",
	})
}

// Me returns the signed-in user's projection, resolved from the token.
func (h *SigninHandler) Me(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": u.Project(),
	})
}
