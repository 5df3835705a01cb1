package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/solarml/internal/config"
	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/gin-gonic/gin"
)

type SignUpService interface {
	SignUp(ctx context.Context, in verification.SignUpInput) (user.User, error)
	ResendOTP(ctx context.Context, id string) error
	VerifySignUp(ctx context.Context, id, code string) (user.User, error)
}

type SignupHandler struct {
	svc SignUpService
}

func NewSignupHandler(svc SignUpService) *SignupHandler {
	return &SignupHandler{svc: svc}
}

type SignUpRequest struct {
	Fullname    string `json:"fullname" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber"`
}

type VerifyRequest struct {
	OTP string `json:"otp" binding:"required,len=6"`
}

// SignUp creates the record and sends the first OTP. A delivery failure is a
// 500 to the client, but the record (OTP included) is already persisted, so
// the client can go straight to resend.
func (h *SignupHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	u, err := h.svc.SignUp(cctx, verification.SignUpInput{
		Fullname:    req.Fullname,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})

	if err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered. Verification OTP sent to email.",
		"user":    u.Project(),
	})
}

func (h *SignupHandler) ResendOTP(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(10 * time.Second)

	defer cancel()

	if err := h.svc.ResendOTP(cctx, id); err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "OTP resent to email",
	})
}

func (h *SignupHandler) Verify(ctx *gin.Context) {
	id := ctx.Param("id")

	var req VerifyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	u, err := h.svc.VerifySignUp(cctx, id, req.OTP)

	if err != nil {
		respondVerificationError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "OTP verified. Account activated.",
		"user":    u.Project(),
	})
}
