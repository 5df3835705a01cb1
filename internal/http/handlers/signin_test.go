package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/solarml/internal/auth"
	"github.com/geocoder89/solarml/internal/domain/user"
	"github.com/geocoder89/solarml/internal/http/handlers"
	"github.com/geocoder89/solarml/internal/http/middlewares"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Fake implementation of the handlers.SignInService interface

type fakeSignInService struct {
	signInFn      func(ctx context.Context, email, password string) (user.User, error)
	deleteFn      func(ctx context.Context, email string) error
	forgotFn      func(ctx context.Context, email string) error
	verifyResetFn func(ctx context.Context, email, code string) error
	resetFn       func(ctx context.Context, email, code, newPassword string) error
}

func (f *fakeSignInService) SignIn(ctx context.Context, email, password string) (user.User, error) {
	if f.signInFn != nil {
		return f.signInFn(ctx, email, password)
	}
	return user.User{}, nil
}

func (f *fakeSignInService) DeleteUnverified(ctx context.Context, email string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, email)
	}
	return nil
}

func (f *fakeSignInService) RequestPasswordReset(ctx context.Context, email string) error {
	if f.forgotFn != nil {
		return f.forgotFn(ctx, email)
	}
	return nil
}

func (f *fakeSignInService) VerifyResetOTP(ctx context.Context, email, code string) error {
	if f.verifyResetFn != nil {
		return f.verifyResetFn(ctx, email, code)
	}
	return nil
}

func (f *fakeSignInService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if f.resetFn != nil {
		return f.resetFn(ctx, email, code, newPassword)
	}
	return nil
}

type fakeUserReader struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserReader) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return user.User{}, nil
}

type fakeTokenIssuer struct {
	token string
	err   error
}

func (f *fakeTokenIssuer) GenerateAccessToken(userID, email string) (string, error) {
	return f.token, f.err
}

func TestSignInHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		svcSetUp       func(*fakeSignInService)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name: "success",
			body: `{"email": "sunny@x.com", "password": "Aa1!aaaa"}`,
			svcSetUp: func(f *fakeSignInService) {
				f.signInFn = func(ctx context.Context, email, password string) (user.User, error) {
					u := sampleUser()
					u.IsVerified = true
					return u, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "missing_password",
			body:           `{"email": "sunny@x.com"}`,
			wantStatusCode: http.StatusBadRequest,
			wantErrCode:    "invalid_request",
		},
		{
			name: "not_verified",
			body: `{"email": "sunny@x.com", "password": "Aa1!aaaa"}`,
			svcSetUp: func(f *fakeSignInService) {
				f.signInFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{}, verification.ErrNotVerified
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantErrCode:    "not_verified",
		},
		{
			name: "unknown_email",
			body: `{"email": "sunny@x.com", "password": "Aa1!aaaa"}`,
			svcSetUp: func(f *fakeSignInService) {
				f.signInFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantErrCode:    "invalid_credentials",
		},
		{
			name: "wrong_password",
			body: `{"email": "sunny@x.com", "password": "Aa1!aaaa"}`,
			svcSetUp: func(f *fakeSignInService) {
				f.signInFn = func(ctx context.Context, email, password string) (user.User, error) {
					return user.User{}, verification.ErrInvalidCredentials
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantErrCode:    "invalid_credentials",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSignInService{}

			if tt.svcSetUp != nil {
				tt.svcSetUp(svc)
			}

			h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{token: "tok"})

			r := setupRouter(http.MethodPost, "/signin", h.SignIn)

			req := httptest.NewRequest(http.MethodPost, "/signin", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrCode != "" {
				apiErr := decodeError(t, w.Body)
				if apiErr.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", apiErr.Code, tt.wantErrCode)
				}
			}
		})
	}
}

// unknown-email and wrong-password must answer with byte-identical error
// payloads so the response never says which check failed.

func TestSignInDoesNotRevealWhichCredentialFailed(t *testing.T) {
	run := func(failWith error) string {
		svc := &fakeSignInService{
			signInFn: func(ctx context.Context, email, password string) (user.User, error) {
				return user.User{}, failWith
			},
		}

		h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{token: "tok"})
		r := setupRouter(http.MethodPost, "/signin", h.SignIn)

		req := httptest.NewRequest(http.MethodPost, "/signin", bytes.NewBufferString(`{"email": "sunny@x.com", "password": "Aa1!aaaa"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		return w.Body.String()
	}

	if notFound, badPass := run(user.ErrNotFound), run(verification.ErrInvalidCredentials); notFound != badPass {
		t.Fatalf("responses differ:\n%s\n%s", notFound, badPass)
	}
}

func TestSignInReturnsAccessToken(t *testing.T) {
	svc := &fakeSignInService{
		signInFn: func(ctx context.Context, email, password string) (user.User, error) {
			u := sampleUser()
			u.IsVerified = true
			return u, nil
		},
	}

	h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{token: "the-token"})
	r := setupRouter(http.MethodPost, "/signin", h.SignIn)

	req := httptest.NewRequest(http.MethodPost, "/signin", bytes.NewBufferString(`{"email": "sunny@x.com", "password": "Aa1!aaaa"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "the-token" {
		t.Fatalf("got accessToken %q", resp.AccessToken)
	}
}

func TestDeleteUnverifiedHandler(t *testing.T) {
	tests := []struct {
		name           string
		svcSetUp       func(*fakeSignInService)
		wantStatusCode int
		wantErrCode    string
	}{
		{
			name:           "success",
			wantStatusCode: http.StatusOK,
		},
		{
			name: "nothing_to_delete",
			svcSetUp: func(f *fakeSignInService) {
				f.deleteFn = func(ctx context.Context, email string) error {
					return user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
			wantErrCode:    "not_found",
		},
		{
			name: "store_error",
			svcSetUp: func(f *fakeSignInService) {
				f.deleteFn = func(ctx context.Context, email string) error {
					return errors.New("db down")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantErrCode:    "internal_error",
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSignInService{}

			if tt.svcSetUp != nil {
				tt.svcSetUp(svc)
			}

			h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{})

			r := setupRouter(http.MethodDelete, "/signin/delete-unverified", h.DeleteUnverified)

			req := httptest.NewRequest(http.MethodDelete, "/signin/delete-unverified", bytes.NewBufferString(`{"email": "sunny@x.com"}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantErrCode != "" {
				apiErr := decodeError(t, w.Body)
				if apiErr.Code != tt.wantErrCode {
					t.Fatalf("got error code %q, want %q", apiErr.Code, tt.wantErrCode)
				}
			}
		})
	}
}

func TestPasswordResetHandlers(t *testing.T) {
	t.Run("forgot_password_success", func(t *testing.T) {
		h := handlers.NewSigninHandler(&fakeSignInService{}, &fakeUserReader{}, &fakeTokenIssuer{})
		r := setupRouter(http.MethodPost, "/signin/forgotpassword/auth", h.ForgotPassword)

		req := httptest.NewRequest(http.MethodPost, "/signin/forgotpassword/auth", bytes.NewBufferString(`{"email": "sunny@x.com"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("forgot_password_unknown_email", func(t *testing.T) {
		svc := &fakeSignInService{
			forgotFn: func(ctx context.Context, email string) error {
				return user.ErrNotFound
			},
		}

		h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{})
		r := setupRouter(http.MethodPost, "/signin/forgotpassword/auth", h.ForgotPassword)

		req := httptest.NewRequest(http.MethodPost, "/signin/forgotpassword/auth", bytes.NewBufferString(`{"email": "sunny@x.com"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("verify_reset_otp_expired", func(t *testing.T) {
		svc := &fakeSignInService{
			verifyResetFn: func(ctx context.Context, email, code string) error {
				return verification.ErrOTPExpired
			},
		}

		h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{})
		r := setupRouter(http.MethodPost, "/signin/forgotpassword/verifyotp", h.VerifyResetOTP)

		req := httptest.NewRequest(http.MethodPost, "/signin/forgotpassword/verifyotp", bytes.NewBufferString(`{"email": "sunny@x.com", "otp": "123456"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		if apiErr := decodeError(t, w.Body); apiErr.Code != "otp_expired" {
			t.Fatalf("got error code %q", apiErr.Code)
		}
	})

	t.Run("reset_password_success", func(t *testing.T) {
		var gotNewPassword string

		svc := &fakeSignInService{
			resetFn: func(ctx context.Context, email, code, newPassword string) error {
				gotNewPassword = newPassword
				return nil
			},
		}

		h := handlers.NewSigninHandler(svc, &fakeUserReader{}, &fakeTokenIssuer{})
		r := setupRouter(http.MethodPost, "/signin/forgotpassword/resetpassword", h.ResetPassword)

		body := `{"email": "sunny@x.com", "otp": "123456", "password": "NewPass9!"}`
		req := httptest.NewRequest(http.MethodPost, "/signin/forgotpassword/resetpassword", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
		if gotNewPassword != "NewPass9!" {
			t.Fatalf("service got password %q", gotNewPassword)
		}
	})

	t.Run("reset_password_short_password", func(t *testing.T) {
		h := handlers.NewSigninHandler(&fakeSignInService{}, &fakeUserReader{}, &fakeTokenIssuer{})
		r := setupRouter(http.MethodPost, "/signin/forgotpassword/resetpassword", h.ResetPassword)

		body := `{"email": "sunny@x.com", "otp": "123456", "password": "short"}`
		req := httptest.NewRequest(http.MethodPost, "/signin/forgotpassword/resetpassword", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})
}

type fakeVerifier struct {
	claims *auth.Claims
	err    error
}

func (f *fakeVerifier) VerifyAccessToken(token string) (*auth.Claims, error) {
	return f.claims, f.err
}

// Me runs behind RequireAuth, so the test mounts both.

func TestMeHandler(t *testing.T) {
	id := uuid.NewString()

	users := &fakeUserReader{
		getFn: func(ctx context.Context, gotID string) (user.User, error) {
			if gotID != id {
				return user.User{}, user.ErrNotFound
			}
			u := sampleUser()
			u.ID = gotID
			u.IsVerified = true
			return u, nil
		},
	}

	h := handlers.NewSigninHandler(&fakeSignInService{}, users, &fakeTokenIssuer{})

	newRouter := func(v middlewares.TokenVerifier) *gin.Engine {
		r := gin.New()
		authmw := middlewares.NewAuthMiddleware(v)
		r.GET("/me", authmw.RequireAuth(), h.Me)
		return r
	}

	t.Run("success", func(t *testing.T) {
		r := newRouter(&fakeVerifier{claims: &auth.Claims{UserID: id, Email: "sunny@x.com"}})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		var resp struct {
			User user.Projection `json:"user"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.User.ID != id {
			t.Fatalf("got user id %q, want %q", resp.User.ID, id)
		}
	})

	t.Run("no_token", func(t *testing.T) {
		r := newRouter(&fakeVerifier{})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})

	t.Run("bad_token", func(t *testing.T) {
		r := newRouter(&fakeVerifier{err: errors.New("bad signature")})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}
	})
}
