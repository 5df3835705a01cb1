package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/solarml/internal/auth"
	"github.com/geocoder89/solarml/internal/config"
	"github.com/geocoder89/solarml/internal/http/handlers"
	"github.com/geocoder89/solarml/internal/http/middlewares"
	"github.com/geocoder89/solarml/internal/observability"
	"github.com/geocoder89/solarml/internal/verification"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for any payload this API takes

// Deps is everything the router wires together. Main builds the real set;
// tests hand in fakes.
type Deps struct {
	Cfg       config.Config
	Log       *slog.Logger
	Pool      *pgxpool.Pool
	Redis     *redis.Client // nil => in-process rate limiting
	Prom      *observability.Prom
	Service   *verification.Service
	Users     handlers.UserReader
	Predictor handlers.PredictionClient
	JWT       *auth.Manager
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	if d.Cfg.TracingEnabled {
		r.Use(otelgin.Middleware("solarml-api"))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.RequireJSON())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}

	// health
	ping := func() error {
		if d.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return d.Pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// the OTP-issuing endpoints sit behind a per-IP window so one client
	// cannot flood the mail provider
	var counters middlewares.CounterStore
	if d.Redis != nil {
		counters = middlewares.NewRedisCounterStore(d.Redis)
	} else {
		counters = middlewares.NewMemoryCounterStore()
	}
	otpLimiter := middlewares.NewRateLimiter(counters, d.Cfg.RateLimit, d.Cfg.RateLimitWindow)
	limited := otpLimiter.Middleware(middlewares.KeyByIP)

	signupHandler := handlers.NewSignupHandler(d.Service)
	signinHandler := handlers.NewSigninHandler(d.Service, d.Users, d.JWT)
	predictHandler := handlers.NewPredictHandler(d.Predictor)

	authmw := middlewares.NewAuthMiddleware(d.JWT)

	r.POST("/signup", limited, signupHandler.SignUp)
	r.GET("/signup/resend-otp/:id", limited, signupHandler.ResendOTP)
	r.POST("/signup/verify/:id", signupHandler.Verify)

	r.POST("/signin", signinHandler.SignIn)
	r.DELETE("/signin/emailnotverified", signinHandler.DeleteUnverified)
	r.POST("/signin/forgotpassword/auth", limited, signinHandler.ForgotPassword)
	r.POST("/signin/forgotpassword/verify", signinHandler.VerifyResetOTP)
	r.PATCH("/signin/forgotpassword/reset", signinHandler.ResetPassword)

	r.GET("/me", authmw.RequireAuth(), signinHandler.Me)

	r.POST("/predict/solarpower", predictHandler.Single)
	r.POST("/predict/solarpowerforecast", predictHandler.Forecast)

	return r
}
