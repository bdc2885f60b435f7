package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/health"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/response"
)

const APIPrefix = "/api/v1"

// Limits configures the API-wide and the auth rate limiters.
type Limits struct {
	Window time.Duration
	API    int
	Auth   int
}

// Deps is everything RegisterRoutes mounts.
type Deps struct {
	Logger         *zap.SugaredLogger
	AllowedOrigins []string
	Limits         Limits

	Auth   *auth.Handler
	Gate   *auth.Gate
	Users  *user.Handler
	Health *health.Handler
}

// RegisterRoutes builds the chi router with the full middleware stack.
func RegisterRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(RecovererMiddleware(d.Logger))
	r.Use(RequestIDMiddleware())
	r.Use(SecurityHeadersMiddleware())
	r.Use(CORSMiddleware(d.AllowedOrigins))
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(RateLimitMiddleware(d.Limits.API, d.Limits.Window,
		"Too many requests from this IP, please try again later."))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "API Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.Send(w, http.StatusOK, "API is working", nil)
	})

	authLimit := FailedAttemptLimitMiddleware(d.Limits.Auth, d.Limits.Window,
		"Too many authentication attempts, please try again after 15 minutes.")

	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/health", d.Health.Check)

		r.Route("/auth", func(r chi.Router) {
			r.With(authLimit).Post("/register", d.Auth.Register)
			r.With(authLimit).Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.Post("/refresh-token", d.Auth.RefreshToken)
		})

		r.With(d.Gate.CheckAuth()).Get("/users/{userId}", d.Users.GetProfile)
	})

	return r
}
