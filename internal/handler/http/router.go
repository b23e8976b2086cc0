package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/kintai-backend-go/internal/config"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/ratelimit"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

const appVersion = "v1.0.0"

type Handlers struct {
	Auth       AuthHandler
	Attendance AttendanceHandler
	Member     MemberHandler
	Event      EventHandler
}

// NewRouter wires every route. users resolves the caller of authenticated
// routes. m and limiter may be nil, which disables metrics and rate limiting
// respectively.
func NewRouter(appCfg config.AppConfig, JWTService jwt.Service, users user.UserRepository, m *metrics.Metrics, limiter ratelimit.Limiter, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(appCfg.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "kintai"),
		slog.String("version", appVersion),
		slog.String("env", appCfg.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(m.Middleware)
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	throttle := func(next http.Handler) http.Handler { return next }
	if limiter != nil {
		throttle = middleware.RateLimit(limiter)
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(throttle)
				r.Post("/signup", h.Auth.Signup)
				r.Post("/login", h.Auth.Login)
				r.Post("/admin/login", h.Auth.LoginAdmin)
			})
			r.Post("/refresh", h.Auth.RefreshToken)
			r.Post("/logout", h.Auth.Logout)

			r.Get("/login/oauth/google", h.Auth.LoginWithGoogle)
			r.Get("/oauth/callback/google", h.Auth.OAuthCallbackGoogle)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired(users))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.Attendance.MyPage)
				r.Put("/", h.Member.EditProfile)
				r.Get("/profile", h.Member.GetProfile)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/clock-in", h.Attendance.ClockIn)
				r.Post("/clock-out", h.Attendance.ClockOut)
				r.Get("/status", h.Attendance.Status)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			// SSE clients authenticate with a query token
			r.Get("/events", h.Event.Stream)

			// Admin only
			r.Group(func(r chi.Router) {
				r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
				r.Use(middleware.AuthRequired(users))
				r.Use(middleware.AdminOnly)

				r.Post("/events/token", h.Event.GetSSEToken)
				r.Get("/members", h.Member.List)
				r.Get("/members/{id}", h.Member.Get)
				r.Delete("/members/{id}", h.Member.Delete)
			})
		})
	})
	return r
}
