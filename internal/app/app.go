// Package app assembles repositories, services and handlers from a Config.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/config"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/member"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/kintai-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/oauth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/ratelimit"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/kintai-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/kintai-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/kintai-backend-go/internal/service/attendance"
	authService "github.com/cmlabs-hris/kintai-backend-go/internal/service/auth"
	memberService "github.com/cmlabs-hris/kintai-backend-go/internal/service/member"
)

const rateLimitKeyPrefix = "kintai:ratelimit:"

// App is everything the commands need, built once at startup.
type App struct {
	Config    *config.Config
	Clock     clock.Clock
	Metrics   *metrics.Metrics
	Router    http.Handler
	Scheduler *cron.Scheduler

	Auth       auth.AuthService
	Attendance attendance.AttendanceService
	Members    member.MemberService

	closers []func()
}

type repositories struct {
	tx            database.TxManager
	users         user.UserRepository
	attendances   attendance.AttendanceRepository
	refreshTokens auth.RefreshTokenRepository
}

// New connects the configured backends and builds the HTTP router.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:  cfg,
		Clock:   clock.New(cfg.App.Timezone),
		Metrics: metrics.New(),
	}

	repos, err := a.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration, cfg.App.Env == "production")
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init jwt service: %w", err)
	}

	var googleService oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		googleService = oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)
	} else {
		slog.Info("Google sign-in disabled: CLIENT_ID, CLIENT_SECRET or REDIRECT_URL not set")
	}

	limiter, sweeper := a.newLimiter(ctx)

	hub := sse.NewHub()
	a.Auth = authService.NewAuthService(repos.tx, repos.users, repos.refreshTokens, jwtService, a.Clock, a.Metrics)
	a.Attendance = attendanceService.NewAttendanceService(repos.attendances, repos.users, a.Clock, attendanceService.NewHubPublisher(hub), a.Metrics)
	a.Members = memberService.NewMemberService(repos.tx, repos.users, repos.attendances, a.Clock)

	a.Router = appHTTP.NewRouter(cfg.App, jwtService, repos.users, a.Metrics, limiter, appHTTP.Handlers{
		Auth:       appHTTP.NewAuthHandler(jwtService, a.Auth, googleService, cfg.App.FrontendURL, cfg.App.Env == "production"),
		Attendance: appHTTP.NewAttendanceHandler(a.Attendance),
		Member:     appHTTP.NewMemberHandler(a.Members),
		Event:      appHTTP.NewEventHandler(jwtService, hub, repos.users),
	})

	a.Scheduler = cron.NewScheduler()
	cron.NewAttendanceJobs(repos.attendances, a.Metrics, sweeper).RegisterJobs(a.Scheduler, cfg.Jobs.OpenSessionRefreshInterval)

	return a, nil
}

func (a *App) openRepositories(ctx context.Context) (repositories, error) {
	switch a.Config.Database.Driver {
	case "memory":
		slog.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return repositories{
			tx:            store.TxManager(),
			users:         store.Users(),
			attendances:   store.Attendances(),
			refreshTokens: store.RefreshTokens(),
		}, nil
	default:
		db, err := database.NewPostgreSQLDB(ctx, a.Config.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		slog.Info("Connected to PostgreSQL", "host", a.Config.Database.Host, "database", a.Config.Database.Name)
		return repositories{
			tx:            postgresql.NewTxManager(db),
			users:         postgresql.NewUserRepository(db),
			attendances:   postgresql.NewAttendanceRepository(db),
			refreshTokens: postgresql.NewJWTRepository(db),
		}, nil
	}
}

// newLimiter returns the login rate limiter and, for the in-process backend,
// the sweeper that drops idle buckets.
func (a *App) newLimiter(ctx context.Context) (ratelimit.Limiter, cron.Sweeper) {
	perMinute := a.Config.RateLimit.PerMinute

	if a.Config.RateLimit.Backend == "redis" {
		client := ratelimit.NewRedisClient(a.Config.RateLimit.RedisAddr)
		a.closers = append(a.closers, func() { _ = client.Close() })

		limiter := ratelimit.NewRedisFixedWindow(client, perMinute, time.Minute, rateLimitKeyPrefix)
		if !limiter.Healthy(ctx) {
			slog.Warn("Redis unreachable at startup; requests are allowed until it recovers", "addr", a.Config.RateLimit.RedisAddr)
		}
		return limiter, nil
	}

	bucket := ratelimit.NewTokenBucket(perMinute, perMinute)
	return bucket, bucket
}

// Close releases database and redis connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
