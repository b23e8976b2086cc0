package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
)

// Sweeper drops idle rate limiter state.
type Sweeper interface {
	Sweep() int
}

type AttendanceJobs struct {
	attendanceRepo attendance.AttendanceRepository
	metrics        *metrics.Metrics
	limiter        Sweeper
}

// NewAttendanceJobs builds the periodic housekeeping jobs. limiter may be nil
// when the rate limiter keeps no local state.
func NewAttendanceJobs(attendanceRepo attendance.AttendanceRepository, m *metrics.Metrics, limiter Sweeper) *AttendanceJobs {
	return &AttendanceJobs{
		attendanceRepo: attendanceRepo,
		metrics:        m,
		limiter:        limiter,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("refresh_members_working", interval, j.RefreshMembersWorking)
	if j.limiter != nil {
		scheduler.AddJob("sweep_rate_limiter", 10*time.Minute, j.SweepRateLimiter)
	}
}

// RefreshMembersWorking resets the members-working gauge from the database,
// correcting any drift from the in-request increments.
func (j *AttendanceJobs) RefreshMembersWorking(ctx context.Context) error {
	count, err := j.attendanceRepo.CountOpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("count open sessions: %w", err)
	}
	j.metrics.SetMembersWorking(count)
	slog.Debug("Cron: members working refreshed", "count", count)
	return nil
}

func (j *AttendanceJobs) SweepRateLimiter(ctx context.Context) error {
	if removed := j.limiter.Sweep(); removed > 0 {
		slog.Debug("Cron: rate limiter swept", "removed", removed)
	}
	return nil
}
