package cron

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/kintai-backend-go/internal/repository/memory"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct{ calls int }

func (s *countingSweeper) Sweep() int {
	s.calls++
	return 0
}

func TestRefreshMembersWorking(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	repo := store.Attendances()
	now := time.Now()

	for _, userID := range []string{"u1", "u2"} {
		_, err := store.Users().Create(ctx, user.User{ID: userID, Email: userID + "@example.com", CreatedAt: now})
		require.NoError(t, err)
		_, err = repo.Create(ctx, attendance.Attendance{ID: "a-" + userID, UserID: userID, ClockIn: now, Status: attendance.StatusClockedIn})
		require.NoError(t, err)
	}
	_, err := repo.Close(ctx, "a-u2", now.Add(time.Hour))
	require.NoError(t, err)

	m := metrics.New()
	jobs := NewAttendanceJobs(repo, m, nil)
	require.NoError(t, jobs.RefreshMembersWorking(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MembersWorkingGauge()))
}

func TestScheduler_RunOnceAndStop(t *testing.T) {
	sweeper := &countingSweeper{}
	jobs := NewAttendanceJobs(memory.NewStore().Attendances(), nil, sweeper)

	scheduler := NewScheduler()
	jobs.RegisterJobs(scheduler, time.Hour)
	scheduler.RunOnce(context.Background())
	assert.Equal(t, 1, sweeper.calls)

	scheduler.Start(context.Background())
	scheduler.Stop()
	assert.GreaterOrEqual(t, sweeper.calls, 2)
}
