package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/metrics"
	"github.com/google/uuid"
)

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	user.UserRepository
	clock     clock.Clock
	publisher attendance.EventPublisher
	metrics   *metrics.Metrics
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, identity auth.Identity) (attendance.AttendanceResponse, error) {
	now := a.clock.Now()

	if _, err := a.UserRepository.GetByID(ctx, identity.UserID); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to load user: %w", err)
	}

	working, err := a.AttendanceRepository.HasOpenSession(ctx, identity.UserID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check open session: %w", err)
	}
	if working {
		a.metrics.ObserveClockEvent(metrics.AlreadyClockedIn)
		return attendance.AttendanceResponse{}, attendance.ErrAlreadyClockedIn
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	created, err := a.AttendanceRepository.Create(ctx, attendance.Attendance{
		ID:        id.String(),
		UserID:    identity.UserID,
		ClockIn:   now,
		Status:    attendance.StatusClockedIn,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		// a concurrent clock-in won the race
		if errors.Is(err, attendance.ErrAlreadyClockedIn) {
			a.metrics.ObserveClockEvent(metrics.AlreadyClockedIn)
			return attendance.AttendanceResponse{}, err
		}
		// deleted between the lookup and the insert
		if errors.Is(err, user.ErrUserNotFound) {
			return attendance.AttendanceResponse{}, err
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to create attendance: %w", err)
	}

	a.metrics.ObserveClockEvent(metrics.ClockIn)
	a.metrics.AddMembersWorking(1)
	a.publish(attendance.EventClockIn, created, now)

	slog.Info("User clocked in", "user_id", identity.UserID, "attendance_id", created.ID)
	return attendance.NewAttendanceResponse(created, a.clock.Location()), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, identity auth.Identity) (attendance.ClockOutResult, error) {
	now := a.clock.Now()
	noRecord := attendance.ClockOutResult{ClockedOut: false, Notice: attendance.NoticeNoOpenSession}

	open, err := a.AttendanceRepository.GetOpenSession(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			a.metrics.ObserveClockEvent(metrics.ClockOutNoRecord)
			return noRecord, nil
		}
		return attendance.ClockOutResult{}, fmt.Errorf("failed to get open session: %w", err)
	}

	closed, err := a.AttendanceRepository.Close(ctx, open.ID, now)
	if err != nil {
		// closed by a concurrent request in the meantime
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			a.metrics.ObserveClockEvent(metrics.ClockOutNoRecord)
			return noRecord, nil
		}
		return attendance.ClockOutResult{}, fmt.Errorf("failed to close attendance: %w", err)
	}

	a.metrics.ObserveClockEvent(metrics.ClockOut)
	a.metrics.AddMembersWorking(-1)
	a.publish(attendance.EventClockOut, closed, now)

	slog.Info("User clocked out", "user_id", identity.UserID, "attendance_id", closed.ID,
		"work_time", attendance.FormatElapsed(closed.ClockIn, closed.ClockOut))

	record := attendance.NewAttendanceResponse(closed, a.clock.Location())
	return attendance.ClockOutResult{ClockedOut: true, Record: &record}, nil
}

// IsCurrentlyWorking implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) IsCurrentlyWorking(ctx context.Context, userID string) (bool, error) {
	working, err := a.AttendanceRepository.HasOpenSession(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check open session: %w", err)
	}
	return working, nil
}

// ListRecords implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListRecords(ctx context.Context, userID string) ([]attendance.Attendance, error) {
	records, err := a.AttendanceRepository.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	return records, nil
}

// MyPage implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) MyPage(ctx context.Context, identity auth.Identity) (attendance.MyPageResponse, error) {
	now := a.clock.Now()

	userData, err := a.UserRepository.GetByID(ctx, identity.UserID)
	if err != nil {
		return attendance.MyPageResponse{}, err
	}

	records, err := a.ListRecords(ctx, identity.UserID)
	if err != nil {
		return attendance.MyPageResponse{}, err
	}

	onWork := false
	for _, r := range records {
		if r.IsOpen() {
			onWork = true
			break
		}
	}

	return attendance.MyPageResponse{
		User:    user.NewUserResponse(userData, now),
		Records: attendance.NewAttendanceResponses(records, a.clock.Location()),
		OnWork:  onWork,
		Now:     now.Format(time.RFC3339),
	}, nil
}

func (a *AttendanceServiceImpl) publish(eventType string, record attendance.Attendance, at time.Time) {
	if a.publisher == nil {
		return
	}
	a.publisher.PublishClockEvent(attendance.ClockEvent{
		Type:         eventType,
		UserID:       record.UserID,
		AttendanceID: record.ID,
		At:           at,
	})
}

// NewAttendanceService builds the ledger. publisher and m may be nil.
func NewAttendanceService(
	attendanceRepository attendance.AttendanceRepository,
	userRepository user.UserRepository,
	clk clock.Clock,
	publisher attendance.EventPublisher,
	m *metrics.Metrics,
) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepository,
		UserRepository:       userRepository,
		clock:                clk,
		publisher:            publisher,
		metrics:              m,
	}
}
