package attendance

import (
	"context"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
)

// AttendanceService is the ledger of work sessions for a user.
type AttendanceService interface {
	ClockIn(ctx context.Context, identity auth.Identity) (AttendanceResponse, error)

	// ClockOut closes the caller's open record. Without one nothing changes
	// and the result carries a notice instead of an error.
	ClockOut(ctx context.Context, identity auth.Identity) (ClockOutResult, error)

	IsCurrentlyWorking(ctx context.Context, userID string) (bool, error)
	ListRecords(ctx context.Context, userID string) ([]Attendance, error)
	MyPage(ctx context.Context, identity auth.Identity) (MyPageResponse, error)
}

// EventPublisher receives clock-in and clock-out notifications.
type EventPublisher interface {
	PublishClockEvent(event ClockEvent)
}
