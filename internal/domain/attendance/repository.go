package attendance

import (
	"context"
	"time"
)

// AttendanceRepository stores work sessions. Implementations reject a second
// open record for the same user with ErrAlreadyClockedIn.
type AttendanceRepository interface {
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetOpenSession returns the user's open record or ErrAttendanceNotFound.
	GetOpenSession(ctx context.Context, userID string) (Attendance, error)

	// Close stamps clockOut on the open record id and flips it to
	// StatusClockedOut. A record that is no longer open yields
	// ErrAttendanceNotFound.
	Close(ctx context.Context, id string, clockOut time.Time) (Attendance, error)

	HasOpenSession(ctx context.Context, userID string) (bool, error)

	// ListByUserID returns the user's records ordered by clock-in time, then id.
	ListByUserID(ctx context.Context, userID string) ([]Attendance, error)

	DeleteByUserID(ctx context.Context, userID string) (int64, error)

	// CountOpenSessions counts users currently clocked in.
	CountOpenSessions(ctx context.Context) (int64, error)
}
