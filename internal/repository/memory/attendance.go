package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
)

type attendanceRepository struct {
	store *Store
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	defer r.store.lockWrite(ctx)()

	// attendances.user_id references users(id)
	if _, ok := r.store.users[newAttendance.UserID]; !ok {
		return attendance.Attendance{}, user.ErrUserNotFound
	}
	if newAttendance.Status == attendance.StatusClockedIn {
		for _, a := range r.store.attendances {
			if a.UserID == newAttendance.UserID && a.Status == attendance.StatusClockedIn {
				return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
			}
		}
	}
	r.store.attendances[newAttendance.ID] = newAttendance
	return newAttendance, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetOpenSession(ctx context.Context, userID string) (attendance.Attendance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.attendances {
		if a.UserID == userID && a.IsOpen() {
			return a, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

// Close implements attendance.AttendanceRepository.
func (r *attendanceRepository) Close(ctx context.Context, id string, clockOut time.Time) (attendance.Attendance, error) {
	defer r.store.lockWrite(ctx)()

	a, ok := r.store.attendances[id]
	if !ok || a.Status != attendance.StatusClockedIn {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	a.ClockOut = &clockOut
	a.Status = attendance.StatusClockedOut
	a.UpdatedAt = clockOut
	r.store.attendances[id] = a
	return a, nil
}

// HasOpenSession implements attendance.AttendanceRepository.
func (r *attendanceRepository) HasOpenSession(ctx context.Context, userID string) (bool, error) {
	_, err := r.GetOpenSession(ctx, userID)
	if err == attendance.ErrAttendanceNotFound {
		return false, nil
	}
	return err == nil, err
}

// ListByUserID implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByUserID(ctx context.Context, userID string) ([]attendance.Attendance, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	records := []attendance.Attendance{}
	for _, a := range r.store.attendances {
		if a.UserID == userID {
			records = append(records, a)
		}
	}
	slices.SortFunc(records, func(a, b attendance.Attendance) int {
		if c := a.ClockIn.Compare(b.ClockIn); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return records, nil
}

// DeleteByUserID implements attendance.AttendanceRepository.
func (r *attendanceRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	defer r.store.lockWrite(ctx)()

	var deleted int64
	for id, a := range r.store.attendances {
		if a.UserID == userID {
			delete(r.store.attendances, id)
			deleted++
		}
	}
	return deleted, nil
}

// CountOpenSessions implements attendance.AttendanceRepository.
func (r *attendanceRepository) CountOpenSessions(ctx context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, a := range r.store.attendances {
		if a.IsOpen() {
			count++
		}
	}
	return count, nil
}
