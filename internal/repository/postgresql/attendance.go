package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	attendanceColumns = `id, user_id, clock_in, clock_out, status, created_at, updated_at`

	// partial unique index on attendances(user_id) WHERE status = 1
	attendancesOneOpenPerUser = "attendances_one_open_per_user"

	attendancesUserIDFkey = "attendances_user_id_fkey"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID,
		&att.UserID,
		&att.ClockIn,
		&att.ClockOut,
		&att.Status,
		&att.CreatedAt,
		&att.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, err
	}
	return att, nil
}

// Create implements attendance.AttendanceRepository.
func (a *attendanceRepository) Create(ctx context.Context, newAttendance attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (id, user_id, clock_in, clock_out, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + attendanceColumns

	created, err := scanAttendance(q.QueryRow(ctx, query,
		newAttendance.ID,
		newAttendance.UserID,
		newAttendance.ClockIn,
		newAttendance.ClockOut,
		newAttendance.Status,
		newAttendance.CreatedAt,
		newAttendance.UpdatedAt,
	))
	if err != nil {
		if database.IsUniqueViolation(err, attendancesOneOpenPerUser) {
			return attendance.Attendance{}, attendance.ErrAlreadyClockedIn
		}
		if database.IsForeignKeyViolation(err, attendancesUserIDFkey) {
			return attendance.Attendance{}, user.ErrUserNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// GetOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetOpenSession(ctx context.Context, userID string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE user_id = $1
		  AND status = $2
		  AND clock_out IS NULL
		ORDER BY clock_in DESC
		LIMIT 1
	`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, attendance.StatusClockedIn))
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, fmt.Errorf("failed to get open session: %w", err)
	}
	return att, err
}

// Close implements attendance.AttendanceRepository.
func (a *attendanceRepository) Close(ctx context.Context, id string, clockOut time.Time) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET clock_out = $2, status = $3, updated_at = $2
		WHERE id = $1 AND status = $4
		RETURNING ` + attendanceColumns

	closed, err := scanAttendance(q.QueryRow(ctx, query, id, clockOut, attendance.StatusClockedOut, attendance.StatusClockedIn))
	if err != nil && !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, fmt.Errorf("failed to close attendance: %w", err)
	}
	return closed, err
}

// HasOpenSession implements attendance.AttendanceRepository.
func (a *attendanceRepository) HasOpenSession(ctx context.Context, userID string) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT EXISTS(SELECT 1 FROM attendances WHERE user_id = $1 AND status = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, userID, attendance.StatusClockedIn).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check open session: %w", err)
	}
	return exists, nil
}

// ListByUserID implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByUserID(ctx context.Context, userID string) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE user_id = $1
		ORDER BY clock_in ASC, id ASC
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	defer rows.Close()

	records := []attendance.Attendance{}
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, att)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByUserID implements attendance.AttendanceRepository.
func (a *attendanceRepository) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	q := GetQuerier(ctx, a.db)

	tag, err := q.Exec(ctx, `DELETE FROM attendances WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete attendances: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountOpenSessions implements attendance.AttendanceRepository.
func (a *attendanceRepository) CountOpenSessions(ctx context.Context) (int64, error) {
	q := GetQuerier(ctx, a.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM attendances WHERE status = $1`, attendance.StatusClockedIn).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}
	return count, nil
}
