package attendance

import "errors"

var (
	ErrAlreadyClockedIn   = errors.New("⚠️すでに出勤しています．")
	ErrAttendanceNotFound = errors.New("attendance record not found")
)
