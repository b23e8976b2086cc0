package attendance

import (
	"fmt"
	"time"
)

type Status int16

const (
	StatusClockedOut Status = 0
	StatusClockedIn  Status = 1
)

func (s Status) String() string {
	if s == StatusClockedIn {
		return "CLOCKED_IN"
	}
	return "CLOCKED_OUT"
}

// Attendance is one work session. A record is open while its status is
// StatusClockedIn and ClockOut is nil; a user holds at most one open record.
type Attendance struct {
	ID        string
	UserID    string
	ClockIn   time.Time
	ClockOut  *time.Time
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Attendance) IsOpen() bool {
	return a.Status == StatusClockedIn && a.ClockOut == nil
}

// UndeterminedWorkTime is shown for a session that has not been clocked out.
const UndeterminedWorkTime = "未確定"

// FormatElapsed renders the time worked between clockIn and clockOut as
// "H時間M分", truncating to whole minutes. A nil clockOut yields
// UndeterminedWorkTime and a negative span renders as zero.
func FormatElapsed(clockIn time.Time, clockOut *time.Time) string {
	if clockOut == nil {
		return UndeterminedWorkTime
	}
	seconds := int64(clockOut.Sub(clockIn) / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d時間%d分", seconds/3600, (seconds%3600)/60)
}
