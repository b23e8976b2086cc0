package attendance

import (
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
)

const (
	MessageClockedIn    = "出勤しました．今日も一日頑張りましょう☕️"
	MessageClockedOut   = "退勤しました．お疲れ様でした🍵"
	NoticeNoOpenSession = "⚠️出勤記録が見つかりません．"
)

type AttendanceResponse struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	ClockIn           string  `json:"clock_in"`
	ClockOut          *string `json:"clock_out"`
	Status            string  `json:"status"`
	FormattedWorkTime string  `json:"formatted_work_time"`
}

// NewAttendanceResponse renders a record with timestamps in loc.
func NewAttendanceResponse(a Attendance, loc *time.Location) AttendanceResponse {
	resp := AttendanceResponse{
		ID:                a.ID,
		UserID:            a.UserID,
		ClockIn:           a.ClockIn.In(loc).Format(time.RFC3339),
		Status:            a.Status.String(),
		FormattedWorkTime: FormatElapsed(a.ClockIn, a.ClockOut),
	}
	if a.ClockOut != nil {
		clockOut := a.ClockOut.In(loc).Format(time.RFC3339)
		resp.ClockOut = &clockOut
	}
	return resp
}

func NewAttendanceResponses(records []Attendance, loc *time.Location) []AttendanceResponse {
	responses := make([]AttendanceResponse, 0, len(records))
	for _, a := range records {
		responses = append(responses, NewAttendanceResponse(a, loc))
	}
	return responses
}

// ClockOutResult reports a clock-out. ClockedOut is false, with Notice set,
// when the user had no open record.
type ClockOutResult struct {
	ClockedOut bool                `json:"clocked_out"`
	Notice     string              `json:"notice,omitempty"`
	Record     *AttendanceResponse `json:"record,omitempty"`
}

type WorkingStatusResponse struct {
	OnWork bool `json:"on_work"`
}

type MyPageResponse struct {
	User    user.UserResponse    `json:"user"`
	Records []AttendanceResponse `json:"records"`
	OnWork  bool                 `json:"on_work"`
	Now     string               `json:"now"`
}

type MemberDetailResponse struct {
	User    user.UserResponse    `json:"user"`
	Records []AttendanceResponse `json:"records"`
	OnWork  bool                 `json:"on_work"`
}

const (
	EventClockIn  = "clock_in"
	EventClockOut = "clock_out"
)

// ClockEvent is broadcast to administrators watching the live feed.
type ClockEvent struct {
	Type         string    `json:"type"`
	UserID       string    `json:"user_id"`
	AttendanceID string    `json:"attendance_id"`
	At           time.Time `json:"at"`
}
