package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/kintai-backend-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
	MyPage(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// identityOrUnauthorized writes a 401 when the route was mounted without
// AuthRequired.
func identityOrUnauthorized(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.HandleError(w, auth.ErrInvalidToken)
	}
	return identity, ok
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	record, err := h.attendanceService.ClockIn(r.Context(), identity)
	if err != nil {
		slog.Error("ClockIn service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	response.Created(w, attendance.MessageClockedIn, record)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ClockOut(r.Context(), identity)
	if err != nil {
		slog.Error("ClockOut service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	if !result.ClockedOut {
		response.Notice(w, result.Notice, result)
		return
	}
	response.SuccessWithMessage(w, attendance.MessageClockedOut, result)
}

// Status implements AttendanceHandler.
func (h *attendanceHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	onWork, err := h.attendanceService.IsCurrentlyWorking(r.Context(), identity.UserID)
	if err != nil {
		slog.Error("Status service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	response.Success(w, attendance.WorkingStatusResponse{OnWork: onWork})
}

// MyPage implements AttendanceHandler.
func (h *attendanceHandlerImpl) MyPage(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	page, err := h.attendanceService.MyPage(r.Context(), identity)
	if err != nil {
		slog.Error("MyPage service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	response.Success(w, page)
}
