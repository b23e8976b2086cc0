package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/member"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type MemberHandler interface {
	GetProfile(w http.ResponseWriter, r *http.Request)
	EditProfile(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type memberHandlerImpl struct {
	memberService member.MemberService
}

func NewMemberHandler(memberService member.MemberService) MemberHandler {
	return &memberHandlerImpl{
		memberService: memberService,
	}
}

// memberIDParam answers ids that cannot exist with 404.
func memberIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if !validator.IsValidUUID(id) {
		response.HandleError(w, user.ErrUserNotFound)
		return "", false
	}
	return id, true
}

// GetProfile implements MemberHandler.
func (h *memberHandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	profile, err := h.memberService.GetProfile(r.Context(), identity)
	if err != nil {
		slog.Error("GetProfile service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	response.Success(w, profile)
}

// EditProfile implements MemberHandler.
func (h *memberHandlerImpl) EditProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req user.EditProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("EditProfile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	// Validate DTO
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	profile, err := h.memberService.EditProfile(r.Context(), identity, req)
	if err != nil {
		slog.Error("EditProfile service error", "error", err, "user_id", identity.UserID)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Profile updated successfully", profile)
}

// List implements MemberHandler.
func (h *memberHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	members, err := h.memberService.ListAllUsers(r.Context(), identity)
	if err != nil {
		slog.Error("ListAllUsers service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, members, &response.Meta{TotalItems: int64(len(members))})
}

// Get implements MemberHandler.
func (h *memberHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	details, err := h.memberService.UserDetails(r.Context(), identity, id)
	if err != nil {
		slog.Error("UserDetails service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, details)
}

// Delete implements MemberHandler.
func (h *memberHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityOrUnauthorized(w, r)
	if !ok {
		return
	}

	id, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	if err := h.memberService.DeleteUser(r.Context(), identity, id); err != nil {
		slog.Error("DeleteUser service error", "error", err, "target_user_id", id)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Member deleted successfully", nil)
}
