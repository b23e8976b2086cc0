package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/member"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
	authservice "github.com/cmlabs-hris/kintai-backend-go/internal/service/auth"
)

type MemberServiceImpl struct {
	txManager database.TxManager
	user.UserRepository
	attendance.AttendanceRepository
	clock clock.Clock
}

func NewMemberService(
	txManager database.TxManager,
	userRepository user.UserRepository,
	attendanceRepository attendance.AttendanceRepository,
	clk clock.Clock,
) member.MemberService {
	return &MemberServiceImpl{
		txManager:            txManager,
		UserRepository:       userRepository,
		AttendanceRepository: attendanceRepository,
		clock:                clk,
	}
}

// GetProfile implements member.MemberService.
func (m *MemberServiceImpl) GetProfile(ctx context.Context, identity auth.Identity) (user.UserResponse, error) {
	userData, err := m.UserRepository.GetByID(ctx, identity.UserID)
	if err != nil {
		return user.UserResponse{}, err
	}
	return user.NewUserResponse(userData, m.clock.Now()), nil
}

// EditProfile implements member.MemberService.
func (m *MemberServiceImpl) EditProfile(ctx context.Context, identity auth.Identity, req user.EditProfileRequest) (user.UserResponse, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		req.Email = &trimmed
	}
	if err := req.Validate(); err != nil {
		return user.UserResponse{}, err
	}

	now := m.clock.Now()
	var updated user.User

	err := m.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		userData, err := m.UserRepository.GetByID(txCtx, identity.UserID)
		if err != nil {
			return err
		}

		if req.Username != nil {
			userData.Username = *req.Username
		}
		if req.Email != nil && *req.Email != userData.Email {
			exists, err := m.UserRepository.ExistsByEmail(txCtx, *req.Email)
			if err != nil {
				return fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return user.ErrUserEmailExists
			}
			userData.Email = *req.Email
		}
		if req.PhoneNumber != nil {
			if *req.PhoneNumber == "" {
				userData.PhoneNumber = nil
			} else {
				phone := *req.PhoneNumber
				userData.PhoneNumber = &phone
			}
		}
		if req.Password != nil {
			hash, err := authservice.HashPassword(*req.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			userData.PasswordHash = hash
		}
		userData.UpdatedAt = now

		updated, err = m.UserRepository.Update(txCtx, userData)
		return err
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrUserEmailExists) {
			return user.UserResponse{}, err
		}
		return user.UserResponse{}, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("Profile updated", "user_id", updated.ID)
	return user.NewUserResponse(updated, now), nil
}

// ListAllUsers implements member.MemberService.
func (m *MemberServiceImpl) ListAllUsers(ctx context.Context, identity auth.Identity) ([]user.MemberResponse, error) {
	if err := identity.RequireAdmin(); err != nil {
		return nil, err
	}

	members, err := m.UserRepository.ListWithWorkingStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	now := m.clock.Now()
	responses := make([]user.MemberResponse, 0, len(members))
	for _, mem := range members {
		responses = append(responses, user.MemberResponse{
			UserResponse: user.NewUserResponse(mem.User, now),
			OnWork:       mem.OnWork,
		})
	}
	return responses, nil
}

// UserDetails implements member.MemberService.
func (m *MemberServiceImpl) UserDetails(ctx context.Context, identity auth.Identity, userID string) (attendance.MemberDetailResponse, error) {
	if err := identity.RequireAdmin(); err != nil {
		return attendance.MemberDetailResponse{}, err
	}

	userData, err := m.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return attendance.MemberDetailResponse{}, err
	}

	records, err := m.AttendanceRepository.ListByUserID(ctx, userID)
	if err != nil {
		return attendance.MemberDetailResponse{}, fmt.Errorf("failed to list attendances: %w", err)
	}

	onWork := false
	for _, r := range records {
		if r.IsOpen() {
			onWork = true
			break
		}
	}

	return attendance.MemberDetailResponse{
		User:    user.NewUserResponse(userData, m.clock.Now()),
		Records: attendance.NewAttendanceResponses(records, m.clock.Location()),
		OnWork:  onWork,
	}, nil
}

// DeleteUser implements member.MemberService. Records go first, then the
// account, in one transaction.
func (m *MemberServiceImpl) DeleteUser(ctx context.Context, identity auth.Identity, userID string) error {
	if err := identity.RequireAdmin(); err != nil {
		return err
	}

	var removed int64
	err := m.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		removed, err = m.AttendanceRepository.DeleteByUserID(txCtx, userID)
		if err != nil {
			return err
		}
		return m.UserRepository.Delete(txCtx, userID)
	})
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("User deleted", "user_id", userID, "deleted_by", identity.UserID, "attendances_removed", removed)
	return nil
}

// SetAdmin implements member.MemberService.
func (m *MemberServiceImpl) SetAdmin(ctx context.Context, req user.SetAdminRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return err
	}

	if err := m.UserRepository.UpdateAdmin(ctx, req.Email, req.IsAdmin); err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("failed to update admin flag: %w", err)
	}

	slog.Info("Admin flag updated", "email", req.Email, "is_admin", req.IsAdmin)
	return nil
}
