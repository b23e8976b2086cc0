package member

import (
	"context"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
)

// MemberService covers a user's own profile and the administrator's view of
// every member. Administrative methods return auth.ErrForbidden for callers
// without the admin flag.
type MemberService interface {
	GetProfile(ctx context.Context, identity auth.Identity) (user.UserResponse, error)
	EditProfile(ctx context.Context, identity auth.Identity, req user.EditProfileRequest) (user.UserResponse, error)

	ListAllUsers(ctx context.Context, identity auth.Identity) ([]user.MemberResponse, error)
	UserDetails(ctx context.Context, identity auth.Identity, userID string) (attendance.MemberDetailResponse, error)
	DeleteUser(ctx context.Context, identity auth.Identity, userID string) error

	// SetAdmin is used from the command line and is not gated by an identity.
	SetAdmin(ctx context.Context, req user.SetAdminRequest) error
}
