package user

import (
	"context"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, newUser User) (User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, u User) (User, error)
	UpdateAdmin(ctx context.Context, email string, isAdmin bool) error
	LinkGoogleAccount(ctx context.Context, googleID string, email string) (User, error)
	// ListWithWorkingStatus returns every user, flagged when they hold an open record.
	ListWithWorkingStatus(ctx context.Context) ([]Member, error)
	// Delete removes the user row only; callers cascade the owned records first.
	Delete(ctx context.Context, id string) error
}
