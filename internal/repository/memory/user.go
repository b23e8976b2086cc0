package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
)

type userRepository struct {
	store *Store
}

// GetByEmail implements user.UserRepository.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, u := range r.store.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

// GetByID implements user.UserRepository.
func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	u, ok := r.store.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

// Create implements user.UserRepository.
func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	defer r.store.lockWrite(ctx)()

	if err := r.checkUnique(newUser); err != nil {
		return user.User{}, err
	}
	r.store.users[newUser.ID] = newUser
	return newUser, nil
}

// ExistsByEmail implements user.UserRepository.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == user.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

// Update implements user.UserRepository.
func (r *userRepository) Update(ctx context.Context, u user.User) (user.User, error) {
	defer r.store.lockWrite(ctx)()

	existing, ok := r.store.users[u.ID]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	if err := r.checkUnique(u); err != nil {
		return user.User{}, err
	}

	existing.Username = u.Username
	existing.Email = u.Email
	existing.PhoneNumber = u.PhoneNumber
	existing.PasswordHash = u.PasswordHash
	existing.UpdatedAt = u.UpdatedAt
	r.store.users[u.ID] = existing
	return existing, nil
}

// UpdateAdmin implements user.UserRepository.
func (r *userRepository) UpdateAdmin(ctx context.Context, email string, isAdmin bool) error {
	defer r.store.lockWrite(ctx)()

	for id, u := range r.store.users {
		if u.Email == email {
			u.IsAdmin = isAdmin
			u.UpdatedAt = time.Now()
			r.store.users[id] = u
			return nil
		}
	}
	return user.ErrUserNotFound
}

// LinkGoogleAccount implements user.UserRepository.
func (r *userRepository) LinkGoogleAccount(ctx context.Context, googleID string, email string) (user.User, error) {
	defer r.store.lockWrite(ctx)()

	for id, u := range r.store.users {
		if u.Email != email {
			continue
		}
		u.OAuthProviderID = &googleID
		if err := r.checkUnique(u); err != nil {
			return user.User{}, err
		}
		u.UpdatedAt = time.Now()
		r.store.users[id] = u
		return u, nil
	}
	return user.User{}, user.ErrUserNotFound
}

// ListWithWorkingStatus implements user.UserRepository.
func (r *userRepository) ListWithWorkingStatus(ctx context.Context) ([]user.Member, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	onWork := make(map[string]bool)
	for _, a := range r.store.attendances {
		if a.IsOpen() {
			onWork[a.UserID] = true
		}
	}

	members := make([]user.Member, 0, len(r.store.users))
	for _, u := range r.store.users {
		members = append(members, user.Member{User: u, OnWork: onWork[u.ID]})
	}
	slices.SortFunc(members, func(a, b user.Member) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return members, nil
}

// Delete implements user.UserRepository. Owned rows go with the user, as the
// foreign keys cascade in postgres.
func (r *userRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lockWrite(ctx)()

	if _, ok := r.store.users[id]; !ok {
		return user.ErrUserNotFound
	}
	delete(r.store.users, id)
	for attID, a := range r.store.attendances {
		if a.UserID == id {
			delete(r.store.attendances, attID)
		}
	}
	for hash, token := range r.store.refreshTokens {
		if token.userID == id {
			delete(r.store.refreshTokens, hash)
		}
	}
	return nil
}

// checkUnique must be called with the store lock held.
func (r *userRepository) checkUnique(candidate user.User) error {
	for id, u := range r.store.users {
		if id == candidate.ID {
			continue
		}
		if u.Email == candidate.Email {
			return user.ErrUserEmailExists
		}
		if candidate.OAuthProviderID != nil && u.OAuthProviderID != nil && *u.OAuthProviderID == *candidate.OAuthProviderID {
			return user.ErrOAuthProviderIDExists
		}
	}
	return nil
}
