package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const (
	userColumns = `id, username, birthday, gender, phone_number, email, password_hash,
		is_admin, oauth_provider_id, created_at, updated_at`

	usersEmailKey           = "users_email_key"
	usersOAuthProviderIDKey = "users_oauth_provider_id_key"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Birthday,
		&u.Gender,
		&u.PhoneNumber,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.OAuthProviderID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func mapUserWriteError(err error) error {
	switch {
	case database.IsUniqueViolation(err, usersEmailKey):
		return user.ErrUserEmailExists
	case database.IsUniqueViolation(err, usersOAuthProviderIDKey):
		return user.ErrOAuthProviderIDExists
	default:
		return err
	}
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, err
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, err
}

// ExistsByEmail implements user.UserRepository.
func (r *userRepositoryImpl) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (
			id, username, birthday, gender, phone_number, email, password_hash,
			is_admin, oauth_provider_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	created, err := scanUser(q.QueryRow(ctx, query,
		newUser.ID,
		newUser.Username,
		newUser.Birthday,
		newUser.Gender,
		newUser.PhoneNumber,
		newUser.Email,
		newUser.PasswordHash,
		newUser.IsAdmin,
		newUser.OAuthProviderID,
		newUser.CreatedAt,
		newUser.UpdatedAt,
	))
	if err != nil {
		return user.User{}, mapUserWriteError(err)
	}
	return created, nil
}

// Update implements user.UserRepository.
func (r *userRepositoryImpl) Update(ctx context.Context, u user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET username = $2, email = $3, phone_number = $4, password_hash = $5, updated_at = $6
		WHERE id = $1
		RETURNING ` + userColumns

	updated, err := scanUser(q.QueryRow(ctx, query,
		u.ID,
		u.Username,
		u.Email,
		u.PhoneNumber,
		u.PasswordHash,
		u.UpdatedAt,
	))
	if err != nil {
		return user.User{}, mapUserWriteError(err)
	}
	return updated, nil
}

// UpdateAdmin implements user.UserRepository.
func (r *userRepositoryImpl) UpdateAdmin(ctx context.Context, email string, isAdmin bool) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE users SET is_admin = $2, updated_at = NOW() WHERE email = $1`, email, isAdmin)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// LinkGoogleAccount implements user.UserRepository.
func (r *userRepositoryImpl) LinkGoogleAccount(ctx context.Context, googleID string, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET oauth_provider_id = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING ` + userColumns

	updated, err := scanUser(q.QueryRow(ctx, query, googleID, email))
	if err != nil {
		return user.User{}, mapUserWriteError(err)
	}
	return updated, nil
}

// ListWithWorkingStatus implements user.UserRepository.
func (r *userRepositoryImpl) ListWithWorkingStatus(ctx context.Context) ([]user.Member, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT u.id, u.username, u.birthday, u.gender, u.phone_number, u.email, u.password_hash,
			   u.is_admin, u.oauth_provider_id, u.created_at, u.updated_at,
			   EXISTS(SELECT 1 FROM attendances a WHERE a.user_id = u.id AND a.status = $1) AS on_work
		FROM users u
		ORDER BY u.created_at ASC, u.id ASC
	`

	rows, err := q.Query(ctx, query, attendance.StatusClockedIn)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	members := []user.Member{}
	for rows.Next() {
		var m user.Member
		if err := rows.Scan(
			&m.ID,
			&m.Username,
			&m.Birthday,
			&m.Gender,
			&m.PhoneNumber,
			&m.Email,
			&m.PasswordHash,
			&m.IsAdmin,
			&m.OAuthProviderID,
			&m.CreatedAt,
			&m.UpdatedAt,
			&m.OnWork,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// Delete implements user.UserRepository.
func (r *userRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrUserNotFound
	}
	return nil
}
