package user

import (
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/validator"
)

const (
	MaxUsernameLength = 20
	MaxEmailLength    = 100
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Birthday    string  `json:"birthday"`
	Age         int     `json:"age"`
	Gender      Gender  `json:"gender"`
	GenderLabel string  `json:"gender_label"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Email       string  `json:"email"`
	IsAdmin     bool    `json:"is_admin"`
	CreatedAt   string  `json:"created_at"`
}

func NewUserResponse(u User, today time.Time) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Birthday:    u.Birthday.Format("2006-01-02"),
		Age:         u.Age(today),
		Gender:      u.Gender,
		GenderLabel: u.Gender.Label(),
		PhoneNumber: u.PhoneNumber,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

// MemberResponse is a row of the administrator's member list.
type MemberResponse struct {
	UserResponse
	OnWork bool `json:"on_work"`
}

// EditProfileRequest carries the profile fields a user may change. Nil fields
// are left untouched; a password that is present must not be empty.
type EditProfileRequest struct {
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Password    *string `json:"password,omitempty"`
}

func (r *EditProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Username != nil {
		if validator.IsEmpty(*r.Username) {
			errs = append(errs, validator.ValidationError{
				Field:   "username",
				Message: "username must not be empty",
			})
		} else if validator.CharLen(*r.Username) > MaxUsernameLength {
			errs = append(errs, validator.ValidationError{
				Field:   "username",
				Message: "username must not exceed 20 characters",
			})
		}
	}

	if r.Email != nil {
		if validator.IsEmpty(*r.Email) {
			errs = append(errs, validator.ValidationError{
				Field:   "email",
				Message: "email must not be empty",
			})
		} else if len(*r.Email) > MaxEmailLength || !validator.IsValidEmail(*r.Email) {
			errs = append(errs, validator.ValidationError{
				Field:   "email",
				Message: "invalid email format",
			})
		}
	}

	if r.PhoneNumber != nil && *r.PhoneNumber != "" && !validator.IsValidPhoneNumber(*r.PhoneNumber) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone_number",
			Message: "invalid phone number",
		})
	}

	if r.Password != nil {
		if *r.Password == "" {
			errs = append(errs, validator.ValidationError{
				Field:   "password",
				Message: ErrPasswordEmpty.Error(),
			})
		} else if len(*r.Password) < MinPasswordLength {
			errs = append(errs, validator.ValidationError{
				Field:   "password",
				Message: "password must be at least 8 characters",
			})
		} else if len(*r.Password) > MaxPasswordLength {
			errs = append(errs, validator.ValidationError{
				Field:   "password",
				Message: "password must not exceed 72 characters",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// SetAdminRequest grants or revokes the administrator flag by email.
type SetAdminRequest struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func (r *SetAdminRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "invalid email format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}
