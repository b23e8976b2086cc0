package auth

import (
	"time"

	"github.com/cmlabs-hris/kintai-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/kintai-backend-go/internal/pkg/validator"
)

type SignupRequest struct {
	Username    string      `json:"username"`
	Birthday    string      `json:"birthday"`
	Gender      user.Gender `json:"gender"`
	PhoneNumber string      `json:"phone_number"`
	Email       string      `json:"email"`
	Password    string      `json:"password"`
}

// Validate checks the signup form. today is used to reject birthdays in the
// future.
func (r *SignupRequest) Validate(today time.Time) error {
	var errs validator.ValidationErrors

	// Username
	if validator.IsEmpty(r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "username",
			Message: "username is required",
		})
	} else if validator.CharLen(r.Username) > user.MaxUsernameLength {
		errs = append(errs, validator.ValidationError{
			Field:   "username",
			Message: "username must not exceed 20 characters",
		})
	}

	// Birthday
	if validator.IsEmpty(r.Birthday) {
		errs = append(errs, validator.ValidationError{
			Field:   "birthday",
			Message: "birthday is required",
		})
	} else if birthday, ok := validator.IsValidDate(r.Birthday); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "birthday",
			Message: "birthday must be in YYYY-MM-DD format",
		})
	} else if birthday.After(today) {
		errs = append(errs, validator.ValidationError{
			Field:   "birthday",
			Message: "birthday must not be in the future",
		})
	}

	// Gender
	if !r.Gender.Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "gender",
			Message: "gender must be one of 0 (male), 1 (female), 2 (unspecified)",
		})
	}

	// Phone number (optional)
	if r.PhoneNumber != "" && !validator.IsValidPhoneNumber(r.PhoneNumber) {
		errs = append(errs, validator.ValidationError{
			Field:   "phone_number",
			Message: "phone_number may only contain digits, spaces, hyphens and a leading +, up to 15 characters",
		})
	}

	// Email
	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if len(r.Email) > user.MaxEmailLength {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must not exceed 100 characters",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	// Password
	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	} else if len(r.Password) < user.MinPasswordLength {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 8 characters long",
		})
	} else if len(r.Password) > user.MaxPasswordLength {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must not exceed 72 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// BirthdayDate parses Birthday; it is only meaningful after Validate passed.
func (r *SignupRequest) BirthdayDate() (time.Time, bool) {
	return validator.IsValidDate(r.Birthday)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}

	if validator.IsEmpty(r.Password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r *RefreshTokenRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.RefreshToken) {
		errs = append(errs, validator.ValidationError{
			Field:   "refresh_token",
			Message: "refresh_token is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type SessionTrackingRequest struct {
	UserAgent string
	IPAddress string
}

type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	AccessTokenExpiresIn  int64  `json:"access_token_expires_in"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in"`
}

type AccessTokenResponse struct {
	AccessToken          string `json:"access_token"`
	AccessTokenExpiresIn int64  `json:"access_token_expires_in"`
}
