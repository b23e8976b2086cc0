package user

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserEmailExists        = errors.New("email already registered")
	ErrOAuthProviderIDExists  = errors.New("oauth provider id already registered")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
	ErrPasswordEmpty          = errors.New("⚠️パスワードが入力されていません．")
)
