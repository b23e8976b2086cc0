package auth

// Identity is the authenticated caller: the stored user behind a verified
// access token, handed to services explicitly.
type Identity struct {
	UserID  string
	Email   string
	IsAdmin bool
}

// RequireAdmin returns ErrForbidden unless the caller is an administrator.
func (i Identity) RequireAdmin() error {
	if !i.IsAdmin {
		return ErrForbidden
	}
	return nil
}
