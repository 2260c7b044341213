package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAdminDisabled      = errors.New("admin login is not configured")
	ErrMissingSecret      = errors.New("jwt secret is not set")
)
