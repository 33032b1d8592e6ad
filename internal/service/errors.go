package service

import "errors"

var (
	ErrValidation     = errors.New("invalid request")
	ErrAuthentication = errors.New("authentication with payment gateway failed")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("access denied")
)
