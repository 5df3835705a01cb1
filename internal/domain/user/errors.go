package user

import "errors"

var (
	// ErrNotFound is returned by any store lookup that matches no record.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned by Create when the email is already registered.
	ErrEmailTaken = errors.New("email already in use")
)
