package store

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrNotAuthenticated = errors.New("no authenticated identity")
)
