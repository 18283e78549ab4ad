package services

import "errors"

var (
	// ErrUnauthenticated is returned before any storage access when the
	// caller has no uid.
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrRestDay rejects increment and decrement of a workday habit on a
	// Saturday or Sunday.
	ErrRestDay = errors.New("workday habits cannot be changed on a rest day")
)
