package domain

import "errors"

var (
	// ErrInvalidName is returned when a registration name fails the allow-list.
	ErrInvalidName = errors.New("invalid name")
	// ErrGameNotJoinable is returned when registration is attempted after the game started.
	ErrGameNotJoinable = errors.New("game has already started")
	// ErrIdentityUnavailable indicates the caller's network address could not be determined.
	ErrIdentityUnavailable = errors.New("could not determine client address")
	// ErrNotRegistered indicates a buzz from an address with no cached identity.
	ErrNotRegistered = errors.New("not registered")
	// ErrIndexOutOfRange indicates a category, answer or player index outside current bounds.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrUnauthorized indicates an admin operation from a non-loopback address.
	ErrUnauthorized = errors.New("not an admin")
	// ErrDataUnavailable indicates the question source is missing or malformed; fatal at startup.
	ErrDataUnavailable = errors.New("question data unavailable")
)
