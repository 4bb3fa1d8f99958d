// Package common defines shared constants and sentinel errors used across
// the StoryKeeper client and cache proxy. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable means the local store could not be opened or
	// written (unsupported, corrupt, quota). Offline features degrade;
	// nothing else should crash because of it.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Gateway error classes. ErrNetworkUnreachable is the only transient
	// one: it triggers the draft fallback and cache fallback paths.
	ErrNetworkUnreachable = errors.New("network unreachable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrServerError        = errors.New("server error")
	ErrValidation         = errors.New("validation error")

	// ErrAlreadySyncing is returned when a drain is requested while one
	// is in flight. It is a no-op signal, not a failure.
	ErrAlreadySyncing = errors.New("sync already in progress")
)
