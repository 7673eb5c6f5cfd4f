// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across client/server layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrNoSession indicates a refresh was attempted with no stored refresh token.
	// Detected locally; no network call is made.
	ErrNoSession = errors.New("no session")

	// ErrOffline indicates a non-cacheable request was attempted while offline.
	// The request is never dispatched.
	ErrOffline = errors.New("offline, request not sent")

	// ErrNoCachedData indicates a cacheable request was made offline with no
	// fresh cache entry to serve.
	ErrNoCachedData = errors.New("no cached data available")

	// ErrStorage indicates the persistent key/value store rejected a read or
	// write (quota, corruption, closed database). Cache callers swallow it;
	// session durability paths may surface it.
	ErrStorage = errors.New("storage failure")
)
