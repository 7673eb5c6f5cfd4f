// Package storage defines the persistent key/value store used for session
// state and the offline response cache, with durable and in-memory backends.
package storage

// Store is a flat, durable string key/value namespace. Absence is reported via
// the bool, never as an error; errors wrap errs.ErrStorage and callers are
// expected to degrade gracefully (treat reads as misses, skip writes).
type Store interface {
	// Set durably stores value under key, overwriting any prior value.
	Set(key, value string) error
	// Get returns the stored value and whether it was present.
	Get(key string) (string, bool, error)
	// Remove deletes key. Removing an absent key is a no-op.
	Remove(key string) error
	// Keys enumerates stored keys with the given prefix ("" for all).
	Keys(prefix string) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}
