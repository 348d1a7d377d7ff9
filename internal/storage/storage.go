// Package storage provides the durable client-side key/value storage that
// backs credentials and user preferences.
//
// Every implementation is synchronous: a Set is durable when it returns and a
// subsequent Get on the same process sees it.
package storage

// Storage is a durable key to string mapping
type Storage interface {
	// Get returns the stored value and whether the key exists.
	// Read failures are reported as a missing key.
	Get(key string) (string, bool)

	// Set stores value under key, overwriting any previous value
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}
