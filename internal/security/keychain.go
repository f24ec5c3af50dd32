package security

import "errors"

const (
	// KeychainService is the keychain service name for salon secrets.
	KeychainService = "com.sisters-salon.app"
	// PINAccount is the keychain account holding the PIN hash.
	PINAccount = "lock_pin"
)

var (
	// ErrKeychainUnavailable is returned where no OS keychain is supported.
	ErrKeychainUnavailable = errors.New("keychain backend not supported on this OS")
	// ErrKeychainNoEntry is returned when no PIN hash is stored.
	ErrKeychainNoEntry = errors.New("keychain entry not found")
)

// Keychain stores the PIN hash in OS secure storage.
type Keychain interface {
	Set(hash string) error
	Get() (string, error)
	Delete() error
}

// SystemKeychain returns the keychain of the current OS.
func SystemKeychain() Keychain {
	return newSystemKeychain()
}
