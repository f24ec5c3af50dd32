//go:build !darwin

package security

type stubKeychain struct{}

func newSystemKeychain() Keychain { return stubKeychain{} }

func (stubKeychain) Set(string) error { return ErrKeychainUnavailable }

func (stubKeychain) Get() (string, error) { return "", ErrKeychainUnavailable }

func (stubKeychain) Delete() error { return ErrKeychainUnavailable }
