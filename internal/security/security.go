// Package security implements the app lock: PIN hashing and storage and
// the persisted lock settings.
package security

import (
	"database/sql"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/kimhsiao/salonbook/backend/internal/db"
	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

const (
	MinPINLength = 4
	MaxPINLength = 6
)

// Locker runs fn with exclusive access to the database. db.Store
// implements it.
type Locker interface {
	WithLock(fn func(*sql.DB) error) error
}

// Service manages the lock PIN. The hash goes to the OS keychain when one
// is available and is always mirrored into LockSettings.PinHash.
type Service struct {
	store    Locker
	keychain Keychain
	cost     int
}

// NewService creates a Service. A nil keychain uses the OS keychain.
func NewService(store Locker, kc Keychain) *Service {
	if kc == nil {
		kc = SystemKeychain()
	}
	return &Service{
		store:    store,
		keychain: kc,
		cost:     bcrypt.DefaultCost,
	}
}

// ValidatePIN checks that pin is 4 to 6 ASCII digits.
func ValidatePIN(pin string) error {
	if len(pin) < MinPINLength || len(pin) > MaxPINLength {
		return apperrors.New(apperrors.ErrValidation, "PIN must be 4-6 digits")
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return apperrors.New(apperrors.ErrValidation, "PIN must be 4-6 digits")
		}
	}
	return nil
}

// SetPIN stores a new PIN and enables the lock.
func (s *Service) SetPIN(pin string) error {
	if err := ValidatePIN(pin); err != nil {
		return err
	}
	hash, err := s.hash(pin)
	if err != nil {
		return err
	}

	s.storeInKeychain(hash)

	return s.store.WithLock(func(conn *sql.DB) error {
		settings, err := loadSettings(conn)
		if err != nil {
			return err
		}
		settings.IsEnabled = true
		settings.PinHash = &hash
		return saveSettings(conn, settings)
	})
}

// VerifyPIN checks pin against the keychain hash, then the stored hash.
// It reports false when no PIN is set.
func (s *Service) VerifyPIN(pin string) (bool, error) {
	if hash, err := s.keychain.Get(); err == nil && matches(hash, pin) {
		return true, nil
	}

	var ok bool
	err := s.store.WithLock(func(conn *sql.DB) error {
		settings, err := loadSettings(conn)
		if err != nil {
			return err
		}
		ok = settings.PinHash != nil && matches(*settings.PinHash, pin)
		return nil
	})
	return ok, err
}

// RemovePIN clears the PIN everywhere and disables the lock.
func (s *Service) RemovePIN() error {
	if err := s.keychain.Delete(); err != nil && !errors.Is(err, ErrKeychainUnavailable) {
		logging.Warn("failed to remove PIN from keychain", map[string]interface{}{"error": err.Error()})
	}

	return s.store.WithLock(func(conn *sql.DB) error {
		settings, err := loadSettings(conn)
		if err != nil {
			return err
		}
		settings.IsEnabled = false
		settings.PinHash = nil
		return saveSettings(conn, settings)
	})
}

// ChangePIN replaces the PIN after verifying the current one.
func (s *Service) ChangePIN(oldPIN, newPIN string) error {
	ok, err := s.VerifyPIN(oldPIN)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.ErrInvalidPIN, "current PIN is incorrect")
	}
	if err := ValidatePIN(newPIN); err != nil {
		return err
	}
	hash, err := s.hash(newPIN)
	if err != nil {
		return err
	}

	s.storeInKeychain(hash)

	return s.store.WithLock(func(conn *sql.DB) error {
		settings, err := loadSettings(conn)
		if err != nil {
			return err
		}
		settings.PinHash = &hash
		return saveSettings(conn, settings)
	})
}

// IsLockEnabled reports whether the lock is on and a PIN exists.
func (s *Service) IsLockEnabled() (bool, error) {
	settings, err := s.settings()
	if err != nil {
		return false, err
	}
	if !settings.IsEnabled {
		return false, nil
	}
	if settings.PinHash != nil {
		return true, nil
	}
	_, err = s.keychain.Get()
	return err == nil, nil
}

// GetSettings returns the lock settings without the PIN hash.
func (s *Service) GetSettings() (models.LockSettings, error) {
	settings, err := s.settings()
	if err != nil {
		return models.LockSettings{}, err
	}
	settings.PinHash = nil
	return settings, nil
}

// SaveSettings updates the user-editable settings. IsEnabled and the PIN
// hash only change through the PIN operations.
func (s *Service) SaveSettings(in models.LockSettings) error {
	return s.store.WithLock(func(conn *sql.DB) error {
		settings, err := loadSettings(conn)
		if err != nil {
			return err
		}
		settings.UseBiometric = in.UseBiometric
		settings.AutoLockTimeout = in.AutoLockTimeout
		settings.LockOnBackground = in.LockOnBackground
		return saveSettings(conn, settings)
	})
}

func (s *Service) settings() (models.LockSettings, error) {
	var settings models.LockSettings
	err := s.store.WithLock(func(conn *sql.DB) error {
		var err error
		settings, err = loadSettings(conn)
		return err
	})
	return settings, err
}

func (s *Service) hash(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), s.cost)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "failed to hash PIN", err)
	}
	return string(hash), nil
}

// storeInKeychain logs failures and drops any older keychain entry so a
// previous PIN cannot keep verifying; the database copy then applies.
func (s *Service) storeInKeychain(hash string) {
	err := s.keychain.Set(hash)
	if err == nil {
		return
	}
	logging.Warn("keychain storage failed, using database fallback", map[string]interface{}{
		"error": err.Error(),
	})
	if derr := s.keychain.Delete(); derr != nil && !errors.Is(derr, ErrKeychainUnavailable) {
		logging.Warn("failed to remove stale PIN from keychain", map[string]interface{}{"error": derr.Error()})
	}
}

func matches(hash, pin string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}

func loadSettings(conn *sql.DB) (models.LockSettings, error) {
	settings := models.DefaultLockSettings()
	raw, ok, err := db.GetSetting(conn, models.LockSettingsKey)
	if err != nil {
		return settings, apperrors.Wrap(apperrors.ErrDatabase, "failed to load lock settings", err)
	}
	if !ok {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return settings, apperrors.Wrap(apperrors.ErrDatabase, "invalid lock settings", err)
	}
	return settings, nil
}

func saveSettings(conn *sql.DB, settings models.LockSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternal, "failed to encode lock settings", err)
	}
	if err := db.PutSetting(conn, models.LockSettingsKey, string(raw)); err != nil {
		return apperrors.Wrap(apperrors.ErrDatabase, "failed to save lock settings", err)
	}
	return nil
}
