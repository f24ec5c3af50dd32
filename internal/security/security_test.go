package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/kimhsiao/salonbook/backend/internal/db"
	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/models"
)

// memKeychain is an in-memory Keychain.
type memKeychain struct {
	hash   string
	err    error
	setErr error
}

func (k *memKeychain) Set(hash string) error {
	if k.err != nil {
		return k.err
	}
	if k.setErr != nil {
		return k.setErr
	}
	k.hash = hash
	return nil
}

func (k *memKeychain) Get() (string, error) {
	if k.err != nil {
		return "", k.err
	}
	if k.hash == "" {
		return "", ErrKeychainNoEntry
	}
	return k.hash, nil
}

func (k *memKeychain) Delete() error {
	if k.err != nil {
		return k.err
	}
	k.hash = ""
	return nil
}

func newTestService(t *testing.T, kc Keychain) *Service {
	t.Helper()
	store, err := db.Open(t.TempDir())
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	s := NewService(store, kc)
	s.cost = bcrypt.MinCost
	return s
}

func TestValidatePIN(t *testing.T) {
	tests := []struct {
		pin   string
		valid bool
	}{
		{"1234", true},
		{"12345", true},
		{"123456", true},
		{"123", false},
		{"1234567", false},
		{"abcd", false},
		{"12a4", false},
		{"１２３４", false},
	}
	for _, tt := range tests {
		err := ValidatePIN(tt.pin)
		if (err == nil) != tt.valid {
			t.Errorf("ValidatePIN(%q) error = %v, want valid %v", tt.pin, err, tt.valid)
		}
		if err != nil && !apperrors.Is(err, apperrors.ErrValidation) {
			t.Errorf("ValidatePIN(%q) error code = %s", tt.pin, apperrors.CodeOf(err))
		}
	}
}

// TestSetVerifyPIN verifies the PIN round trip with a working keychain.
func TestSetVerifyPIN(t *testing.T) {
	kc := &memKeychain{}
	s := newTestService(t, kc)

	if ok, err := s.VerifyPIN("1234"); err != nil || ok {
		t.Fatalf("VerifyPIN() before set = %v, %v; want false", ok, err)
	}
	if err := s.SetPIN("1234"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}
	if kc.hash == "" {
		t.Error("hash not stored in keychain")
	}
	if ok, _ := s.VerifyPIN("1234"); !ok {
		t.Error("VerifyPIN(correct) = false")
	}
	if ok, _ := s.VerifyPIN("9999"); ok {
		t.Error("VerifyPIN(wrong) = true")
	}
	enabled, err := s.IsLockEnabled()
	if err != nil || !enabled {
		t.Errorf("IsLockEnabled() = %v, %v", enabled, err)
	}
}

// TestKeychainFallback verifies the database hash is used when the
// keychain is unavailable.
func TestKeychainFallback(t *testing.T) {
	s := newTestService(t, &memKeychain{err: ErrKeychainUnavailable})

	if err := s.SetPIN("4321"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}
	if ok, err := s.VerifyPIN("4321"); err != nil || !ok {
		t.Errorf("VerifyPIN() = %v, %v; want true", ok, err)
	}
	if err := s.RemovePIN(); err != nil {
		t.Fatalf("RemovePIN() error = %v", err)
	}
	if ok, _ := s.VerifyPIN("4321"); ok {
		t.Error("VerifyPIN() after remove = true")
	}
	if enabled, _ := s.IsLockEnabled(); enabled {
		t.Error("IsLockEnabled() after remove = true")
	}
}

func TestSetPIN_Invalid(t *testing.T) {
	s := newTestService(t, &memKeychain{})
	if err := s.SetPIN("12"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("SetPIN() error = %v, want VALIDATION_ERROR", err)
	}
	if enabled, _ := s.IsLockEnabled(); enabled {
		t.Error("lock enabled after invalid PIN")
	}
}

func TestChangePIN(t *testing.T) {
	s := newTestService(t, &memKeychain{})
	if err := s.SetPIN("1111"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}

	if err := s.ChangePIN("0000", "2222"); !apperrors.Is(err, apperrors.ErrInvalidPIN) {
		t.Errorf("ChangePIN(wrong old) error = %v, want INVALID_PIN", err)
	}
	if err := s.ChangePIN("1111", "22"); !apperrors.Is(err, apperrors.ErrValidation) {
		t.Errorf("ChangePIN(bad new) error = %v, want VALIDATION_ERROR", err)
	}
	if err := s.ChangePIN("1111", "222222"); err != nil {
		t.Fatalf("ChangePIN() error = %v", err)
	}
	if ok, _ := s.VerifyPIN("222222"); !ok {
		t.Error("new PIN rejected")
	}
	if ok, _ := s.VerifyPIN("1111"); ok {
		t.Error("old PIN still accepted")
	}
}

// TestSettings verifies defaults, hash hiding and preserved fields.
func TestSettings(t *testing.T) {
	s := newTestService(t, &memKeychain{})

	got, err := s.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error = %v", err)
	}
	if got != models.DefaultLockSettings() {
		t.Errorf("GetSettings() = %+v, want defaults", got)
	}

	if err := s.SetPIN("1234"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}
	err = s.SaveSettings(models.LockSettings{
		IsEnabled:        false,
		UseBiometric:     true,
		AutoLockTimeout:  0,
		LockOnBackground: false,
	})
	if err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	got, _ = s.GetSettings()
	if got.PinHash != nil {
		t.Error("GetSettings() exposed the PIN hash")
	}
	if !got.IsEnabled {
		t.Error("SaveSettings() changed IsEnabled")
	}
	if !got.UseBiometric || got.AutoLockTimeout != 0 || got.LockOnBackground {
		t.Errorf("settings not saved: %+v", got)
	}
	if ok, _ := s.VerifyPIN("1234"); !ok {
		t.Error("SaveSettings() dropped the PIN hash")
	}
}

// TestChangePIN_keychainWriteFails verifies the previous PIN stops working
// when the new hash cannot be written to the keychain.
func TestChangePIN_keychainWriteFails(t *testing.T) {
	kc := &memKeychain{}
	s := newTestService(t, kc)

	if err := s.SetPIN("1234"); err != nil {
		t.Fatalf("SetPIN() error = %v", err)
	}
	kc.setErr = errors.New("keychain locked")
	if err := s.ChangePIN("1234", "5678"); err != nil {
		t.Fatalf("ChangePIN() error = %v", err)
	}

	if ok, err := s.VerifyPIN("1234"); err != nil || ok {
		t.Errorf("VerifyPIN(old) = %v, %v; want false", ok, err)
	}
	if ok, err := s.VerifyPIN("5678"); err != nil || !ok {
		t.Errorf("VerifyPIN(new) = %v, %v; want true", ok, err)
	}
	if kc.hash != "" {
		t.Error("stale hash left in keychain")
	}
}
