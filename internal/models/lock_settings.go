package models

// LockSettings is the app-lock configuration, stored as a single JSON
// value under LockSettingsKey in app_settings.
type LockSettings struct {
	IsEnabled        bool    `json:"isEnabled"`
	UseBiometric     bool    `json:"useBiometric"`
	AutoLockTimeout  uint32  `json:"autoLockTimeout"` // minutes, 0 = immediate
	LockOnBackground bool    `json:"lockOnBackground"`
	PinHash          *string `json:"pinHash,omitempty"` // used when the OS keychain is unavailable
}

// LockSettingsKey is the app_settings key holding LockSettings.
const LockSettingsKey = "lock_settings"

// DefaultLockSettings returns the settings used before anything is saved.
func DefaultLockSettings() LockSettings {
	return LockSettings{
		IsEnabled:        false,
		UseBiometric:     false,
		AutoLockTimeout:  5,
		LockOnBackground: true,
	}
}
