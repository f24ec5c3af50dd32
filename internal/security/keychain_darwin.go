//go:build darwin

package security

import (
	"fmt"

	keychain "github.com/keybase/go-keychain"
)

// macKeychain stores the PIN hash as a generic password.
type macKeychain struct{}

func newSystemKeychain() Keychain { return macKeychain{} }

func (macKeychain) item() keychain.Item {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(KeychainService)
	item.SetAccount(PINAccount)
	return item
}

func (k macKeychain) Set(hash string) error {
	upd := k.item()
	upd.SetLabel("salon lock pin")
	upd.SetData([]byte(hash))
	upd.SetAccessible(keychain.AccessibleAfterFirstUnlock)

	if err := keychain.UpdateItem(k.item(), upd); err != nil {
		// Not stored yet.
		add := k.item()
		add.SetLabel("salon lock pin")
		add.SetData([]byte(hash))
		add.SetAccessible(keychain.AccessibleAfterFirstUnlock)
		if aerr := keychain.AddItem(add); aerr != nil {
			return fmt.Errorf("keychain add: %w", aerr)
		}
	}
	return nil
}

func (k macKeychain) Get() (string, error) {
	q := k.item()
	q.SetMatchLimit(keychain.MatchLimitOne)
	q.SetReturnData(true)
	results, err := keychain.QueryItem(q)
	if err != nil {
		return "", fmt.Errorf("keychain get: %w", err)
	}
	if len(results) == 0 || results[0].Data == nil {
		return "", ErrKeychainNoEntry
	}
	return string(results[0].Data), nil
}

func (k macKeychain) Delete() error {
	err := keychain.DeleteItem(k.item())
	if err == keychain.ErrorItemNotFound {
		return nil
	}
	return err
}
