package config

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the service's secrets in the OS keychain.
const KeyringService = "jobmate-ingestion"

// AdzunaKeyringAccount is the keychain account holding the key for appID.
func AdzunaKeyringAccount(appID string) string {
	return "adzuna:" + strings.TrimSpace(appID)
}

// AdzunaKeyFromKeyring returns the Adzuna API key stored for appID.
func AdzunaKeyFromKeyring(appID string) (string, error) {
	if strings.TrimSpace(appID) == "" {
		return "", errors.New("adzuna app id is empty")
	}
	key, err := keyring.Get(KeyringService, AdzunaKeyringAccount(appID))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(key) == "" {
		return "", keyring.ErrNotFound
	}
	return key, nil
}

// SetAdzunaKey stores key in the OS keychain.
func SetAdzunaKey(appID, key string) error {
	if strings.TrimSpace(appID) == "" {
		return errors.New("adzuna app id is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("key is empty")
	}
	return keyring.Set(KeyringService, AdzunaKeyringAccount(appID), key)
}
