package internal

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
)

const (
	KeychainService = "eventsctl"
	KeychainAccount = "session-cache-key"
)

var ErrNoSecret = errors.New("no secret found")

// IsMacOS reports whether keychain integration is available.
func IsMacOS() bool {
	return runtime.GOOS == "darwin"
}

// GetSecret returns the session cache secret from, in order, the explicit
// value, $EVENTSCTL_SECRET and the macOS keychain.
func GetSecret(explicitSecret string) (string, error) {
	if explicitSecret != "" {
		return explicitSecret, nil
	}
	if env := os.Getenv(SecretEnv); env != "" {
		return env, nil
	}
	if IsMacOS() {
		secret, err := getKeychainSecret()
		if err == nil && secret != "" {
			return secret, nil
		}
	}
	return "", ErrNoSecret
}

// SetupKeychain generates a random secret and stores it in the keychain.
func SetupKeychain() (string, error) {
	if !IsMacOS() {
		return "", errKeychainUnsupported
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	secret := hex.EncodeToString(key)
	if err := StoreKeychainSecret(secret); err != nil {
		return "", err
	}
	return secret, nil
}

// StoreKeychainSecret replaces the keychain secret.
func StoreKeychainSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: empty secret", ErrConfig)
	}
	return storeKeychainSecret(secret)
}
