//go:build !darwin

package internal

import "errors"

var errKeychainUnsupported = errors.New("keychain integration is only supported on macOS")

func storeKeychainSecret(string) error {
	return errKeychainUnsupported
}

func getKeychainSecret() (string, error) {
	return "", errKeychainUnsupported
}
