package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/goccy/go-json"
)

var ErrSessionNotFound = errors.New("no cached session")

var (
	configDir = filepath.Join(os.Getenv("HOME"), ".eventsctl")
	storePath = filepath.Join(configDir, "sessions.json")
)

// storedSession keeps the credentials sealed; the metadata stays readable so
// the cache can be listed without the secret.
type storedSession struct {
	Profile    string    `json:"profile,omitempty"`
	Region     string    `json:"region,omitempty"`
	MFASerial  string    `json:"mfa_serial,omitempty"`
	Expiration time.Time `json:"expiration"`
	Sealed     []byte    `json:"sealed"`
}

func readStore() (map[string]storedSession, error) {
	data := map[string]storedSession{}
	b, err := os.ReadFile(storePath)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session cache: %w", err)
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("parsing session cache %v: %w", storePath, err)
	}
	return data, nil
}

func writeStore(data map[string]storedSession) error {
	if len(data) == 0 {
		if err := os.Remove(storePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(storePath), 0700); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(storePath, b, 0600)
}

// SaveSession encrypts and stores s under key.
func SaveSession(key string, s *AWSSession, secret string) error {
	data, err := readStore()
	if err != nil {
		return err
	}

	plain, err := json.Marshal(s)
	if err != nil {
		return err
	}
	sealed, err := Encrypt(plain, []byte(secret))
	if err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}

	data[key] = storedSession{
		Profile:    s.Profile,
		Region:     s.Region,
		MFASerial:  s.MFASerial,
		Expiration: s.Expiration,
		Sealed:     sealed,
	}
	return writeStore(data)
}

// LoadSession decrypts the session stored under key.
func LoadSession(key, secret string) (*AWSSession, error) {
	data, err := readStore()
	if err != nil {
		return nil, err
	}
	entry, ok := data[key]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrSessionNotFound, key)
	}

	plain, err := Decrypt(entry.Sealed, []byte(secret))
	if err != nil {
		return nil, fmt.Errorf("decrypting session %q: %w", key, err)
	}
	var s AWSSession
	if err := json.Unmarshal(plain, &s); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", key, err)
	}
	return &s, nil
}

// RemoveSession deletes a stored session.
func RemoveSession(key string) error {
	data, err := readStore()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return fmt.Errorf("%w for %q", ErrSessionNotFound, key)
	}
	delete(data, key)
	return writeStore(data)
}

// ClearSessions removes the whole cache.
func ClearSessions() error {
	if err := os.Remove(storePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ListSessions returns cache metadata sorted by key.
func ListSessions() ([]CachedSession, error) {
	data, err := readStore()
	if err != nil {
		return nil, err
	}
	sessions := make([]CachedSession, 0, len(data))
	for key, entry := range data {
		sessions = append(sessions, CachedSession{
			Key:        key,
			Profile:    entry.Profile,
			Region:     entry.Region,
			MFASerial:  entry.MFASerial,
			Expiration: entry.Expiration,
		})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Key < sessions[j].Key })
	return sessions, nil
}
