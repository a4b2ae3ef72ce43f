// Package credential persists the session token in the OS keyring.
package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/Deepanshu954/TodoFlow/internal/model"
)

const (
	serviceName = "todoflow"
	tokenKey    = "session_token"
)

// ErrNoToken is returned by Load when no session token is stored.
var ErrNoToken = errors.New("no session token stored")

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("todoflow-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Keyring stores the access token of the authenticated session. The
// keyring is opened lazily on every call so that guest-only use never
// touches it.
type Keyring struct {
	key  string
	open func() (keyring.Keyring, error)
}

// NewKeyring returns a token store backed by the system keyring.
func NewKeyring() *Keyring {
	return &Keyring{key: tokenKey, open: openKeyring}
}

// Load retrieves the stored token.
func (k *Keyring) Load() (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", k.key, err)
	}

	return string(item.Data), nil
}

// Save stores token, replacing any previous one.
func (k *Keyring) Save(token string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   k.key,
		Data:  []byte(token),
		Label: "TodoFlow session",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", k.key, err)
	}

	return nil
}

// Clear removes the stored token. A missing token is not an error.
func (k *Keyring) Clear() error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Remove(k.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", k.key, err)
	}

	return nil
}
