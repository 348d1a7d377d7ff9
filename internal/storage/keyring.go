package storage

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/zalando/go-keyring"
)

const keyringService = "sensorwatch-cli"

// Keyring stores values in the OS keychain/credential manager.
// Keys are namespaced per backend URL so that tokens for different servers don't collide.
type Keyring struct {
	namespace string
	logger    zerolog.Logger
}

// NewKeyring creates a keyring storage scoped to namespace (typically the API URL)
func NewKeyring(namespace string, logger zerolog.Logger) *Keyring {
	return &Keyring{namespace: namespace, logger: logger}
}

// keyringKey returns a unique key per namespace
func (k *Keyring) keyringKey(key string) string {
	return fmt.Sprintf("%s-%s", key, k.namespace)
}

func (k *Keyring) Get(key string) (string, bool) {
	v, err := keyring.Get(keyringService, k.keyringKey(key))
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			k.logger.Warn().Err(err).Str("key", key).Msg("Failed to read from keyring")
		}
		return "", false
	}
	return v, true
}

func (k *Keyring) Set(key, value string) error {
	if err := keyring.Set(keyringService, k.keyringKey(key), value); err != nil {
		return fmt.Errorf("failed to save %s to keyring: %w", key, err)
	}
	return nil
}

func (k *Keyring) Remove(key string) error {
	if err := keyring.Delete(keyringService, k.keyringKey(key)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", key, err)
	}
	return nil
}
