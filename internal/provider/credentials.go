package provider

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name API keys are stored under.
const KeyringService = "go-mine-replay"

// KeySource looks up the API key for a provider id. It returns
// ErrAPIKeyNotFound when no key is configured.
type KeySource interface {
	APIKey(providerID string) (string, error)
}

// EnvKeys reads keys from <PROVIDER>_API_KEY, e.g. MCPLAYHD_API_KEY.
type EnvKeys struct{}

// EnvVar returns the variable name holding providerID's key.
func EnvVar(providerID string) string {
	return strings.ToUpper(providerID) + "_API_KEY"
}

func (EnvKeys) APIKey(providerID string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvVar(providerID))); v != "" {
		return v, nil
	}
	return "", ErrAPIKeyNotFound
}

// StaticKeys serves keys from a map.
type StaticKeys map[string]string

func (s StaticKeys) APIKey(providerID string) (string, error) {
	if v := strings.TrimSpace(s[providerID]); v != "" {
		return v, nil
	}
	return "", ErrAPIKeyNotFound
}

// KeyringStore keeps API keys in the OS keychain.
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring wrapper. An empty service name uses
// KeyringService.
func NewKeyringStore(service string) *KeyringStore {
	if strings.TrimSpace(service) == "" {
		service = KeyringService
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) APIKey(providerID string) (string, error) {
	v, err := keyring.Get(k.service, providerID)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrAPIKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring get %s: %w", providerID, err)
	}
	return v, nil
}

// SetAPIKey stores key for providerID.
func (k *KeyringStore) SetAPIKey(providerID, key string) error {
	providerID = strings.TrimSpace(providerID)
	if providerID == "" {
		return fmt.Errorf("provider id is required")
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("API key is empty")
	}
	if err := keyring.Set(k.service, providerID, key); err != nil {
		return fmt.Errorf("keyring set %s: %w", providerID, err)
	}
	return nil
}

// DeleteAPIKey removes the key for providerID. Missing keys are not an error.
func (k *KeyringStore) DeleteAPIKey(providerID string) error {
	if err := keyring.Delete(k.service, providerID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring delete %s: %w", providerID, err)
	}
	return nil
}

// ChainKeys tries each source in order and returns the first key found.
// Errors other than ErrAPIKeyNotFound stop the search.
type ChainKeys []KeySource

func (c ChainKeys) APIKey(providerID string) (string, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		key, err := src.APIKey(providerID)
		if err == nil {
			return key, nil
		}
		if !errors.Is(err, ErrAPIKeyNotFound) {
			return "", err
		}
	}
	return "", ErrAPIKeyNotFound
}
