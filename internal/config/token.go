package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

const (
	keychainService = "tfstudio"
	apiTokenAccount = "api_token"
	apiTokenEnv     = "TFSTUDIO_API_TOKEN"
)

// ErrSecretNotFound is returned by Keychain.Get for a missing entry.
var ErrSecretNotFound = errors.New("secret not found")

// Keychain stores secrets by service and account.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

type platformKeychain struct{}

// NewKeychain returns the platform secret store: the macOS Keychain on
// darwin, a secrets file under $XDG_DATA_HOME elsewhere.
func NewKeychain() Keychain {
	return platformKeychain{}
}

func (platformKeychain) Get(service, account string) (string, error) {
	return keychainGet(service, account)
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken returns the bearer token for the HTTP API. TFSTUDIO_API_TOKEN
// wins; otherwise the token is read from kc, and generated and stored there
// on first use.
func GetAPIToken(kc Keychain) (string, error) {
	if tok := os.Getenv(apiTokenEnv); tok != "" {
		return tok, nil
	}
	tok, err := kc.Get(keychainService, apiTokenAccount)
	switch {
	case err == nil && tok != "":
		return tok, nil
	case err != nil && !errors.Is(err, ErrSecretNotFound):
		return "", fmt.Errorf("reading API token: %w", err)
	}

	tok = uuid.NewString()
	if err := kc.Set(keychainService, apiTokenAccount, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
