package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the application's secrets in the OS keychain.
const KeyringService = "cold-mailer"

// keyringGet is swapped in tests; the real keychain is not available in CI.
var keyringGet = keyring.Get

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages to give more context about the secret.
	Name string
	// Value is an inline secret value provided via configuration or flags.
	Value string
	// File points to a file containing the secret value. When set it takes
	// precedence over Value.
	File string
	// Env names an environment variable consulted when Value is empty.
	Env string
	// KeyringAccount is looked up under KeyringService as a last resort.
	KeyringAccount string
}

// Load returns the resolved secret value from the provided source, trying
// File, Value, Env and the OS keyring in that order. The returned secret is
// always trimmed. A file that is set but unreadable or empty is an error
// rather than a reason to fall through.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	if account := strings.TrimSpace(src.KeyringAccount); account != "" {
		secret, err := keyringGet(KeyringService, account)
		switch {
		case err == nil && strings.TrimSpace(secret) != "":
			return strings.TrimSpace(secret), nil
		case err != nil && !errors.Is(err, keyring.ErrNotFound):
			return "", fmt.Errorf("reading %s from keyring: %w", name, err)
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
