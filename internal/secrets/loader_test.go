package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func stubKeyring(t *testing.T, value string, err error) {
	t.Helper()

	original := keyringGet
	keyringGet = func(service, _ string) (string, error) {
		if service != KeyringService {
			t.Fatalf("unexpected keyring service %q", service)
		}
		return value, err
	}
	t.Cleanup(func() { keyringGet = original })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("COLD_MAILER_TEST_KEY", " from-env ")

	stubKeyring(t, "from-keyring", nil)

	tests := []struct {
		name    string
		src     Source
		expect  string
		wantErr string
	}{
		{name: "file wins", src: Source{File: keyFile, Value: "inline", Env: "COLD_MAILER_TEST_KEY"}, expect: "from-file"},
		{name: "inline value", src: Source{Value: " inline ", Env: "COLD_MAILER_TEST_KEY"}, expect: "inline"},
		{name: "environment", src: Source{Env: "COLD_MAILER_TEST_KEY", KeyringAccount: "acc"}, expect: "from-env"},
		{name: "keyring", src: Source{Env: "COLD_MAILER_UNSET_KEY", KeyringAccount: "acc"}, expect: "from-keyring"},
		{name: "empty file", src: Source{Name: "groq api key", File: emptyFile}, wantErr: "groq api key file"},
		{name: "missing file", src: Source{Name: "groq api key", File: filepath.Join(dir, "nope")}, wantErr: "reading groq api key"},
		{name: "nothing configured", src: Source{Name: "groq api key"}, wantErr: "groq api key is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestLoadKeyringErrors(t *testing.T) {
	stubKeyring(t, "", keyring.ErrNotFound)
	_, err := Load(Source{Name: "key", KeyringAccount: "acc"})
	if err == nil || !strings.Contains(err.Error(), "key is not configured") {
		t.Fatalf("expected not configured error, got %v", err)
	}

	stubKeyring(t, "", errors.New("dbus unavailable"))
	_, err = Load(Source{Name: "key", KeyringAccount: "acc"})
	if err == nil || !strings.Contains(err.Error(), "dbus unavailable") {
		t.Fatalf("expected keyring error, got %v", err)
	}
}
