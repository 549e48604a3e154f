package credentials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"go.uber.org/zap/zaptest"
)

func newTestResolver(t *testing.T, explicit, configDir string) *Resolver {
	t.Helper()
	return NewResolver(explicit, configDir, zaptest.NewLogger(t).Sugar())
}

func TestResolverPrecedence(t *testing.T) {
	configDir := t.TempDir()
	if err := WriteTokenFile(configDir, "file-token"); err != nil {
		t.Fatalf("write token file: %v", err)
	}
	t.Setenv(EnvAPIToken, "env-token")

	tests := []struct {
		name     string
		explicit string
		want     string
	}{
		{name: "explicit_wins", explicit: "explicit-token", want: "explicit-token"},
		{name: "file_beats_env", explicit: "", want: "file-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := newTestResolver(t, tt.explicit, configDir).Resolve()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.want {
				t.Errorf("token = %q, want %q", token, tt.want)
			}
		})
	}
}

func TestResolverFallsBackToEnvironment(t *testing.T) {
	t.Setenv(EnvAPIToken, "env-token")

	token, err := newTestResolver(t, "", t.TempDir()).Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "env-token" {
		t.Errorf("token = %q, want env-token", token)
	}
}

func TestResolverTrimsWhitespace(t *testing.T) {
	t.Setenv(EnvAPIToken, "  padded-token\n")

	token, err := newTestResolver(t, "", t.TempDir()).Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "padded-token" {
		t.Errorf("token = %q, want trimmed", token)
	}
}

func TestResolverNoSourceConfigured(t *testing.T) {
	t.Setenv(EnvAPIToken, "")

	_, err := newTestResolver(t, "", t.TempDir()).Resolve()
	if err == nil {
		t.Fatal("expected a no-credential error")
	}

	var noCred *NoCredentialError
	if !errors.As(err, &noCred) {
		t.Fatalf("error = %T, want *NoCredentialError", err)
	}
	if len(noCred.Sources) != 3 {
		t.Errorf("sources = %d, want the full chain listed", len(noCred.Sources))
	}
	if !strings.Contains(err.Error(), EnvAPIToken) {
		t.Errorf("error %q should name the environment variable", err)
	}
	if !strings.Contains(err.Error(), "priority order") {
		t.Errorf("error %q should explain the order", err)
	}
}

func TestResolverEncryptedTokenFile(t *testing.T) {
	configDir := t.TempDir()
	encryptTokenFile(t, filepath.Join(configDir, "token.gpg"), "secret-token", "hunter2")
	t.Setenv(EnvTokenPassphrase, "hunter2")

	token, err := newTestResolver(t, "", configDir).Resolve()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token != "secret-token" {
		t.Errorf("token = %q, want the decrypted token", token)
	}
}

func TestResolverEncryptedTokenFileErrors(t *testing.T) {
	t.Run("missing_passphrase", func(t *testing.T) {
		configDir := t.TempDir()
		encryptTokenFile(t, filepath.Join(configDir, "token.gpg"), "secret-token", "hunter2")
		t.Setenv(EnvTokenPassphrase, "")

		_, err := newTestResolver(t, "", configDir).Resolve()
		if err == nil || !strings.Contains(err.Error(), EnvTokenPassphrase) {
			t.Errorf("error = %v, want a missing passphrase failure", err)
		}
	})

	t.Run("wrong_passphrase", func(t *testing.T) {
		configDir := t.TempDir()
		encryptTokenFile(t, filepath.Join(configDir, "token.gpg"), "secret-token", "hunter2")
		t.Setenv(EnvTokenPassphrase, "not-the-passphrase")

		_, err := newTestResolver(t, "", configDir).Resolve()
		if err == nil {
			t.Fatal("expected decryption to fail")
		}
	})
}

// encryptTokenFile writes an OpenPGP symmetrically encrypted token file.
func encryptTokenFile(t *testing.T, path, token, passphrase string) {
	t.Helper()

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create encrypted token file: %v", err)
	}
	defer file.Close()

	writer, err := openpgp.SymmetricallyEncrypt(file, []byte(passphrase), nil, nil)
	if err != nil {
		t.Fatalf("start encryption: %v", err)
	}
	if _, err := writer.Write([]byte(token)); err != nil {
		t.Fatalf("write token: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("finish encryption: %v", err)
	}
}

func TestWriteTokenFilePermissions(t *testing.T) {
	configDir := filepath.Join(t.TempDir(), "zign")
	if err := WriteTokenFile(configDir, "tok"); err != nil {
		t.Fatalf("write token file: %v", err)
	}

	info, err := os.Stat(TokenFilePath(configDir))
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("token file permissions = %o, want 0600", perm)
	}
}
