package credentials

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp"
)

const (
	// tokenFileName is the plain-text token file under the config dir.
	tokenFileName = "token"

	// encryptedTokenFileName is the OpenPGP symmetrically encrypted
	// variant, unlocked with EnvTokenPassphrase. It takes precedence
	// over the plain file when both exist.
	encryptedTokenFileName = "token.gpg"
)

// TokenFilePath returns where WriteTokenFile stores the plain token.
func TokenFilePath(configDir string) string {
	return filepath.Join(configDir, tokenFileName)
}

// WriteTokenFile stores the token with owner-only permissions, creating
// the config directory if needed.
func WriteTokenFile(configDir, token string) error {
	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(TokenFilePath(configDir), []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// readTokenFile reads the stored token. An absent file means the source
// is not configured; an unreadable or undecryptable file is an error.
func readTokenFile(configDir string) (string, error) {
	encrypted := filepath.Join(configDir, encryptedTokenFileName)
	if _, err := os.Stat(encrypted); err == nil {
		return readEncryptedTokenFile(encrypted)
	}

	data, err := os.ReadFile(TokenFilePath(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read token file: %w", err)
	}
	return string(data), nil
}

// readEncryptedTokenFile decrypts an OpenPGP symmetrically encrypted
// token file using the passphrase from the environment.
func readEncryptedTokenFile(path string) (string, error) {
	passphrase := os.Getenv(EnvTokenPassphrase)
	if passphrase == "" {
		return "", fmt.Errorf("%s exists but %s is not set", path, EnvTokenPassphrase)
	}

	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open encrypted token file: %w", err)
	}
	defer file.Close()

	// The prompt is only allowed to answer once; a second call means the
	// passphrase was wrong and retrying would loop forever.
	answered := false
	prompt := func(keys []openpgp.Key, symmetric bool) ([]byte, error) {
		if answered {
			return nil, fmt.Errorf("wrong passphrase for %s", path)
		}
		answered = true
		return []byte(passphrase), nil
	}

	message, err := openpgp.ReadMessage(file, nil, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("decrypt token file: %w", err)
	}

	token, err := io.ReadAll(message.UnverifiedBody)
	if err != nil {
		return "", fmt.Errorf("read decrypted token: %w", err)
	}

	return string(token), nil
}
