// Package testutil provides utilities for testing zign in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv creates an isolated zign environment for each test.
// This ensures tests never interfere with:
// - The user's actual zign config directory and stored tokens
// - SignPath environment variables set in the developer's shell
//
// The cleanup is automatically handled by t.TempDir() and t.Setenv(),
// so callers don't need to manually clean up. The returned path is the
// isolated zign directory.
func SetupTestEnv(t *testing.T) string {
	t.Helper()

	// Temp directory (auto-cleaned by testing framework)
	tmpDir := t.TempDir()
	zignDir := filepath.Join(tmpDir, "zign")

	// Point zign at the temp location
	t.Setenv("ZIGN_DIR", zignDir)

	// Neutralize signing environment variables from the host shell
	t.Setenv("SIGNPATH_API_TOKEN", "")
	t.Setenv("SIGNPATH_TOKEN_PASSPHRASE", "")
	t.Setenv("SIGNPATH_SKIP_SIGNING", "")

	if err := os.MkdirAll(zignDir, 0o700); err != nil {
		t.Fatalf("failed to create test directory %s: %v", zignDir, err)
	}

	return zignDir
}
