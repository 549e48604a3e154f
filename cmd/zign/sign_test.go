package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ZebulonRouseFrantzich/zign/internal/testutil"
)

const testOrgID = "155b6f1c-8d4c-4a93-b0f9-c1b2e0a4d5e6"

// newSigningServer serves the submit, status, and download endpoints of
// a signing service that completes every request immediately.
func newSigningServer(t *testing.T, requests *atomic.Int64, signedBody string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/v1/"+testOrgID+"/SigningRequests", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Header().Set("Location", server.URL+"/status")
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprintf(w, `{"status": "Completed", "workflowStatus": "Completed", "isFinalStatus": true, "signedArtifactLink": %q}`, server.URL+"/signed")
	})
	mux.HandleFunc("/signed", func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, signedBody)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRunSign_InPlace(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_API_TOKEN", "test-token")

	var requests atomic.Int64
	server := newSigningServer(t, &requests, "signed bytes")

	dir := t.TempDir()
	target := filepath.Join(dir, "app.exe")
	if err := os.WriteFile(target, []byte("unsigned bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-url", server.URL,
		"--base-dir", dir,
		"--include", "*.exe",
	})
	if err != nil {
		t.Fatalf("runSign() error = %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "signed bytes" {
		t.Errorf("target content = %q, want signed bytes", got)
	}

	// One submit, one poll, one download
	if n := requests.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}

	// No temp file may survive
	if _, err := os.Stat(target + ".signing-tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind: %v", err)
	}
}

func TestRunSign_OutputDir(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_API_TOKEN", "test-token")

	var requests atomic.Int64
	server := newSigningServer(t, &requests, "signed bytes")

	dir := t.TempDir()
	target := filepath.Join(dir, "app.exe")
	if err := os.WriteFile(target, []byte("unsigned bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "signed")

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-url", server.URL,
		"--output-dir", outDir,
		target,
	})
	if err != nil {
		t.Fatalf("runSign() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "app.exe"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "signed bytes" {
		t.Errorf("output content = %q, want signed bytes", got)
	}

	// The original stays untouched
	original, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(original) != "unsigned bytes" {
		t.Errorf("original was modified: %q", original)
	}
}

func TestRunSign_SkipEnvMakesNoRequests(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_SKIP_SIGNING", "true")

	var requests atomic.Int64
	server := newSigningServer(t, &requests, "signed bytes")

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-url", server.URL,
		"--include", "*.exe",
	})
	if err != nil {
		t.Fatalf("runSign() error = %v", err)
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0 when signing is skipped", n)
	}
}

func TestRunSign_SkipFlag(t *testing.T) {
	testutil.SetupTestEnv(t)

	// No server, no token: skipping must not need either
	if err := runSign([]string{"--skip"}); err != nil {
		t.Fatalf("runSign(--skip) error = %v", err)
	}
}

func TestRunSign_EmptySelectionSucceeds(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_API_TOKEN", "test-token")

	var requests atomic.Int64
	server := newSigningServer(t, &requests, "signed bytes")

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-url", server.URL,
		"--base-dir", t.TempDir(),
		"--include", "*.exe",
	})
	if err != nil {
		t.Fatalf("runSign() error = %v", err)
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("requests = %d, want 0 for an empty selection", n)
	}
}

func TestRunSign_EmptySelectionFailsWhenRequested(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_API_TOKEN", "test-token")

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-dir", t.TempDir(),
		"--include", "*.exe",
		"--fail-on-none",
	})
	if err == nil {
		t.Fatal("expected error with --fail-on-none and no matches")
	}
	if !strings.Contains(err.Error(), "no files matched") {
		t.Errorf("error = %v", err)
	}
}

func TestRunSign_ConfigFile(t *testing.T) {
	testutil.SetupTestEnv(t)
	t.Setenv("SIGNPATH_API_TOKEN", "test-token")

	var requests atomic.Int64
	server := newSigningServer(t, &requests, "signed bytes")

	dir := t.TempDir()
	target := filepath.Join(dir, "tool.msi")
	if err := os.WriteFile(target, []byte("unsigned"), 0o644); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "zign.lua")
	luaCode := fmt.Sprintf(`
		zign = {
			organization = %q,
			project = {
				slug = "my-project",
				signing_policy = "release-signing",
			},
			api = { base_url = %q },
			files = {
				base_dir = %q,
				includes = { "*.msi" },
			},
		}
	`, testOrgID, server.URL, dir)
	if err := os.WriteFile(configPath, []byte(luaCode), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := runSign([]string{"--config", configPath}); err != nil {
		t.Fatalf("runSign() error = %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "signed bytes" {
		t.Errorf("target content = %q, want signed bytes", got)
	}
}

func TestRunSign_MissingToken(t *testing.T) {
	testutil.SetupTestEnv(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.exe"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := runSign([]string{
		"--org", testOrgID,
		"--project-slug", "my-project",
		"--policy-slug", "release-signing",
		"--base-dir", dir,
		"--include", "*.exe",
	})
	if err == nil {
		t.Fatal("expected error without a token")
	}
	if !strings.Contains(err.Error(), "no API token found") {
		t.Errorf("error = %v", err)
	}
}

func TestRunSign_FlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unknown option",
			args: []string{"--bogus"},
			want: "unknown option",
		},
		{
			name: "missing flag value",
			args: []string{"--config"},
			want: "requires a value",
		},
		{
			name: "malformed param",
			args: []string{"--param", "noequals"},
			want: "key=value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runSign(tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestRunSign_InvalidConfigRejected(t *testing.T) {
	testutil.SetupTestEnv(t)

	err := runSign([]string{
		"--org", "not-a-uuid",
		"--project-slug", "p",
		"--policy-slug", "s",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "organization") {
		t.Errorf("error = %v", err)
	}
}
