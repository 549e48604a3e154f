// Package config provides Lua configuration parsing and validation for
// zign. Configs are declarative: a zign.lua file defines a global `zign`
// table that is evaluated in a sandboxed gopher-lua VM, extracted into
// typed Go values, and validated before the signing run starts.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// Config is the complete zign configuration: defaults, overridden by the
// config file, overridden by command-line flags. Environment switches
// (skip signing, API token) sit on top and are handled separately.
type Config struct {
	// Organization is the SignPath organization ID (a UUID).
	Organization string

	// Project identifies what gets signed and how.
	Project Project

	// API tunes the connection to the signing service.
	API API

	// Files selects the artifacts to sign.
	Files Files

	// Skip short-circuits the run without contacting the service.
	Skip bool
}

// Project carries the signing request metadata.
type Project struct {
	// Slug is the SignPath project owning the signing configuration.
	Slug string

	// SigningPolicySlug selects the policy used for submitted artifacts.
	SigningPolicySlug string

	// ArtifactConfigurationSlug optionally pins an artifact configuration.
	ArtifactConfigurationSlug string

	// Description is shown alongside the request in SignPath.
	Description string

	// Parameters are custom key/value pairs forwarded on submit.
	Parameters map[string]string
}

// API holds connection and timing tunables. The retry interval and the
// poll interval are deliberately separate constants: one paces transient
// HTTP retries, the other paces status polling of a healthy service.
type API struct {
	// BaseURL is the API root.
	BaseURL string

	// Token is an explicitly configured API token. Usually empty; the
	// credential chain then falls back to the token file and environment.
	Token string

	ConnectTimeout time.Duration
	HTTPTimeout    time.Duration
	RetryTimeout   time.Duration
	RetryInterval  time.Duration
	MaxRetries     int
	PollInterval   time.Duration
}

// Files selects the artifacts of one run.
type Files struct {
	// BaseDir is the directory scanned with the include/exclude globs.
	BaseDir string

	// Includes opt files into the scan. Empty means the scan selects
	// nothing and only explicitly supplied files are signed.
	Includes []string

	// Excludes filter the include matches.
	Excludes []string

	// OutputDir receives signed artifacts; empty signs in place.
	OutputDir string

	// FailOnNoFiles turns the empty-selection warning into a hard error.
	FailOnNoFiles bool

	// Explicit are additional artifact files given on the command line.
	Explicit []string
}

// Default returns the configuration before any file or flag is applied.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        "https://app.signpath.io/Api",
			ConnectTimeout: 30 * time.Second,
			HTTPTimeout:    300 * time.Second,
			RetryTimeout:   600 * time.Second,
			RetryInterval:  30 * time.Second,
			MaxRetries:     10,
			PollInterval:   5 * time.Second,
		},
		Files: Files{
			BaseDir: ".",
		},
	}
}

// Validate checks the configuration before the run starts. It does not
// touch the filesystem or network.
func (c *Config) Validate() error {
	if c.Organization == "" {
		return &ValidationError{Field: "organization", Message: "organization ID is required"}
	}
	if _, err := uuid.Parse(c.Organization); err != nil {
		return &ValidationError{Field: "organization", Message: "organization ID must be a UUID"}
	}
	if c.Project.Slug == "" {
		return &ValidationError{Field: "project.slug", Message: "project slug is required"}
	}
	if c.Project.SigningPolicySlug == "" {
		return &ValidationError{Field: "project.signing_policy", Message: "signing policy slug is required"}
	}

	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return &ValidationError{Field: "api.base_url", Message: fmt.Sprintf("invalid base URL %q", c.API.BaseURL)}
	}

	durations := []struct {
		field string
		value time.Duration
	}{
		{"api.connect_timeout", c.API.ConnectTimeout},
		{"api.http_timeout", c.API.HTTPTimeout},
		{"api.retry_timeout", c.API.RetryTimeout},
		{"api.retry_interval", c.API.RetryInterval},
		{"api.poll_interval", c.API.PollInterval},
	}
	for _, d := range durations {
		if d.value <= 0 {
			return &ValidationError{Field: d.field, Message: "must be positive"}
		}
	}
	if c.API.MaxRetries < 0 {
		return &ValidationError{Field: "api.max_retries", Message: "must not be negative"}
	}

	for key := range c.Project.Parameters {
		if key == "" {
			return &ValidationError{Field: "project.parameters", Message: "parameter keys must not be empty"}
		}
	}

	return nil
}

// ValidationError reports a config field that fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}
