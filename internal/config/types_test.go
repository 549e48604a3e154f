package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	c := Default()
	c.Organization = "0e4f80a2-3b67-4f44-9a7a-5a8e1f4b2c3d"
	c.Project.Slug = "my-project"
	c.Project.SigningPolicySlug = "release-signing"
	return c
}

func TestDefault(t *testing.T) {
	c := Default()

	if c.API.BaseURL != "https://app.signpath.io/Api" {
		t.Errorf("BaseURL = %s", c.API.BaseURL)
	}
	if c.API.ConnectTimeout != 30*time.Second {
		t.Errorf("ConnectTimeout = %v, want 30s", c.API.ConnectTimeout)
	}
	if c.API.HTTPTimeout != 300*time.Second {
		t.Errorf("HTTPTimeout = %v, want 300s", c.API.HTTPTimeout)
	}
	if c.API.RetryTimeout != 600*time.Second {
		t.Errorf("RetryTimeout = %v, want 600s", c.API.RetryTimeout)
	}
	if c.API.RetryInterval != 30*time.Second {
		t.Errorf("RetryInterval = %v, want 30s", c.API.RetryInterval)
	}
	if c.API.MaxRetries != 10 {
		t.Errorf("MaxRetries = %d, want 10", c.API.MaxRetries)
	}
	if c.API.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v, want 5s", c.API.PollInterval)
	}
	if c.Files.BaseDir != "." {
		t.Errorf("BaseDir = %s, want .", c.Files.BaseDir)
	}
	if c.Skip {
		t.Error("Skip should default to false")
	}
}

func TestValidate_Valid(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "missing organization",
			mutate:    func(c *Config) { c.Organization = "" },
			wantField: "organization",
		},
		{
			name:      "organization not a UUID",
			mutate:    func(c *Config) { c.Organization = "not-a-uuid" },
			wantField: "organization",
		},
		{
			name:      "missing project slug",
			mutate:    func(c *Config) { c.Project.Slug = "" },
			wantField: "project.slug",
		},
		{
			name:      "missing signing policy",
			mutate:    func(c *Config) { c.Project.SigningPolicySlug = "" },
			wantField: "project.signing_policy",
		},
		{
			name:      "base URL without scheme",
			mutate:    func(c *Config) { c.API.BaseURL = "app.signpath.io/Api" },
			wantField: "api.base_url",
		},
		{
			name:      "base URL with bad scheme",
			mutate:    func(c *Config) { c.API.BaseURL = "ftp://app.signpath.io/Api" },
			wantField: "api.base_url",
		},
		{
			name:      "zero poll interval",
			mutate:    func(c *Config) { c.API.PollInterval = 0 },
			wantField: "api.poll_interval",
		},
		{
			name:      "negative retry interval",
			mutate:    func(c *Config) { c.API.RetryInterval = -time.Second },
			wantField: "api.retry_interval",
		},
		{
			name:      "negative max retries",
			mutate:    func(c *Config) { c.API.MaxRetries = -1 },
			wantField: "api.max_retries",
		},
		{
			name:      "empty parameter key",
			mutate:    func(c *Config) { c.Project.Parameters = map[string]string{"": "v"} },
			wantField: "project.parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("Validate() expected error")
			}

			valErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if valErr.Field != tt.wantField {
				t.Errorf("Field = %s, want %s", valErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidate_MaxRetriesZeroAllowed(t *testing.T) {
	c := validConfig()
	c.API.MaxRetries = 0
	if err := c.Validate(); err != nil {
		t.Errorf("MaxRetries=0 should be valid, got %v", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Field: "organization", Message: "organization ID is required"}
	if !strings.Contains(err.Error(), "organization ID is required") {
		t.Errorf("Error() = %s", err.Error())
	}
}
