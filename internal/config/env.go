package config

import (
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds settings read from the process environment. These take
// effect without a config file so CI pipelines can steer a build
// without editing checked-in configs.
type Env struct {
	// SkipSigning disables signing entirely when set to a truthy value.
	SkipSigning string `env:"SIGNPATH_SKIP_SIGNING"`

	// Dir overrides the zign config directory (token storage).
	Dir string `env:"ZIGN_DIR"`
}

// LoadEnv reads the zign environment variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, err
	}
	return e, nil
}

// SkipRequested reports whether SIGNPATH_SKIP_SIGNING asks to skip
// signing. Accepted truthy values are "1", "true", and "yes",
// case-insensitively. Anything else, including empty, means sign.
func (e Env) SkipRequested() bool {
	switch strings.ToLower(strings.TrimSpace(e.SkipSigning)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
