// Package credentials resolves the SignPath API token from an ordered
// fallback chain: explicit configuration, then the stored token file,
// then the SIGNPATH_API_TOKEN environment variable. The chain is a plain
// ordered list of lookup functions; first non-empty result wins.
package credentials

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

const (
	// EnvAPIToken is the environment variable consulted as the last
	// token source.
	EnvAPIToken = "SIGNPATH_API_TOKEN"

	// EnvTokenPassphrase unlocks an OpenPGP-encrypted token file.
	EnvTokenPassphrase = "SIGNPATH_TOKEN_PASSPHRASE"
)

// Source is one place a token can come from. Lookup returns an empty
// string when the source is simply not configured; an error means the
// source exists but cannot be read.
type Source struct {
	Name   string
	Lookup func() (string, error)
}

// Resolver walks its sources in priority order.
type Resolver struct {
	sources []Source
	log     *zap.SugaredLogger
}

// NewResolver builds the standard chain. explicit is the token given via
// flag or config file; configDir is where the stored token file lives.
func NewResolver(explicit, configDir string, log *zap.SugaredLogger) *Resolver {
	return &Resolver{
		log: log,
		sources: []Source{
			{
				Name:   "--token flag or api.token config value",
				Lookup: func() (string, error) { return explicit, nil },
			},
			{
				Name:   fmt.Sprintf("token file under %s", configDir),
				Lookup: func() (string, error) { return readTokenFile(configDir) },
			},
			{
				Name:   EnvAPIToken + " environment variable",
				Lookup: func() (string, error) { return os.Getenv(EnvAPIToken), nil },
			},
		},
	}
}

// Resolve returns the first configured token. When no source yields one,
// the error lists every source in priority order so the operator knows
// what to set.
func (r *Resolver) Resolve() (string, error) {
	names := make([]string, 0, len(r.sources))
	for _, source := range r.sources {
		names = append(names, source.Name)

		token, err := source.Lookup()
		if err != nil {
			return "", fmt.Errorf("read API token from %s: %w", source.Name, err)
		}
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		r.log.Debugw("using API token", "source", source.Name)
		return token, nil
	}

	return "", &NoCredentialError{Sources: names}
}

// NoCredentialError reports that no token source is configured. It lists
// the sources in the order they were consulted.
type NoCredentialError struct {
	Sources []string
}

func (e *NoCredentialError) Error() string {
	var b strings.Builder
	b.WriteString("no API token found. Provide it via one of the following (in priority order):")
	for i, source := range e.Sources {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, source)
	}
	return b.String()
}
