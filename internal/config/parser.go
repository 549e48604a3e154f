package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Parser represents a Lua config parser.
type Parser struct{}

// NewParser creates a new config parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses a Lua config from a string.
// This is useful for testing and in-memory config generation.
func (p *Parser) ParseString(luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	// Execute Lua code
	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	// Extract config from the Lua state
	return extractConfig(L)
}

// ParseFile parses a Lua config from a file on disk.
func (p *Parser) ParseFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s is %d bytes, limit is %d", path, info.Size(), MaxConfigFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return p.ParseString(string(data))
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig extracts the config from a Lua state.
// It expects a global "zign" table with the config structure.
// Fields absent from the table keep their defaults, so a minimal
// config only needs the organization and project slugs.
func extractConfig(L *lua.LState) (*Config, error) {
	zignTable := L.GetGlobal(luaGlobalZign)
	if zignTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: "missing or invalid 'zign' table",
			Detail:  fmt.Sprintf("expected table, got %s", zignTable.Type()),
		}
	}

	defaults := Default()
	config := &defaults
	table := zignTable.(*lua.LTable)

	if orgVal := table.RawGetString(luaFieldOrganization); orgVal.Type() == lua.LTString {
		config.Organization = orgVal.String()
	}

	if skipVal := table.RawGetString(luaFieldSkip); skipVal.Type() == lua.LTBool {
		config.Skip = bool(skipVal.(lua.LBool))
	}

	// Extract project
	if projectVal := table.RawGetString(luaFieldProject); projectVal.Type() == lua.LTTable {
		extractProject(projectVal.(*lua.LTable), &config.Project)
	}

	// Extract api
	if apiVal := table.RawGetString(luaFieldAPI); apiVal.Type() == lua.LTTable {
		extractAPI(apiVal.(*lua.LTable), &config.API)
	}

	// Extract files
	if filesVal := table.RawGetString(luaFieldFiles); filesVal.Type() == lua.LTTable {
		extractFiles(filesVal.(*lua.LTable), &config.Files)
	}

	return config, nil
}

// extractProject extracts the project section from a Lua table.
func extractProject(table *lua.LTable, project *Project) {
	if v := table.RawGetString(luaFieldSlug); v.Type() == lua.LTString {
		project.Slug = v.String()
	}

	if v := table.RawGetString(luaFieldSigningPolicy); v.Type() == lua.LTString {
		project.SigningPolicySlug = v.String()
	}

	if v := table.RawGetString(luaFieldArtifactConfig); v.Type() == lua.LTString {
		project.ArtifactConfigurationSlug = v.String()
	}

	if v := table.RawGetString(luaFieldDescription); v.Type() == lua.LTString {
		project.Description = v.String()
	}

	// Parameters is a string-keyed table of string values. Non-string
	// entries are skipped (validation catches empty keys later).
	if v := table.RawGetString(luaFieldParameters); v.Type() == lua.LTTable {
		params := map[string]string{}
		v.(*lua.LTable).ForEach(func(key, value lua.LValue) {
			if key.Type() != lua.LTString || value.Type() != lua.LTString {
				return
			}
			params[key.String()] = value.String()
		})
		if len(params) > 0 {
			project.Parameters = params
		}
	}
}

// extractAPI extracts the api section from a Lua table.
// Durations are given in seconds.
func extractAPI(table *lua.LTable, api *API) {
	if v := table.RawGetString(luaFieldBaseURL); v.Type() == lua.LTString {
		api.BaseURL = v.String()
	}

	if v := table.RawGetString(luaFieldToken); v.Type() == lua.LTString {
		api.Token = v.String()
	}

	if d, ok := extractSeconds(table, luaFieldConnectTimeout); ok {
		api.ConnectTimeout = d
	}
	if d, ok := extractSeconds(table, luaFieldHTTPTimeout); ok {
		api.HTTPTimeout = d
	}
	if d, ok := extractSeconds(table, luaFieldRetryTimeout); ok {
		api.RetryTimeout = d
	}
	if d, ok := extractSeconds(table, luaFieldRetryInterval); ok {
		api.RetryInterval = d
	}
	if d, ok := extractSeconds(table, luaFieldPollInterval); ok {
		api.PollInterval = d
	}

	if v := table.RawGetString(luaFieldMaxRetries); v.Type() == lua.LTNumber {
		api.MaxRetries = int(lua.LVAsNumber(v))
	}
}

// extractFiles extracts the files section from a Lua table.
func extractFiles(table *lua.LTable, files *Files) {
	if v := table.RawGetString(luaFieldBaseDir); v.Type() == lua.LTString {
		files.BaseDir = v.String()
	}

	if v := table.RawGetString(luaFieldIncludes); v.Type() == lua.LTTable {
		files.Includes = extractStrings(v.(*lua.LTable))
	}

	if v := table.RawGetString(luaFieldExcludes); v.Type() == lua.LTTable {
		files.Excludes = extractStrings(v.(*lua.LTable))
	}

	if v := table.RawGetString(luaFieldOutputDir); v.Type() == lua.LTString {
		files.OutputDir = v.String()
	}

	if v := table.RawGetString(luaFieldFailOnNoFiles); v.Type() == lua.LTBool {
		files.FailOnNoFiles = bool(v.(lua.LBool))
	}
}

// extractStrings extracts a string array from a Lua table.
// It filters out nil and non-string values.
func extractStrings(table *lua.LTable) []string {
	var out []string

	table.ForEach(func(key, value lua.LValue) {
		if value.Type() != lua.LTString {
			return
		}
		out = append(out, value.String())
	})

	return out
}

// extractSeconds reads a numeric field as a duration in seconds.
func extractSeconds(table *lua.LTable, field string) (time.Duration, bool) {
	v := table.RawGetString(field)
	if v.Type() != lua.LTNumber {
		return 0, false
	}
	return time.Duration(float64(lua.LVAsNumber(v)) * float64(time.Second)), true
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		// Extract the most relevant part of the error
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
