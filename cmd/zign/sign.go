package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ZebulonRouseFrantzich/zign/internal/config"
	"github.com/ZebulonRouseFrantzich/zign/internal/credentials"
	"github.com/ZebulonRouseFrantzich/zign/internal/scan"
	"github.com/ZebulonRouseFrantzich/zign/internal/signing"
	"github.com/ZebulonRouseFrantzich/zign/internal/signpath"
)

// defaultConfigFile is picked up from the working directory when no
// --config flag is given.
const defaultConfigFile = "zign.lua"

// runSign handles the `zign sign` subcommand
func runSign(args []string) error {
	// Parse flags and explicit files
	showHelp := false
	verbose := false
	skip := false
	failOnNone := false

	var (
		configPath  string
		baseDir     string
		outputDir   string
		includes    []string
		excludes    []string
		projectSlug string
		policySlug  string
		artifactCfg string
		org         string
		baseURL     string
		description string
		token       string
		params      = map[string]string{}
		files       []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Value-taking flags consume the next argument
		takeValue := func() (string, error) {
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value\nRun 'zign sign --help' for usage", arg)
			}
			return args[i], nil
		}

		var err error
		switch arg {
		case "--help", "-h":
			showHelp = true
		case "--verbose", "-v":
			verbose = true
		case "--skip":
			skip = true
		case "--fail-on-none":
			failOnNone = true
		case "--config", "-c":
			configPath, err = takeValue()
		case "--base-dir":
			baseDir, err = takeValue()
		case "--output-dir":
			outputDir, err = takeValue()
		case "--include":
			var v string
			if v, err = takeValue(); err == nil {
				includes = append(includes, v)
			}
		case "--exclude":
			var v string
			if v, err = takeValue(); err == nil {
				excludes = append(excludes, v)
			}
		case "--project-slug":
			projectSlug, err = takeValue()
		case "--policy-slug":
			policySlug, err = takeValue()
		case "--artifact-config":
			artifactCfg, err = takeValue()
		case "--org":
			org, err = takeValue()
		case "--base-url":
			baseURL, err = takeValue()
		case "--description":
			description, err = takeValue()
		case "--token":
			token, err = takeValue()
		case "--param":
			var v string
			if v, err = takeValue(); err == nil {
				key, value, ok := strings.Cut(v, "=")
				if !ok || key == "" {
					return fmt.Errorf("--param expects key=value, got %q", v)
				}
				params[key] = value
			}
		default:
			// Anything not starting with - is an explicit file
			if len(arg) > 0 && arg[0] != '-' {
				files = append(files, arg)
			} else {
				return fmt.Errorf("unknown option: %s\nRun 'zign sign --help' for usage", arg)
			}
		}
		if err != nil {
			return err
		}
	}

	if showHelp {
		printSignHelp()
		return nil
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// Environment switches come first so CI can disable signing without
	// touching the config file.
	envCfg, err := config.LoadEnv()
	if err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if skip || envCfg.SkipRequested() {
		color.Yellow("Signing skipped.")
		return nil
	}

	// Load config file, then layer flag overrides on top
	cfg, err := loadConfig(configPath, verbose)
	if err != nil {
		return err
	}
	if cfg.Skip {
		color.Yellow("Signing skipped (disabled in config).")
		return nil
	}

	if org != "" {
		cfg.Organization = org
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if projectSlug != "" {
		cfg.Project.Slug = projectSlug
	}
	if policySlug != "" {
		cfg.Project.SigningPolicySlug = policySlug
	}
	if artifactCfg != "" {
		cfg.Project.ArtifactConfigurationSlug = artifactCfg
	}
	if description != "" {
		cfg.Project.Description = description
	}
	for key, value := range params {
		if cfg.Project.Parameters == nil {
			cfg.Project.Parameters = map[string]string{}
		}
		cfg.Project.Parameters[key] = value
	}
	if baseDir != "" {
		cfg.Files.BaseDir = baseDir
	}
	if outputDir != "" {
		cfg.Files.OutputDir = outputDir
	}
	if len(includes) > 0 {
		cfg.Files.Includes = includes
	}
	if len(excludes) > 0 {
		cfg.Files.Excludes = excludes
	}
	if failOnNone {
		cfg.Files.FailOnNoFiles = true
	}
	cfg.Files.Explicit = append(cfg.Files.Explicit, files...)
	if token != "" {
		cfg.API.Token = token
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	// Select the artifacts for this run
	selector := &scan.Selector{
		BaseDir:  cfg.Files.BaseDir,
		Includes: cfg.Files.Includes,
		Excludes: cfg.Files.Excludes,
		Explicit: cfg.Files.Explicit,
		Log:      logger,
	}
	if err := selector.ValidatePatterns(); err != nil {
		return err
	}
	targets, err := selector.Select()
	if err != nil {
		return fmt.Errorf("select files: %w", err)
	}
	if len(targets) == 0 {
		if cfg.Files.FailOnNoFiles {
			return fmt.Errorf("no files matched for signing")
		}
		color.Yellow("No files matched for signing; nothing to do.")
		return nil
	}

	// Resolve credentials: explicit token, then token file, then env
	zignDir := envCfg.Dir
	if zignDir == "" {
		zignDir, err = getZignDir()
		if err != nil {
			return err
		}
	}
	resolver := credentials.NewResolver(cfg.API.Token, zignDir, logger)
	apiToken, err := resolver.Resolve()
	if err != nil {
		return err
	}

	client := signpath.NewClient(signpath.Config{
		BaseURL:        cfg.API.BaseURL,
		OrganizationID: cfg.Organization,
		APIToken:       apiToken,
		ConnectTimeout: cfg.API.ConnectTimeout,
		HTTPTimeout:    cfg.API.HTTPTimeout,
		Retry: signpath.RetryPolicy{
			MaxRetries:    cfg.API.MaxRetries,
			RetryTimeout:  cfg.API.RetryTimeout,
			RetryInterval: cfg.API.RetryInterval,
		},
	}, logger)
	defer client.Close()

	manager := signing.NewManager(client, signing.Options{
		ProjectSlug:               cfg.Project.Slug,
		SigningPolicySlug:         cfg.Project.SigningPolicySlug,
		ArtifactConfigurationSlug: cfg.Project.ArtifactConfigurationSlug,
		Description:               cfg.Project.Description,
		Parameters:                cfg.Project.Parameters,
		OutputDir:                 cfg.Files.OutputDir,
		PollInterval:              cfg.API.PollInterval,
	}, logger)

	// Ctrl-C cancels the run between polls and mid-download
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := manager.Run(ctx, targets); err != nil {
		return err
	}

	color.Green("Signed %d file(s).", len(targets))
	return nil
}

// loadConfig reads the config file if one is given or present, and
// falls back to defaults otherwise.
func loadConfig(path string, verbose bool) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path == "" {
		defaults := config.Default()
		return &defaults, nil
	}

	cfg, err := config.NewParser().ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s", config.FormatError(err, verbose))
	}
	return cfg, nil
}

// newLogger builds a console logger. Verbose mode enables debug output.
func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.DisableStacktrace = true
	if !verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// printSignHelp prints help for the sign command
func printSignHelp() {
	fmt.Println("Usage: zign sign [options] [files...]")
	fmt.Println()
	fmt.Println("Submit build artifacts to SignPath for signing and install the")
	fmt.Println("signed results. Files are selected by the config file's globs,")
	fmt.Println("flags, and any explicitly listed files.")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -h, --help             Show this help message")
	fmt.Println("  -v, --verbose          Enable debug output")
	fmt.Println("  -c, --config <file>    Config file (default: zign.lua if present)")
	fmt.Println("  --base-dir <dir>       Directory scanned by include globs")
	fmt.Println("  --include <glob>       Include pattern (repeatable)")
	fmt.Println("  --exclude <glob>       Exclude pattern (repeatable)")
	fmt.Println("  --output-dir <dir>     Write signed files here instead of in place")
	fmt.Println("  --org <uuid>           SignPath organization ID")
	fmt.Println("  --base-url <url>       API root (default: https://app.signpath.io/Api)")
	fmt.Println("  --project-slug <slug>  SignPath project")
	fmt.Println("  --policy-slug <slug>   Signing policy")
	fmt.Println("  --artifact-config <slug>  Artifact configuration")
	fmt.Println("  --description <text>   Request description")
	fmt.Println("  --param <key=value>    Custom request parameter (repeatable)")
	fmt.Println("  --token <token>        API token (overrides token file and env)")
	fmt.Println("  --skip                 Do nothing and exit successfully")
	fmt.Println("  --fail-on-none         Treat an empty file selection as an error")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  SIGNPATH_API_TOKEN     API token fallback")
	fmt.Println("  SIGNPATH_SKIP_SIGNING  Set to 1/true/yes to skip signing")
	fmt.Println("  ZIGN_DIR               Config directory (default: ~/.config/zign)")
}
