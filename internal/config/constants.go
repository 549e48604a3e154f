package config

// Lua schema field names and globals
const (
	luaGlobalZign = "zign"

	luaFieldOrganization = "organization"
	luaFieldSkip         = "skip"

	luaFieldProject           = "project"
	luaFieldSlug              = "slug"
	luaFieldSigningPolicy     = "signing_policy"
	luaFieldArtifactConfig    = "artifact_configuration"
	luaFieldDescription       = "description"
	luaFieldParameters        = "parameters"

	luaFieldAPI            = "api"
	luaFieldBaseURL        = "base_url"
	luaFieldToken          = "token"
	luaFieldConnectTimeout = "connect_timeout"
	luaFieldHTTPTimeout    = "http_timeout"
	luaFieldRetryTimeout   = "retry_timeout"
	luaFieldRetryInterval  = "retry_interval"
	luaFieldMaxRetries     = "max_retries"
	luaFieldPollInterval   = "poll_interval"

	luaFieldFiles         = "files"
	luaFieldBaseDir       = "base_dir"
	luaFieldIncludes      = "includes"
	luaFieldExcludes      = "excludes"
	luaFieldOutputDir     = "output_dir"
	luaFieldFailOnNoFiles = "fail_on_no_files"
)

// MaxConfigFileSize caps how much of a config file is read; anything this
// large is not a zign config.
const MaxConfigFileSize = 1 << 20
