package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendGitHub = "github"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

const (
	githubTokenEnv = "GH_PAT"
	s3SecretEnv    = "SECRET_KEY"
)

var ErrMissingCredential = errors.New("missing credential")

type Config struct {
	SourceURL  string `yaml:"source_url"`
	SourceName string `yaml:"source_name"`
	FilePrefix string `yaml:"file_prefix"`
	FileExt    string `yaml:"file_ext"`

	Backend      string `yaml:"backend"`
	TargetDir    string `yaml:"target_dir"`
	TargetBranch string `yaml:"target_branch"`

	GitHubOwner  string `yaml:"github_owner"`
	GitHubRepo   string `yaml:"github_repo"`
	GitHubAPIURL string `yaml:"github_api_url"`
	GitHubToken  string `yaml:"-"`

	ApiURL     string `yaml:"api_url"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"-"`
	BucketName string `yaml:"bucket_name"`
	Region     string `yaml:"region"`

	StagingDir     string `yaml:"staging_dir"`
	HTTPTimeout    int    `yaml:"http_timeout"`
	PushgatewayURL string `yaml:"pushgateway_url"`
	MetricsJob     string `yaml:"metrics_job"`
}

func Default() *Config {
	return &Config{
		SourceURL:    "https://cwrusdle.bitbucket.io/files/",
		SourceName:   "Bitbucket",
		FilePrefix:   "MDS_Onto",
		FileExt:      "jsonld",
		Backend:      BackendGitHub,
		TargetDir:    "ontology",
		TargetBranch: "main",
		GitHubOwner:  "ucf-photovoltaics",
		GitHubRepo:   "pv-ontology",
		HTTPTimeout:  60,
		MetricsJob:   "ontosync",
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment variables only")
	}

	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.SourceURL = getEnv("SOURCE_URL", config.SourceURL)
	config.SourceName = getEnv("SOURCE_NAME", config.SourceName)
	config.FilePrefix = getEnv("FILE_PREFIX", config.FilePrefix)
	config.FileExt = getEnv("FILE_EXT", config.FileExt)
	config.Backend = getEnv("STORE_BACKEND", config.Backend)
	config.TargetDir = getEnv("TARGET_DIR", config.TargetDir)
	config.TargetBranch = getEnv("TARGET_BRANCH", config.TargetBranch)
	config.GitHubOwner = getEnv("GITHUB_OWNER", config.GitHubOwner)
	config.GitHubRepo = getEnv("GITHUB_REPO", config.GitHubRepo)
	config.GitHubAPIURL = getEnv("GITHUB_API_URL", config.GitHubAPIURL)
	config.GitHubToken = getEnv(githubTokenEnv, "")
	config.ApiURL = getEnv("API_URL", config.ApiURL)
	config.AccessKey = getEnv("ACCESS_KEY", config.AccessKey)
	config.SecretKey = getEnv(s3SecretEnv, "")
	config.BucketName = getEnv("BUCKET_NAME", config.BucketName)
	config.Region = getEnv("REGION", config.Region)
	config.StagingDir = getEnv("STAGING_DIR", config.StagingDir)
	config.PushgatewayURL = getEnv("PUSHGATEWAY_URL", config.PushgatewayURL)
	config.MetricsJob = getEnv("METRICS_JOB", config.MetricsJob)

	timeout, err := getEnvInt("HTTP_TIMEOUT", config.HTTPTimeout)
	if err != nil {
		return nil, err
	}
	config.HTTPTimeout = timeout

	config.SourceURL = normalizeSourceURL(config.SourceURL)

	return config, nil
}

// ValidateSource checks the settings needed to read the listing.
func (c *Config) ValidateSource() error {
	u, err := url.Parse(c.SourceURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid source url %q", c.SourceURL)
	}
	if c.FilePrefix == "" || c.FileExt == "" {
		return fmt.Errorf("file prefix and extension must be set")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be greater than 0")
	}
	return nil
}

// Validate checks the non-secret settings. The credential is checked
// separately so a missing secret can be reported before any network call.
func (c *Config) Validate() error {
	if err := c.ValidateSource(); err != nil {
		return err
	}

	switch c.Backend {
	case BackendGitHub:
		if c.GitHubOwner == "" || c.GitHubRepo == "" {
			return fmt.Errorf("github owner and repository must be set")
		}
	case BackendS3:
		if c.BucketName == "" {
			return fmt.Errorf("bucket name must be set for the s3 backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Backend)
	}
	return nil
}

// Credential returns the secret required by the configured backend together
// with the environment variable it is read from.
func (c *Config) Credential() (string, string) {
	switch c.Backend {
	case BackendS3:
		return c.SecretKey, s3SecretEnv
	case BackendMemory:
		return "memory", ""
	default:
		return c.GitHubToken, githubTokenEnv
	}
}

func (c *Config) RequireCredential() error {
	secret, env := c.Credential()
	if secret == "" {
		return fmt.Errorf("%w: environment variable %s is not set", ErrMissingCredential, env)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

func normalizeSourceURL(raw string) string {
	if raw == "" || strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}
