package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configEnvVars = []string{
	"SOURCE_URL", "SOURCE_NAME", "FILE_PREFIX", "FILE_EXT", "STORE_BACKEND",
	"TARGET_DIR", "TARGET_BRANCH", "GITHUB_OWNER", "GITHUB_REPO", "GITHUB_API_URL",
	"GH_PAT", "API_URL", "ACCESS_KEY", "SECRET_KEY", "BUCKET_NAME", "REGION",
	"STAGING_DIR", "HTTP_TIMEOUT", "PUSHGATEWAY_URL", "METRICS_JOB",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")

	result := getEnv("TEST_VAR", "default_value")
	if result != "test_value" {
		t.Errorf("getEnv() = %s, want %s", result, "test_value")
	}

	result = getEnv("NON_EXISTENT_VAR", "default_value")
	if result != "default_value" {
		t.Errorf("getEnv() = %s, want %s", result, "default_value")
	}

	t.Setenv("EMPTY_VAR", "")

	result = getEnv("EMPTY_VAR", "default_value")
	if result != "default_value" {
		t.Errorf("getEnv() = %s, want %s", result, "default_value")
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("INT_VAR", "42")
	n, err := getEnvInt("INT_VAR", 7)
	if err != nil || n != 42 {
		t.Errorf("getEnvInt() = %d, %v, want 42, nil", n, err)
	}

	n, err = getEnvInt("MISSING_INT_VAR", 7)
	if err != nil || n != 7 {
		t.Errorf("getEnvInt() = %d, %v, want 7, nil", n, err)
	}

	t.Setenv("BAD_INT_VAR", "seven")
	if _, err := getEnvInt("BAD_INT_VAR", 7); err == nil {
		t.Errorf("getEnvInt() with non-numeric value should return error")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.SourceURL != "https://cwrusdle.bitbucket.io/files/" {
		t.Errorf("config.SourceURL = %s", config.SourceURL)
	}
	if config.FilePrefix != "MDS_Onto" || config.FileExt != "jsonld" {
		t.Errorf("naming pattern = %s/%s, want MDS_Onto/jsonld", config.FilePrefix, config.FileExt)
	}
	if config.Backend != BackendGitHub {
		t.Errorf("config.Backend = %s, want %s", config.Backend, BackendGitHub)
	}
	if config.TargetDir != "ontology" || config.TargetBranch != "main" {
		t.Errorf("target = %s@%s, want ontology@main", config.TargetDir, config.TargetBranch)
	}
	if config.HTTPTimeout != 60 {
		t.Errorf("config.HTTPTimeout = %d, want 60", config.HTTPTimeout)
	}
	if config.GitHubToken != "" {
		t.Errorf("config.GitHubToken = %s, want empty", config.GitHubToken)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)

	testVars := map[string]string{
		"SOURCE_URL":    "https://files.example.com/onto",
		"STORE_BACKEND": "s3",
		"API_URL":       "https://test-api.example.com",
		"ACCESS_KEY":    "test-access-key",
		"SECRET_KEY":    "test-secret-key",
		"BUCKET_NAME":   "test-bucket",
		"REGION":        "test-region",
		"HTTP_TIMEOUT":  "15",
		"GH_PAT":        "ghp_test",
	}
	for key, value := range testVars {
		t.Setenv(key, value)
	}

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.SourceURL != "https://files.example.com/onto/" {
		t.Errorf("config.SourceURL = %s, want trailing slash", config.SourceURL)
	}
	if config.Backend != BackendS3 {
		t.Errorf("config.Backend = %s, want %s", config.Backend, BackendS3)
	}
	if config.ApiURL != testVars["API_URL"] {
		t.Errorf("config.ApiURL = %s, want %s", config.ApiURL, testVars["API_URL"])
	}
	if config.AccessKey != testVars["ACCESS_KEY"] {
		t.Errorf("config.AccessKey = %s, want %s", config.AccessKey, testVars["ACCESS_KEY"])
	}
	if config.SecretKey != testVars["SECRET_KEY"] {
		t.Errorf("config.SecretKey = %s, want %s", config.SecretKey, testVars["SECRET_KEY"])
	}
	if config.BucketName != testVars["BUCKET_NAME"] {
		t.Errorf("config.BucketName = %s, want %s", config.BucketName, testVars["BUCKET_NAME"])
	}
	if config.Region != testVars["REGION"] {
		t.Errorf("config.Region = %s, want %s", config.Region, testVars["REGION"])
	}
	if config.HTTPTimeout != 15 {
		t.Errorf("config.HTTPTimeout = %d, want 15", config.HTTPTimeout)
	}
	if config.GitHubToken != "ghp_test" {
		t.Errorf("config.GitHubToken = %s, want ghp_test", config.GitHubToken)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "ontosync.yaml")
	content := []byte(`source_url: https://mirror.example.com/files/
file_prefix: PV_Onto
target_dir: data
target_branch: develop
github_owner: example-org
github_repo: ontologies
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("TARGET_BRANCH", "release")

	config, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if config.SourceURL != "https://mirror.example.com/files/" {
		t.Errorf("config.SourceURL = %s", config.SourceURL)
	}
	if config.FilePrefix != "PV_Onto" {
		t.Errorf("config.FilePrefix = %s, want PV_Onto", config.FilePrefix)
	}
	if config.FileExt != "jsonld" {
		t.Errorf("config.FileExt = %s, want default jsonld", config.FileExt)
	}
	if config.TargetDir != "data" {
		t.Errorf("config.TargetDir = %s, want data", config.TargetDir)
	}
	if config.TargetBranch != "release" {
		t.Errorf("config.TargetBranch = %s, environment should win over file", config.TargetBranch)
	}
	if config.GitHubOwner != "example-org" || config.GitHubRepo != "ontologies" {
		t.Errorf("repository = %s/%s", config.GitHubOwner, config.GitHubRepo)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load() with missing file should return error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Defaults", func(c *Config) {}, false},
		{"Relative source url", func(c *Config) { c.SourceURL = "files/" }, true},
		{"Missing prefix", func(c *Config) { c.FilePrefix = "" }, true},
		{"Zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, true},
		{"Unknown backend", func(c *Config) { c.Backend = "ftp" }, true},
		{"GitHub without repo", func(c *Config) { c.GitHubRepo = "" }, true},
		{"S3 without bucket", func(c *Config) { c.Backend = BackendS3 }, true},
		{"S3 with bucket", func(c *Config) { c.Backend = BackendS3; c.BucketName = "b" }, false},
		{"Memory backend", func(c *Config) { c.Backend = BackendMemory }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.expectError {
				t.Errorf("Validate() error = %v, expectError %v", err, tt.expectError)
			}
		})
	}
}

func TestValidateSource(t *testing.T) {
	c := Default()
	c.Backend = "ftp"
	if err := c.ValidateSource(); err != nil {
		t.Errorf("ValidateSource() should ignore the backend, got %v", err)
	}

	c.SourceURL = "not-a-url"
	err := c.ValidateSource()
	if err == nil || !strings.Contains(err.Error(), "invalid source url") {
		t.Errorf("ValidateSource() error = %v, want invalid source url", err)
	}
}

func TestRequireCredential(t *testing.T) {
	c := Default()
	err := c.RequireCredential()
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("RequireCredential() error = %v, want ErrMissingCredential", err)
	}

	c.GitHubToken = "ghp_test"
	if err := c.RequireCredential(); err != nil {
		t.Errorf("RequireCredential() error = %v", err)
	}

	c.Backend = BackendS3
	if err := c.RequireCredential(); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("RequireCredential() for s3 without SECRET_KEY error = %v", err)
	}

	c.SecretKey = "secret"
	if err := c.RequireCredential(); err != nil {
		t.Errorf("RequireCredential() error = %v", err)
	}
}
