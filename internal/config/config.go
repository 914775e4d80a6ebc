package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/catalogbuilder/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when --config is not given.
const DefaultPath = ".catalogbuilder.yaml"

// Config is the optional configuration file. Every field can be overridden
// from the command line.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	CatalogAPI CatalogAPIConfig `yaml:"catalog_api"`
	Azure      AzureConfig      `yaml:"azure"`
	Retry      RetryConfig      `yaml:"retry"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// GenerationConfig holds the defaults of the make and debug commands.
type GenerationConfig struct {
	Owner       string   `yaml:"owner"`
	Lifecycle   string   `yaml:"lifecycle"`
	Name        string   `yaml:"name"`
	Templates   string   `yaml:"templates"`
	Policy      string   `yaml:"policy"`
	FileTypes   []string `yaml:"file_types"`
	Skip        []string `yaml:"skip"`
	Concurrency int      `yaml:"concurrency"`
}

// CatalogAPIConfig describes where catalog files are registered.
type CatalogAPIConfig struct {
	URL      string `yaml:"url"`       // Backstage base URL
	FileAPI  string `yaml:"file_api"`  // prefix that makes a catalog path reachable by Backstage
	TokenEnv string `yaml:"token_env"` // environment variable holding the optional token
	Auth     string `yaml:"auth"`      // bearer|basic
}

// AzureConfig holds the rollup coordinates and URL patterns. Patterns may
// reference ${organisation}, ${project}, ${repo}, ${projectsFile},
// ${reposFile} and ${statsFile}.
type AzureConfig struct {
	Organisation   string `yaml:"organisation"`
	Project        string `yaml:"project"`
	Repo           string `yaml:"repo"`
	ProjectsFile   string `yaml:"projects_file"`
	ReposFile      string `yaml:"repos_file"`
	StatsFile      string `yaml:"stats_file"`
	ProjectPattern string `yaml:"project_pattern"`
	ReposPattern   string `yaml:"repos_pattern"`
	StatsPattern   string `yaml:"stats_pattern"`
	TokenEnv       string `yaml:"token_env"`
}

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads the configuration file at path. A missing file yields the
// defaults when allowMissing is set, so the default path is optional while an
// explicit --config is not.
func Load(path string, allowMissing bool) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(expandEnv(string(data))), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse config file").
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err) && allowMissing:
	case os.IsNotExist(err):
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", path).
			UserAction().
			Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).
			Build()
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the process environment win.
func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", "path", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", name)
	}
}

// expandEnv substitutes environment variables. Unset variables are kept
// verbatim so the rollup patterns survive.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return "${" + name + "}"
	})
}

func (c *Config) applyDefaults() {
	setDefault(&c.Generation.Owner, "Not Known")
	setDefault(&c.Generation.Lifecycle, "experimental")
	if c.Generation.Concurrency == 0 {
		c.Generation.Concurrency = 8
	}
	setDefault(&c.CatalogAPI.URL, "http://localhost:7007/")
	setDefault(&c.CatalogAPI.FileAPI, "http://localhost:3010/")
	setDefault(&c.CatalogAPI.Auth, AuthBasic)
	c.Azure.applyDefaults()
	c.Retry.applyDefaults()
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// Validate reports the first invalid setting as a classified config error.
func (c *Config) Validate() error {
	if c.Generation.Concurrency < 1 {
		return errors.ValidationError("generation.concurrency must be at least 1").
			WithContext("concurrency", c.Generation.Concurrency).
			Build()
	}
	switch strings.ToLower(c.CatalogAPI.Auth) {
	case AuthBearer, AuthBasic:
	default:
		return errors.ValidationError(fmt.Sprintf("catalog_api.auth must be %s or %s", AuthBearer, AuthBasic)).
			WithContext("auth", c.CatalogAPI.Auth).
			Build()
	}
	if err := c.Retry.validate(); err != nil {
		return err
	}
	return nil
}

// Authentication schemes for the catalog API.
const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// DefaultAzureItemPattern fetches a file from a repository through the Azure
// DevOps items API.
const DefaultAzureItemPattern = "https://dev.azure.com/${organisation}/${project}/_apis/git/repositories/${repo}/items?path=%s&api-version=6.0"

func (a *AzureConfig) applyDefaults() {
	setDefault(&a.Organisation, "Day0-POCs")
	setDefault(&a.Project, "Backstage")
	setDefault(&a.Repo, "DevHub")
	setDefault(&a.ProjectsFile, "projects.txt")
	setDefault(&a.ReposFile, "repos.txt")
	setDefault(&a.StatsFile, "stats.txt")
	setDefault(&a.ProjectPattern, fmt.Sprintf(DefaultAzureItemPattern, "${projectsFile}"))
	setDefault(&a.ReposPattern, fmt.Sprintf(DefaultAzureItemPattern, "${reposFile}"))
	setDefault(&a.StatsPattern, fmt.Sprintf(DefaultAzureItemPattern, "${statsFile}"))
	setDefault(&a.TokenEnv, "SYSTEM_ACCESSTOKEN")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
