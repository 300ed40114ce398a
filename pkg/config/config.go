package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the name used for config and .env discovery
	AppName = "tweets-to-json"

	// BearerTokenEnv holds the API credential
	BearerTokenEnv = "TWITTER_BEARER_TOKEN"

	// DefaultOutputFile is where the collection is written unless overridden
	DefaultOutputFile = "./tweets.json"
)

var (
	// ErrConfigNotFound is returned when no config file is given or discovered
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrMissingCredential is returned when the bearer token is not set
	ErrMissingCredential = fmt.Errorf("%s environment variable not set", BearerTokenEnv)
)

// Config holds everything a run needs besides the credential
type Config struct {
	SearchParams SearchParams  `yaml:"search_params" json:"search_params"`
	Export       ExportConfig  `yaml:"export" json:"export"`
	Output       OutputConfig  `yaml:"output" json:"output"`
	Twitter      TwitterConfig `yaml:"twitter" json:"twitter"`
	Logging      LoggingConfig `yaml:"logging" json:"logging"`

	// Path is the file the config was read from
	Path string `yaml:"-" json:"-"`
}

// SearchParams are forwarded to the timeline endpoint
type SearchParams struct {
	ScreenName     string            `yaml:"screen_name" json:"screen_name" validate:"required"`
	Count          int               `yaml:"count" json:"count" validate:"min=1,max=200"`
	IncludeRTs     bool              `yaml:"include_rts" json:"include_rts"`
	ExcludeReplies bool              `yaml:"exclude_replies" json:"exclude_replies"`
	TrimUser       bool              `yaml:"trim_user" json:"trim_user"`
	TweetMode      string            `yaml:"tweet_mode" json:"tweet_mode" validate:"omitempty,oneof=extended compat"`
	Extra          map[string]string `yaml:"extra" json:"extra"`
}

// ExportConfig selects the export strategy applied to every fetched item
type ExportConfig struct {
	Format string   `yaml:"format" json:"format" validate:"oneof=minimal standard raw"`
	Fields []string `yaml:"fields" json:"fields"`
}

// OutputConfig controls the persisted collection
type OutputConfig struct {
	File   string `yaml:"file" json:"file" validate:"required"`
	Order  string `yaml:"order" json:"order" validate:"oneof=ascending descending"`
	Schema string `yaml:"schema" json:"schema"`
}

// TwitterConfig selects and configures the timeline backend
type TwitterConfig struct {
	Backend   string        `yaml:"backend" json:"backend" validate:"oneof=api nitter"`
	BaseURL   string        `yaml:"base_url" json:"base_url" validate:"required,url"`
	NitterURL string        `yaml:"nitter_url" json:"nitter_url" validate:"omitempty,url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	BearerToken string `yaml:"-" json:"-"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SearchParams: SearchParams{
			Count:      200,
			IncludeRTs: true,
			TweetMode:  "extended",
		},
		Export: ExportConfig{
			Format: "standard",
		},
		Output: OutputConfig{
			File:  DefaultOutputFile,
			Order: "ascending",
		},
		Twitter: TwitterConfig{
			Backend:   "api",
			BaseURL:   "https://api.twitter.com",
			NitterURL: "https://nitter.net",
			Timeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// LoadDotEnv loads .env files without overriding variables already set
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, "."+AppName+".env"))
	}
}

// BearerToken returns the credential from the environment
func BearerToken() (string, error) {
	token := strings.TrimSpace(os.Getenv(BearerTokenEnv))
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}

// LoadFromEnv applies TWEETS_TO_JSON_* overrides
func (c *Config) LoadFromEnv() {
	if level := os.Getenv("TWEETS_TO_JSON_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("TWEETS_TO_JSON_OUTPUT_FILE"); file != "" {
		c.Output.File = file
	}
	if baseURL := os.Getenv("TWEETS_TO_JSON_BASE_URL"); baseURL != "" {
		c.Twitter.BaseURL = baseURL
	}
	if token := strings.TrimSpace(os.Getenv(BearerTokenEnv)); token != "" {
		c.Twitter.BearerToken = token
	}
}

// LoadFromFile reads a YAML or JSON config file, discovering one when path is empty
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return ErrConfigNotFound
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.Path = path
	return nil
}

// configFileNames lists the names searched in every directory, in order
var configFileNames = []string{
	"." + AppName + "rc",
	"." + AppName + "rc.json",
	"." + AppName + "rc.yaml",
	"." + AppName + "rc.yml",
	AppName + ".config.yaml",
	AppName + ".config.yml",
}

// FindConfigFile walks from the working directory up to the root, then tries
// the user config directory. It returns "" when nothing is found.
func FindConfigFile() string {
	if dir, err := os.Getwd(); err == nil {
		for {
			for _, name := range configFileNames {
				candidate := filepath.Join(dir, name)
				if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
					return candidate
				}
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, ".config", AppName, "config.yaml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// Normalize trims user input into canonical form
func (c *Config) Normalize() {
	c.SearchParams.ScreenName = strings.TrimSpace(c.SearchParams.ScreenName)
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Output.Order = strings.ToLower(strings.TrimSpace(c.Output.Order))
	c.Twitter.Backend = strings.ToLower(strings.TrimSpace(c.Twitter.Backend))
	c.Twitter.BaseURL = strings.TrimRight(c.Twitter.BaseURL, "/")
	c.Twitter.NitterURL = strings.TrimRight(c.Twitter.NitterURL, "/")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate config: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if c.Twitter.Backend == "nitter" && c.Twitter.NitterURL == "" {
		errs = append(errs, errors.New("twitter.nitter_url is required for the nitter backend"))
	}

	if c.Export.Format != "standard" && len(c.Export.Fields) > 0 {
		errs = append(errs, errors.New("export.fields is only supported by the standard format"))
	}

	if c.Output.Schema != "" {
		if _, err := os.Stat(c.Output.Schema); err != nil {
			errs = append(errs, fmt.Errorf("output.schema: %w", err))
		}
	}

	return errors.Join(errs...)
}

// describeFieldError turns a validator error into a config-path message
func describeFieldError(fe validator.FieldError) error {
	path := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", path)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", path, fe.Param(), fe.Value())
	case "min", "max", "gt":
		return fmt.Errorf("%s must satisfy %s=%s, got %v", path, fe.Tag(), fe.Param(), fe.Value())
	case "url":
		return fmt.Errorf("%s must be a valid URL, got %q", path, fe.Value())
	default:
		return fmt.Errorf("%s failed %s validation", path, fe.Tag())
	}
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if file, ok := flags["output-file"].(string); ok && file != "" {
		c.Output.File = file
	}
	if level, ok := flags["log-level"].(string); ok && level != "" {
		c.Logging.Level = level
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, err
	}

	config.LoadFromEnv()
	config.MergeCommandLineFlags(flags)
	config.Normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
