package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const appName = "trendr"

type Config struct {
	Source     SourceConfig     `mapstructure:"source"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Network    NetworkConfig    `mapstructure:"network"`
	Output     OutputConfig     `mapstructure:"output"`
	Run        RunConfig        `mapstructure:"run"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type SourceConfig struct {
	URL     string `mapstructure:"url" validate:"required,url"`
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
}

type ExtractionConfig struct {
	TopN               int      `mapstructure:"top_n" validate:"min=1,max=100"`
	ContainerSelectors []string `mapstructure:"container_selectors" validate:"min=1,dive,required"`
	HeadingSelector    string   `mapstructure:"heading_selector" validate:"required"`
}

type NetworkConfig struct {
	Timeout         int    `mapstructure:"timeout" validate:"min=1,max=300"`
	UserAgent       string `mapstructure:"user_agent"`
	BrowserAgent    string `mapstructure:"browser_agent" validate:"omitempty,oneof=auto chrome firefox safari edge"`
	FollowRedirects bool   `mapstructure:"follow_redirects"`
	MaxRedirects    int    `mapstructure:"max_redirects" validate:"min=0,max=50"`
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes" validate:"min=1024"`
}

type OutputConfig struct {
	Directory      string `mapstructure:"directory"`
	FilenamePrefix string `mapstructure:"filename_prefix" validate:"required,excludesall=/\\"`
}

type RunConfig struct {
	AllowEmpty bool `mapstructure:"allow_empty"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

func Default() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     "https://github.com/trending",
			BaseURL: "https://github.com",
		},
		Extraction: ExtractionConfig{
			TopN: 5,
			ContainerSelectors: []string{
				`article.Box-row`,
				`.Box-row`,
				`article[class*="Box-row"]`,
				`.repo-list-item`,
				`[data-testid="repository-item"]`,
			},
			HeadingSelector: `h2[class*="h3"]`,
		},
		Network: NetworkConfig{
			Timeout:         10,
			UserAgent:       "",
			BrowserAgent:    "auto",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodyBytes:    10 << 20,
		},
		Output: OutputConfig{
			Directory:      ".",
			FilenamePrefix: "trending_repositories",
		},
		Run: RunConfig{
			AllowEmpty: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/trendr/config.toml, or "" when no home
// directory can be resolved.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, appName, "config.toml")
}

// Load reads configuration from configFile (or the default location when
// empty), applies TRENDR_* environment overrides and validates the result.
// A missing config file is not an error.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	v := newViper(cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else if path := DefaultPath(); path != "" {
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configFile == "" && os.IsNotExist(err)) {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// newViper builds an isolated viper instance seeded with the defaults so that
// environment variables resolve even for keys absent from the file.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source.url", cfg.Source.URL)
	v.SetDefault("source.base_url", cfg.Source.BaseURL)
	v.SetDefault("extraction.top_n", cfg.Extraction.TopN)
	v.SetDefault("extraction.container_selectors", cfg.Extraction.ContainerSelectors)
	v.SetDefault("extraction.heading_selector", cfg.Extraction.HeadingSelector)
	v.SetDefault("network.timeout", cfg.Network.Timeout)
	v.SetDefault("network.user_agent", cfg.Network.UserAgent)
	v.SetDefault("network.browser_agent", cfg.Network.BrowserAgent)
	v.SetDefault("network.follow_redirects", cfg.Network.FollowRedirects)
	v.SetDefault("network.max_redirects", cfg.Network.MaxRedirects)
	v.SetDefault("network.max_body_bytes", cfg.Network.MaxBodyBytes)
	v.SetDefault("output.directory", cfg.Output.Directory)
	v.SetDefault("output.filename_prefix", cfg.Output.FilenamePrefix)
	v.SetDefault("run.allow_empty", cfg.Run.AllowEmpty)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.json", cfg.Logging.JSON)

	return v
}

// Validate checks the struct tags and reports every offending field at once.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func (c *Config) CreateExampleConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	exampleContent := `# trendr configuration file

[source]
url = "https://github.com/trending"   # listing page to scrape
base_url = "https://github.com"       # prefix for site-relative links

[extraction]
top_n = 5                             # number of repositories to keep

# Container selectors, tried in order. The first one that matches wins.
container_selectors = [
  'article.Box-row',
  '.Box-row',
  'article[class*="Box-row"]',
  '.repo-list-item',
  '[data-testid="repository-item"]',
]

# Used when no container selector matches
heading_selector = 'h2[class*="h3"]'

[network]
timeout = 10                          # seconds, no retry
user_agent = ""                       # custom user agent (empty = browser agent)
browser_agent = "auto"                # auto, chrome, firefox, safari, edge
follow_redirects = true
max_redirects = 10
max_body_bytes = 10485760

[output]
directory = "."                       # where CSV files are written
filename_prefix = "trending_repositories"

[run]
allow_empty = false                   # exit 0 even when nothing was extracted

[logging]
level = "info"                        # debug, info, warn, error
json = false
`

	return os.WriteFile(configPath, []byte(exampleContent), 0644)
}
