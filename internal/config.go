package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/postindex/internal/catalog"
	"github.com/starford/postindex/internal/category"
	"github.com/starford/postindex/internal/changes"
	"github.com/starford/postindex/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig       `yaml:"app"`
	Content    ContentConfig           `yaml:"content"`
	Output     OutputConfig            `yaml:"output"`
	Build      BuildConfig             `yaml:"build"`
	Catalog    CatalogConfig           `yaml:"catalog"`
	Categories []models.CategoryConfig `yaml:"categories"`
	Auth       AuthConfig              `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Content.Validate(); err != nil {
		return err
	}
	if err := c.Output.Validate(); err != nil {
		return err
	}
	if err := c.Build.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	if err := validateCategories(c.Categories); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// ContentConfig holds the path to the posts directory.
type ContentConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the content configuration.
func (c *ContentConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// OutputConfig holds the directory the artifacts are written to.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the output configuration.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// BuildConfig controls change detection and extraction.
//
// Mode selects the git comparison:
//   - "auto" (default): "commit" when the CI variable is set, else "worktree".
//   - "commit": last commit against its parent.
//   - "worktree": staged and unstaged changes.
type BuildConfig struct {
	Force    bool          `yaml:"force"`
	Mode     string        `yaml:"mode"`
	RepoDir  string        `yaml:"repo_dir"`
	Workers  int           `yaml:"workers"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = string(changes.ModeAuto)
	}
	if _, err := changes.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.RepoDir, validation.Required),
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// CatalogConfig holds the SQLite database backing the read API.
// The default keeps it in memory; it is rebuilt from the artifacts on start.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

func validateCategories(cats []models.CategoryConfig) error {
	if len(cats) == 0 {
		return fmt.Errorf("categories: at least one category is required")
	}
	seen := make(map[string]struct{}, len(cats))
	for i := range cats {
		c := &cats[i]
		if err := validation.ValidateStruct(c,
			validation.Field(&c.ID, validation.Required),
			validation.Field(&c.Name, validation.Required),
		); err != nil {
			return fmt.Errorf("categories[%d]: %w", i, err)
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("categories: duplicate id %q", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// AuthConfig holds authentication configuration for the read API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Content: ContentConfig{
			Dir: "./_posts",
		},
		Output: OutputConfig{
			Dir: "./public/data",
		},
		Build: BuildConfig{
			Mode:     string(changes.ModeAuto),
			RepoDir:  ".",
			Debounce: 300 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Path: catalog.MemoryDSN,
		},
		Categories: append([]models.CategoryConfig(nil), category.Defaults...),
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
