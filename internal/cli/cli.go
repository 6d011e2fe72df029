// Package cli implements the suratkita command-line interface.
//
// The commands drive the letter pipeline end to end: export a stored or
// local letter to PDF, mail-merge it over a recipient spreadsheet, preview
// the merge interactively, move letters through review, and serve the
// document API. The CLI is built using cobra; progress and results are
// logged with charmbracelet/log and styled with lipgloss.
//
// # Commands
//
//   - export: render one letter to PDF
//   - batch: render one letter per spreadsheet row into a ZIP archive
//   - preview: browse the merge recipient by recipient
//   - template, import: spreadsheet template and validation
//   - submit, approve, reject: review workflow
//   - serve: document API over the configured store
//   - cache: manage the artifact cache
//
// # Acting user
//
// Permission checks use the --role and --actor flags, the same way the API
// uses the X-Actor-Role and X-Actor-ID headers.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/cache"
	"github.com/suratkita/suratkita/pkg/config"
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "suratkita"

	// configFile is the file looked up in the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Set by persistent flags on the root command.
	configPath string
	role       string
	actorID    string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Shared Setup
// =============================================================================

// config loads the configuration once per process.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := c.configPath
	if path == "" {
		if dir, err := configDir(); err == nil {
			path = filepath.Join(dir, configFile)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("configuration loaded", "path", path, "store", cfg.Store.Backend, "cache", cfg.Cache.Backend)
	c.cfg = cfg
	return cfg, nil
}

// actor returns the acting user from the --role and --actor flags.
func (c *CLI) actor() (lifecycle.Actor, error) {
	role, err := lifecycle.ParseRole(c.role)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	id := c.actorID
	if id == "" {
		id = os.Getenv("USER")
	}
	return lifecycle.Actor{ID: id, Role: role}, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	actor, err := c.actor()
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg, actor)
	if err != nil {
		return nil, err
	}
	artifacts, keyer, err := openCache(ctx, cfg, noCache)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return pipeline.NewRunner(cfg, st, artifacts, keyer, c.Logger), nil
}

// loadDocument reads a letter from a local JSON file.
func (c *CLI) loadDocument(path string) (*document.Document, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return document.Unmarshal(data, cfg.Render.MaxCaption)
}

// newKeyer applies the configured key prefix.
func newKeyer(cfg *config.Config) cache.Keyer {
	if cfg.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, cfg.Cache.Prefix)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/suratkita/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard (~/.config/suratkita/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
