// Package config loads the suratkita TOML configuration.
//
// Every field is optional; [Config.ValidateAndSetDefaults] fills the gaps
// with the same defaults the libraries use, so an empty file and no file at
// all behave identically.
//
//	cfg, err := config.Load("suratkita.toml")
//	if err != nil {
//	    return err
//	}
//	policy := cfg.Policy(document.KindProposal)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/suratkita/suratkita/pkg/document"
	skerrors "github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	DefaultRenderTimeout = 30 * time.Second
	DefaultImportTimeout = 10 * time.Second
	DefaultCacheTTL      = 24 * time.Hour
	DefaultRedisAddr     = "localhost:6379"
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "suratkita"
	DefaultHTTPBaseURL   = "http://localhost:8080"
	DefaultServerAddr    = ":8080"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreMongo  = "mongo"
	StoreHTTP   = "http"
)

// =============================================================================
// Config
// =============================================================================

// Config is the whole configuration file.
type Config struct {
	Render   RenderConfig          `toml:"render"`
	Pages    map[string]PageConfig `toml:"pages"`
	Capacity CapacityConfig        `toml:"capacity"`
	Batch    BatchConfig           `toml:"batch"`
	Import   ImportConfig          `toml:"import"`
	Cache    CacheConfig           `toml:"cache"`
	Store    StoreConfig           `toml:"store"`
	Server   ServerConfig          `toml:"server"`

	validated bool
}

// RenderConfig controls rasterization.
type RenderConfig struct {
	DPI           int           `toml:"dpi"`
	Overflow      string        `toml:"overflow"`
	Timeout       time.Duration `toml:"timeout"`
	FallbackColor string        `toml:"fallback_color"`
	MaxCaption    int           `toml:"max_caption"`
}

// PageConfig overrides the page geometry of one document kind.
type PageConfig struct {
	WidthMM  float64 `toml:"width_mm"`
	HeightMM float64 `toml:"height_mm"`
	MarginMM float64 `toml:"margin_mm"`
}

// CapacityConfig is the number of collection items per page.
type CapacityConfig struct {
	Budget       int `toml:"budget"`
	Photos       int `toml:"photos"`
	Distribution int `toml:"distribution"`
}

// BatchConfig controls mail merge runs.
type BatchConfig struct {
	Workers int `toml:"workers"`
}

// ImportConfig controls spreadsheet import.
type ImportConfig struct {
	Timeout time.Duration `toml:"timeout"`
}

// CacheConfig selects the artifact cache.
type CacheConfig struct {
	Backend       string        `toml:"backend"`
	Dir           string        `toml:"dir"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
	Prefix        string        `toml:"prefix"`
	TTL           time.Duration `toml:"ttl"`
}

// StoreConfig selects the document store.
type StoreConfig struct {
	Backend       string `toml:"backend"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	HTTPBaseURL   string `toml:"http_base_url"`
}

// ServerConfig configures `suratkita serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns a validated default configuration.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.ValidateAndSetDefaults()
	return cfg
}

// Load reads path. An empty path or a missing file yields [Default].
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, skerrors.Wrap(skerrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text.
func Parse(text string) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return nil, skerrors.Wrap(skerrors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, skerrors.Validation("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateAndSetDefaults checks every field and applies defaults.
// It is idempotent.
func (c *Config) ValidateAndSetDefaults() error {
	if c.validated {
		return nil
	}

	if c.Render.DPI == 0 {
		c.Render.DPI = paginate.DefaultDPI
	}
	if c.Render.DPI < 0 {
		return skerrors.Validation("render.dpi must be positive, got %d", c.Render.DPI)
	}
	overflow, err := render.ParseOverflow(c.Render.Overflow)
	if err != nil {
		return err
	}
	c.Render.Overflow = string(overflow)
	if c.Render.Timeout == 0 {
		c.Render.Timeout = DefaultRenderTimeout
	}
	if c.Render.FallbackColor == "" {
		c.Render.FallbackColor = render.DefaultFallbackColor
	}
	if _, err := document.ParseColor(c.Render.FallbackColor); err != nil {
		return skerrors.Validation("render.fallback_color: %s", skerrors.UserMessage(err))
	}
	if c.Render.MaxCaption == 0 {
		c.Render.MaxCaption = document.DefaultMaxCaptionRunes
	}
	if c.Render.MaxCaption < 0 {
		return skerrors.Validation("render.max_caption must be positive, got %d", c.Render.MaxCaption)
	}

	normalized := make(map[string]PageConfig, len(c.Pages))
	for name, p := range c.Pages {
		kind, err := document.ParseKind(name)
		if err != nil {
			return skerrors.Validation("pages.%s: unknown document kind", name)
		}
		if err := c.geometry(kind, p).Validate(); err != nil {
			return skerrors.Validation("pages.%s: %s", name, skerrors.UserMessage(err))
		}
		normalized[string(kind)] = p
	}
	c.Pages = normalized

	if c.Capacity.Budget == 0 {
		c.Capacity.Budget = paginate.DefaultBudgetRows
	}
	if c.Capacity.Photos == 0 {
		c.Capacity.Photos = paginate.DefaultPhotos
	}
	if c.Capacity.Distribution == 0 {
		c.Capacity.Distribution = paginate.DefaultDistributionRows
	}
	if c.Capacity.Budget < 0 || c.Capacity.Photos < 0 || c.Capacity.Distribution < 0 {
		return skerrors.Validation("capacity values must be positive")
	}

	if c.Batch.Workers <= 0 {
		c.Batch.Workers = 1
	}
	if c.Import.Timeout == 0 {
		c.Import.Timeout = DefaultImportTimeout
	}

	if err := c.Cache.setDefaults(); err != nil {
		return err
	}
	if err := c.Store.setDefaults(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	c.validated = true
	return nil
}

func (c *CacheConfig) setDefaults() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	if c.Backend == "" {
		c.Backend = CacheFile
	}
	switch c.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return skerrors.Validation("cache.backend must be file, redis or none, got %q", c.Backend)
	}
	if c.RedisAddr == "" {
		c.RedisAddr = DefaultRedisAddr
	}
	if c.TTL == 0 {
		c.TTL = DefaultCacheTTL
	}
	return nil
}

func (s *StoreConfig) setDefaults() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = StoreMemory
	}
	switch s.Backend {
	case StoreMemory, StoreMongo, StoreHTTP:
	default:
		return skerrors.Validation("store.backend must be memory, mongo or http, got %q", s.Backend)
	}
	if s.MongoURI == "" {
		s.MongoURI = DefaultMongoURI
	}
	if s.MongoDatabase == "" {
		s.MongoDatabase = DefaultMongoDatabase
	}
	if s.HTTPBaseURL == "" {
		s.HTTPBaseURL = DefaultHTTPBaseURL
	}
	if s.Backend == StoreHTTP {
		if err := skerrors.ValidateURL(s.HTTPBaseURL); err != nil {
			return skerrors.Validation("store.http_base_url: %s", skerrors.UserMessage(err))
		}
	}
	return nil
}

// =============================================================================
// Derived Policies
// =============================================================================

// Geometry returns the page geometry of kind: the kind default overridden
// by any [pages.KIND] entry, at the configured DPI.
func (c *Config) Geometry(kind document.Kind) paginate.Geometry {
	return c.geometry(kind, c.Pages[string(kind)])
}

func (c *Config) geometry(kind document.Kind, p PageConfig) paginate.Geometry {
	g := paginate.DefaultGeometry(kind)
	if p.WidthMM != 0 {
		g.WidthMM = p.WidthMM
	}
	if p.HeightMM != 0 {
		g.HeightMM = p.HeightMM
	}
	if p.MarginMM != 0 {
		g.MarginMM = p.MarginMM
	}
	if c.Render.DPI > 0 {
		g.DPI = c.Render.DPI
	}
	return g
}

// Policy returns the pagination policy of kind.
func (c *Config) Policy(kind document.Kind) paginate.Policy {
	return paginate.Policy{
		Geometry: c.Geometry(kind),
		Capacity: map[document.SectionKind]int{
			document.SectionBudget:       c.Capacity.Budget,
			document.SectionPhotos:       c.Capacity.Photos,
			document.SectionDistribution: c.Capacity.Distribution,
		},
	}
}

// Overflow returns the parsed overflow policy.
func (c *Config) Overflow() render.OverflowPolicy {
	p, err := render.ParseOverflow(c.Render.Overflow)
	if err != nil {
		return render.DefaultOverflow
	}
	return p
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return b.String()
}
