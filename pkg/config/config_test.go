package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/paginate"
	"github.com/suratkita/suratkita/pkg/render"
)

const sample = `
[render]
dpi = 100
overflow = "clip"
timeout = "45s"
fallback_color = "navy"

[pages.invitation]
width_mm = 210
height_mm = 297

[capacity]
budget = 10

[batch]
workers = 4

[import]
timeout = "3s"

[cache]
backend = "redis"
ttl = "1h"

[store]
backend = "mongo"
mongo_database = "rw05"
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Render.DPI != 100 || cfg.Overflow() != render.OverflowClip || cfg.Render.Timeout != 45*time.Second {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Batch.Workers != 4 || cfg.Import.Timeout != 3*time.Second {
		t.Errorf("batch/import = %+v / %+v", cfg.Batch, cfg.Import)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.TTL != time.Hour || cfg.Cache.RedisAddr != DefaultRedisAddr {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Store.Backend != StoreMongo || cfg.Store.MongoDatabase != "rw05" || cfg.Store.MongoURI != DefaultMongoURI {
		t.Errorf("store = %+v", cfg.Store)
	}

	inv := cfg.Geometry(document.KindInvitation)
	if inv.WidthMM != 210 || inv.HeightMM != 297 || inv.MarginMM != 20 || inv.DPI != 100 {
		t.Errorf("invitation geometry = %+v", inv)
	}
	prop := cfg.Policy(document.KindProposal)
	if prop.CapacityOf(document.SectionBudget) != 10 || prop.CapacityOf(document.SectionPhotos) != paginate.DefaultPhotos {
		t.Errorf("proposal capacity = %v", prop.Capacity)
	}
	if err := prop.Validate(); err != nil {
		t.Errorf("derived policy invalid: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Overflow() != render.OverflowError {
		t.Errorf("default overflow = %q", cfg.Overflow())
	}
	if cfg.Render.Timeout != DefaultRenderTimeout || cfg.Render.MaxCaption != document.DefaultMaxCaptionRunes {
		t.Errorf("render defaults = %+v", cfg.Render)
	}
	if cfg.Cache.Backend != CacheFile || cfg.Store.Backend != StoreMemory || cfg.Batch.Workers != 1 {
		t.Errorf("backends = %q / %q / %d", cfg.Cache.Backend, cfg.Store.Backend, cfg.Batch.Workers)
	}
	if g := cfg.Geometry(document.KindInvitation); g != paginate.F4 {
		t.Errorf("invitation geometry = %+v, want F4", g)
	}
	if g := cfg.Geometry(document.KindProposal); g != paginate.A4 {
		t.Errorf("proposal geometry = %+v, want A4", g)
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	first := cfg.String()
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if cfg.String() != first {
		t.Error("second call changed the configuration")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"unknown key", "[render]\ndpii = 3\n", "render.dpii"},
		{"bad overflow", "[render]\noverflow = \"shrink\"\n", "overflow"},
		{"bad color", "[render]\nfallback_color = \"chartreuse\"\n", "fallback_color"},
		{"bad kind", "[pages.MEMO]\nwidth_mm = 100\n", "pages.MEMO"},
		{"no content area", "[pages.PROPOSAL]\nmargin_mm = 200\n", "margin"},
		{"negative capacity", "[capacity]\nphotos = -1\n", "capacity"},
		{"bad cache", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"bad store", "[store]\nbackend = \"sqlite\"\n", "store.backend"},
		{"bad syntax", "[render\n", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if !errors.IsCategory(err, errors.CategoryValidation) {
				t.Errorf("category = %q, want validation", errors.CategoryOf(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil || cfg.Store.Backend != StoreMemory {
		t.Fatalf("Load(missing) = %+v, %v", cfg, err)
	}

	path := filepath.Join(t.TempDir(), "suratkita.toml")
	if err := os.WriteFile(path, []byte("[batch]\nworkers = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
}
