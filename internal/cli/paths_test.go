package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestXDGDirs(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
		def  string
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir, filepath.Join(home, ".cache", appName)},
		{"config", "XDG_CONFIG_HOME", configDir, filepath.Join(home, ".config", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, "")
			if got, err := tt.fn(); err != nil || got != tt.def {
				t.Errorf("default = %q, %v; want %q", got, err, tt.def)
			}

			t.Setenv(tt.env, "/tmp/custom")
			if got, _ := tt.fn(); got != filepath.Join("/tmp/custom", appName) {
				t.Errorf("with %s = %q", tt.env, got)
			}
		})
	}
}
