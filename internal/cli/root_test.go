package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/lifecycle"
)

func testCLI() *CLI {
	return New(&bytes.Buffer{}, log.InfoLevel)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := testCLI().RootCommand()
	want := []string{"export", "batch", "preview", "template", "import", "create", "list", "submit", "approve", "reject", "serve", "cache", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	root := testCLI().RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "version: ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestActor(t *testing.T) {
	tests := []struct {
		role    string
		id      string
		want    lifecycle.Role
		wantErr bool
	}{
		{"author", "u1", lifecycle.RoleAuthor, false},
		{"REVIEWER", "r1", lifecycle.RoleReviewer, false},
		{"owner_admin", "a1", lifecycle.RoleOwnerAdmin, false},
		{"treasurer", "t1", "", true},
	}
	for _, tt := range tests {
		c := testCLI()
		c.role, c.actorID = tt.role, tt.id
		got, err := c.actor()
		if (err != nil) != tt.wantErr {
			t.Errorf("actor(%q) error = %v, wantErr %v", tt.role, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && (got.Role != tt.want || got.ID != tt.id) {
			t.Errorf("actor(%q) = %+v", tt.role, got)
		}
	}
}

func TestConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[batch]\nworkers = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := testCLI()
	c.configPath = path
	cfg, err := c.config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Batch.Workers != 3 {
		t.Errorf("workers = %d", cfg.Batch.Workers)
	}
	again, _ := c.config()
	if again != cfg {
		t.Error("config loaded twice")
	}
}

func TestConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\ndpix = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := testCLI()
	c.configPath = path
	if _, err := c.config(); err == nil {
		t.Error("unknown key accepted")
	}
}
