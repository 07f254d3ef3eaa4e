package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrors "github.com/matzehuels/callchain/pkg/errors"
)

// testEnv isolates config and cache directories and writes the inputs.
func testEnv(t *testing.T) (objects, profile string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return writeFile(t, dir, "objects.json", testObjects), writeFile(t, dir, "main.prof", testProfile)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOrderCommand(t *testing.T) {
	objects, profile := testEnv(t)

	tests := []struct {
		format string
		want   string
	}{
		{"symbols", "main\nrun\nhot\nparse\nlog\n"},
		{"sections", "1 __text.main\n2 __text.run\n3 __text.hot\n4 __text.parse\n5 __text.log\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := execute(t, "order", "--no-cache", "-f", tt.format, objects, profile)
			if err != nil {
				t.Fatalf("order: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestOrderCommandOutputFile(t *testing.T) {
	objects, profile := testEnv(t)
	path := filepath.Join(t.TempDir(), "order.json")

	if _, err := execute(t, "order", "-f", "json", "-o", path, objects, profile); err != nil {
		t.Fatalf("order: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"run_id"`) || !strings.Contains(string(data), `"name": "__text.hot"`) {
		t.Errorf("json output = %s", data)
	}
}

func TestOrderCommandErrors(t *testing.T) {
	objects, profile := testEnv(t)

	tests := []struct {
		name string
		args []string
		code cerrors.Code
	}{
		{"bad format", []string{"order", "-f", "yaml", objects, profile}, cerrors.ErrCodeInvalidFormat},
		{"bad page size", []string{"order", "--no-cache", "--page-size", "3000", objects, profile}, cerrors.ErrCodeInvalidPageSize},
		{"missing profile", []string{"order", "--no-cache", objects, profile + ".missing"}, cerrors.ErrCodeFileNotFound},
		{"missing config", []string{"--config", profile + ".toml", "order", objects, profile}, cerrors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !cerrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}

	if _, err := execute(t, "order", objects); err == nil {
		t.Error("order with one argument succeeded")
	}
}

func TestOrderCommandConfigPageSize(t *testing.T) {
	objects, profile := testEnv(t)
	writeFile(t, os.Getenv("XDG_CONFIG_HOME"), filepath.Join(appName, "config.toml"), "page_size = 512\n")

	// With 512-byte pages main no longer fits next to run and hot.
	out, err := execute(t, "order", "--no-cache", "-f", "sections", objects, profile)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !strings.HasPrefix(out, "1 __text.run\n2 __text.hot\n") {
		t.Errorf("output = %q", out)
	}

	// An explicit flag wins over the config file.
	out, err = execute(t, "order", "--no-cache", "--page-size", "4096", "-f", "sections", objects, profile)
	if err != nil {
		t.Fatalf("order: %v", err)
	}
	if !strings.HasPrefix(out, "1 __text.main\n") {
		t.Errorf("output with flag = %q", out)
	}
}

func TestPlaceCommand(t *testing.T) {
	objects, profile := testEnv(t)

	out, err := execute(t, "place", "--no-cache", "--image-base", "4096", objects, profile)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 || lines[0] != "# __TEXT" {
		t.Fatalf("placement = %q", out)
	}
	if !strings.HasPrefix(lines[1], "0x0000000000001000 ") || !strings.HasSuffix(lines[1], " __text.main") {
		t.Errorf("first section line = %q", lines[1])
	}
	if !strings.HasSuffix(lines[6], " __text.cold") {
		t.Errorf("last line = %q", lines[6])
	}
}

func TestGraphCommand(t *testing.T) {
	objects, profile := testEnv(t)

	out, err := execute(t, "graph", "--no-cache", "--detailed", objects, profile)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if !strings.HasPrefix(out, "digraph callchain") {
		t.Errorf("output = %.40q", out)
	}

	if _, err := execute(t, "graph", "-f", "pdf", objects, profile); !cerrors.Is(err, cerrors.ErrCodeInvalidFormat) {
		t.Errorf("pdf error = %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	objects, profile := testEnv(t)

	out, err := execute(t, "cache", "path")
	if err != nil {
		t.Fatal(err)
	}
	dir := strings.TrimSpace(out)
	if want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName); dir != want {
		t.Errorf("cache path = %q, want %q", dir, want)
	}

	if _, err := execute(t, "order", objects, profile); err != nil {
		t.Fatalf("order: %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "*", "*.json"))
	if len(entries) == 0 {
		t.Fatal("order run left no cache entries")
	}

	if _, err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	entries, _ = filepath.Glob(filepath.Join(dir, "*", "*.json"))
	if len(entries) != 0 {
		t.Errorf("%d entries left after clear", len(entries))
	}
}

func TestCompletionIgnoresConfig(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "--config", "/nonexistent/config.toml", "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out, appName) {
		t.Error("completion script does not mention the command name")
	}
}
