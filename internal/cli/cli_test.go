package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/taintview/pkg/errors"
	"github.com/matzehuels/taintview/pkg/graph"
	"github.com/matzehuels/taintview/pkg/pipeline"
	"github.com/matzehuels/taintview/pkg/store"
)

// isolate points every XDG directory at a fresh temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, env := range []string{"XDG_CONFIG_HOME", "XDG_CACHE_HOME", "XDG_DATA_HOME"} {
		t.Setenv(env, filepath.Join(base, strings.ToLower(env)))
	}
	return base
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	have := make(map[string]bool)
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range []string{"build", "layout", "render", "resolve", "nodes", "watch", "serve", "store", "config", "cache", "completion"} {
		if !have[name] {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestLayoutFlags_Apply(t *testing.T) {
	base := pipeline.Options{Strategy: "standard", Scale: 800, Width: 640, SingleBranch: true}

	t.Run("unset flags keep configured values", func(t *testing.T) {
		var lf layoutFlags
		cmd := &cobra.Command{}
		lf.register(cmd)
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		opts := base
		lf.apply(cmd, &opts)
		if opts.Strategy != "standard" || opts.Scale != 800 || opts.Width != 640 || !opts.SingleBranch {
			t.Errorf("opts changed without flags: %+v", opts)
		}
	})

	t.Run("flags override", func(t *testing.T) {
		var lf layoutFlags
		cmd := &cobra.Command{}
		lf.register(cmd)
		err := cmd.ParseFlags([]string{"-s", "circular", "--scale", "100", "--policy", "branch", "--single-branch=false", "--break-cycles"})
		if err != nil {
			t.Fatal(err)
		}
		opts := base
		lf.apply(cmd, &opts)
		if opts.Strategy != "circular" || opts.Scale != 100 || opts.Policy != "branch" {
			t.Errorf("flags not applied: %+v", opts)
		}
		if opts.SingleBranch {
			t.Error("--single-branch=false should clear the configured value")
		}
		if !opts.BreakCycles {
			t.Error("--break-cycles not applied")
		}
		if opts.Width != 640 {
			t.Errorf("Width = %v, want configured 640", opts.Width)
		}
	})
}

func TestBuildSaveExport(t *testing.T) {
	base := isolate(t)
	trace := filepath.Join(base, "run.log")
	if err := os.WriteFile(trace, []byte(tableTrace), 0o644); err != nil {
		t.Fatal(err)
	}

	graphFile := filepath.Join(base, "run.json")
	if _, err := run(t, "build", trace, "-o", graphFile, "--save", "run1"); err != nil {
		t.Fatalf("build: %v", err)
	}
	g, err := graph.ReadGraphFile(graphFile)
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	if g.NodeCount() != 3 || g.EdgeCount() != 1 {
		t.Errorf("graph = %d nodes, %d edges, want 3 and 1", g.NodeCount(), g.EdgeCount())
	}

	exported := filepath.Join(base, "exported.yaml")
	if _, err := run(t, "store", "export", "run1", "-o", exported); err != nil {
		t.Fatalf("store export: %v", err)
	}
	eg, err := graph.ReadGraphFile(exported)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if eg.NodeCount() != 3 || eg.EdgeCount() != 1 {
		t.Errorf("export = %d nodes, %d edges, want 3 and 1", eg.NodeCount(), eg.EdgeCount())
	}

	if _, err := run(t, "store", "delete", "run1"); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	if _, err := run(t, "store", "export", "run1", "-o", exported); err == nil {
		t.Error("export after delete should fail")
	}
}

func TestLayoutCommand(t *testing.T) {
	base := isolate(t)
	trace := filepath.Join(base, "run.log")
	if err := os.WriteFile(trace, []byte(tableTrace), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(base, "run.layout.json")
	if _, err := run(t, "layout", trace, "-s", "circular", "-o", out); err != nil {
		t.Fatalf("layout: %v", err)
	}
	lay, err := graph.ReadLayoutFile(out)
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if got := len(lay.Points()); got != 3 {
		t.Errorf("positions = %d, want 3", got)
	}
}

func TestConfigCommands(t *testing.T) {
	base := isolate(t)

	out, err := run(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(base, "xdg_config_home", "taintview", "config.toml")
	if strings.TrimSpace(out) != want {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(out), want)
	}

	if _, err := run(t, "config", "init"); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	out, err = run(t, "config", "show")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "[canvas]") {
		t.Errorf("config show output missing [canvas] table:\n%s", out)
	}
}

func TestResolveSampleTrace(t *testing.T) {
	isolate(t)
	trace := filepath.Join("..", "..", "examples", "traces", "sample.trace")
	idx := filepath.Join("..", "..", "examples", "traces", "sample.index")

	if _, err := run(t, "resolve", trace, "4", "--index", idx, "--no-cache"); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err := run(t, "resolve", trace, "99", "--index", idx, "--no-cache")
	if got := apperrors.GetCode(err); got != apperrors.ErrCodeNotFound {
		t.Errorf("unknown node: code = %q, want %q", got, apperrors.ErrCodeNotFound)
	}

	_, err = run(t, "resolve", trace, "4", "--no-cache")
	if got := apperrors.GetCode(err); got != apperrors.ErrCodeInvalidInput {
		t.Errorf("missing index: code = %q, want %q", got, apperrors.ErrCodeInvalidInput)
	}
}

func TestWriteSnapshotTable(t *testing.T) {
	var buf bytes.Buffer
	snaps := []store.Snapshot{
		{ID: "0b5e3c1e-0000-4000-8000-000000000001", Name: "run1", Nodes: 3, Edges: 1, CreatedAt: time.Now()},
		{ID: "0b5e3c1e-0000-4000-8000-000000000002", Name: "run2", Policy: "TAINT_BRANCH", Nodes: 7, Edges: 9, CreatedAt: time.Now()},
	}
	if err := writeSnapshotTable(&buf, snaps); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Name", "Policy", "run1", "run2", "default", "TAINT_BRANCH"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
