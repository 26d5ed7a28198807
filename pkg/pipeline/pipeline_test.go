package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/flowgridhq/flowgrid/pkg/cache"
	"github.com/flowgridhq/flowgrid/pkg/flow"
	"github.com/flowgridhq/flowgrid/pkg/layout"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func testDocument() *flow.Document {
	return &flow.Document{
		Nodes: []flow.Node{
			{ID: "start", Kind: flow.KindStart},
			{ID: "work", Kind: flow.KindProcess, Label: "Do work"},
			{ID: "end", Kind: flow.KindEnd},
		},
		Edges: []flow.Edge{
			{ID: "e1", Source: "start", Target: "work"},
			{ID: "e2", Source: "work", Target: "end"},
		},
	}
}

func writeTestDiagram(t *testing.T) string {
	t.Helper()
	g, _, err := flow.FromDocument(*testDocument())
	if err != nil {
		t.Fatalf("FromDocument error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "diagram.json")
	if err := flow.WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile error: %v", err)
	}
	return path
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"no source", Options{}, true},
		{"both sources", Options{Input: "a.json", Document: testDocument()}, true},
		{"path traversal", Options{Input: "../../etc/passwd"}, true},
		{"bad format", Options{Document: testDocument(), Formats: []string{"bmp"}}, true},
		{"inline document", Options{Document: testDocument()}, false},
		{"file input", Options{Input: "diagram.json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Document: testDocument()}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}

	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats default = %v, want [svg]", opts.Formats)
	}
	if opts.PNGScale != DefaultPNGScale {
		t.Errorf("PNGScale default = %v, want %v", opts.PNGScale, DefaultPNGScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults error: %v", err)
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowgrid.toml")
	content := `
[layout]
rank_spacing = 200.0
grid_size = 5.0

[server]
addr = ":9999"

[redis]
addr = "localhost:6379"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig error: %v", err)
	}
	if cfg.Layout.RankSpacing != 200 {
		t.Errorf("RankSpacing = %v, want 200", cfg.Layout.RankSpacing)
	}
	if cfg.Layout.GridSize != 5 {
		t.Errorf("GridSize = %v, want 5", cfg.Layout.GridSize)
	}
	// Unset sections keep defaults.
	if cfg.Layout.MinNodeSpacing != layout.DefaultConfig().MinNodeSpacing {
		t.Errorf("MinNodeSpacing = %v, want default", cfg.Layout.MinNodeSpacing)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
}

func TestLoadFileConfigMissing(t *testing.T) {
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing config file should fail")
	}

	// Empty path means defaults, not an error.
	cfg, err := LoadFileConfig("")
	if err != nil {
		t.Fatalf("LoadFileConfig(\"\") error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestRunnerExecute(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(cache.NewNullCache(), nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(ctx, Options{
		Input:   writeTestDiagram(t),
		Formats: []string{FormatSVG, FormatJSON, FormatDOT},
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if result.Stats.NodeCount != 3 || result.Stats.EdgeCount != 2 {
		t.Errorf("Stats = %d nodes, %d edges, want 3 nodes, 2 edges", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash should be set")
	}
	if result.Layout == nil || result.Layout.Score.Total <= 0 {
		t.Error("layout score should be positive")
	}
	for _, format := range []string{FormatSVG, FormatJSON, FormatDOT} {
		if len(result.Artifacts[format]) == 0 {
			t.Errorf("artifact %s missing", format)
		}
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "<svg") {
		t.Error("svg artifact should contain svg markup")
	}

	// Handles are assigned on the laid-out graph.
	for _, e := range result.Graph.Edges() {
		if !e.SourceHandle.Valid() || !e.TargetHandle.Valid() {
			t.Errorf("edge %s missing handles: %q -> %q", e.ID, e.SourceHandle, e.TargetHandle)
		}
	}
}

func TestRunnerExecuteInlineDocument(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	result, err := runner.Execute(ctx, Options{Document: testDocument()})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(result.Artifacts[FormatSVG]) == 0 {
		t.Error("default svg artifact missing")
	}
}

func TestRunnerLayoutCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runner := NewRunner(fc, nil, testLogger())
	defer runner.Close()

	opts := Options{Document: testDocument(), Formats: []string{FormatSVG}}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Error("first run should not hit the cache")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit the layout cache")
	}
	if !second.CacheInfo.RenderHit {
		t.Error("second run should hit the artifact cache")
	}

	// Cached layout reproduces the same arrangement.
	for _, n := range first.Graph.Nodes() {
		m, ok := second.Graph.Node(n.ID)
		if !ok {
			t.Fatalf("node %s missing from cached result", n.ID)
		}
		if m.Position != n.Position {
			t.Errorf("node %s position %v != cached %v", n.ID, n.Position, m.Position)
		}
	}
}

func TestRunnerRefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	runner := NewRunner(fc, nil, testLogger())
	defer runner.Close()

	opts := Options{Document: testDocument()}
	if _, err := runner.Execute(ctx, opts); err != nil {
		t.Fatalf("first Execute error: %v", err)
	}

	opts.Refresh = true
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute error: %v", err)
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.RenderHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestRunnerLoadDiagnostics(t *testing.T) {
	ctx := context.Background()
	runner := NewRunner(nil, nil, testLogger())
	defer runner.Close()

	doc := testDocument()
	doc.Edges = append(doc.Edges, flow.Edge{ID: "bad", Source: "work", Target: "ghost"})

	result, err := runner.Execute(ctx, Options{Document: doc})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.Diagnostics.Has(flow.DiagDanglingEdge) {
		t.Error("dangling edge diagnostic should propagate to the result")
	}
}
