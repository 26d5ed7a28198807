package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/flowgridhq/flowgrid/pkg/layout"
)

func testInspectModel(t *testing.T) InspectModel {
	t.Helper()
	g, err := generateDiagram(8, 1, 42)
	if err != nil {
		t.Fatalf("generateDiagram() error: %v", err)
	}
	res, err := layout.Compute(g, layout.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("Compute() error: %v", err)
	}
	return NewInspectModel(res)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestInspectModelNavigation(t *testing.T) {
	m := testInspectModel(t)

	if m.Tab != tabNodes {
		t.Errorf("initial tab = %v, want nodes", m.Tab)
	}

	// Cursor moves down and clamps at zero going up.
	next, _ := m.Update(key("down"))
	m = next.(InspectModel)
	if m.Cursor != 1 {
		t.Errorf("Cursor after down = %d, want 1", m.Cursor)
	}
	next, _ = m.Update(key("up"))
	m = next.(InspectModel)
	next, _ = m.Update(key("up"))
	m = next.(InspectModel)
	if m.Cursor != 0 {
		t.Errorf("Cursor after up past start = %d, want 0", m.Cursor)
	}

	// Tab cycles through panels and resets the cursor.
	next, _ = m.Update(key("down"))
	m = next.(InspectModel)
	next, _ = m.Update(key("tab"))
	m = next.(InspectModel)
	if m.Tab != tabEdges {
		t.Errorf("Tab after tab = %v, want edges", m.Tab)
	}
	if m.Cursor != 0 {
		t.Errorf("Cursor after tab switch = %d, want 0", m.Cursor)
	}
	next, _ = m.Update(key("tab"))
	m = next.(InspectModel)
	next, _ = m.Update(key("tab"))
	m = next.(InspectModel)
	if m.Tab != tabNodes {
		t.Errorf("Tab after full cycle = %v, want nodes", m.Tab)
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := testInspectModel(t)
	for _, k := range []string{"q", "esc"} {
		_, cmd := m.Update(key(k))
		if cmd == nil {
			t.Errorf("key %q should quit", k)
		}
	}
}

func TestInspectModelCursorClampsAtEnd(t *testing.T) {
	m := testInspectModel(t)
	n := m.rowCount()

	var model tea.Model = m
	for i := 0; i < n+5; i++ {
		model, _ = model.(InspectModel).Update(key("down"))
	}
	m = model.(InspectModel)
	if m.Cursor != n-1 {
		t.Errorf("Cursor after overscroll = %d, want %d", m.Cursor, n-1)
	}
}

func TestInspectModelView(t *testing.T) {
	m := testInspectModel(t)

	view := m.View()
	if !strings.Contains(view, "Layout Inspector") {
		t.Error("node view missing title")
	}
	if !strings.Contains(view, "score") {
		t.Error("node view missing score line")
	}

	next, _ := m.Update(key("tab"))
	m = next.(InspectModel)
	if view := m.View(); !strings.Contains(view, "Connection") {
		t.Error("edge view missing connection column")
	}

	next, _ = m.Update(key("tab"))
	m = next.(InspectModel)
	if view := m.View(); !strings.Contains(view, "Diagnostics") {
		t.Error("diagnostics view missing tab label")
	}
}

func TestInspectModelResize(t *testing.T) {
	m := testInspectModel(t)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	m = next.(InspectModel)
	if m.Height != 22 {
		t.Errorf("Height after resize = %d, want 22", m.Height)
	}

	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 6})
	m = next.(InspectModel)
	if m.Height != 5 {
		t.Errorf("Height floor = %d, want 5", m.Height)
	}
}
