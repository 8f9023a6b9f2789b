package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedCatalogRenders(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	out, err := c.Render("match.found", map[string]any{"Number": 2, "Opponent": "Ana", "GameID": "AAAA2222"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "player 2") || !strings.Contains(out, "Ana") || !strings.Contains(out, "AAAA2222") {
		t.Fatalf("rendered: %q", out)
	}

	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatalf("missing key rendered")
	}
}

func TestRenderOrFallsBack(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.RenderOr("no.such.key", nil, "fallback"); got != "fallback" {
		t.Fatalf("RenderOr = %q", got)
	}
	if got := c.RenderOr("match.queued", nil, "fallback"); got == "fallback" || got == "" {
		t.Fatalf("RenderOr ignored the catalog: %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "game:\n  full: \"No more room in {{.GameID}}.\"\n"
	if err := os.WriteFile(filepath.Join(dir, "10-custom.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("game.full", map[string]any{"GameID": "AAAA2222"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "No more room in AAAA2222." {
		t.Fatalf("override not applied: %q", out)
	}

	// untouched keys keep their defaults
	if _, err := c.Render("game.not_found", map[string]any{"GameID": "AAAA2222"}); err != nil {
		t.Fatalf("default lost after override: %v", err)
	}
}

func TestDuplicateOverrideKeysRejected(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("game:\n  full: \"dup\"\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate keys across override files accepted")
	}
}
