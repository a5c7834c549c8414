package xstitch

import (
	"testing"

	"github.com/needlethreading/xstitch/imageutil"
)

func TestLoadDMCCatalogEmbedded(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog(\"\") error = %v", err)
	}
	if len(entries) < 50 {
		t.Fatalf("catalog length = %d, want >= 50", len(entries))
	}
	seen := make(map[imageutil.RGB]bool)
	for _, e := range entries {
		if e.Floss <= 0 {
			t.Fatalf("entry with non-positive floss code: %+v", e)
		}
		if seen[e.RGB] {
			t.Fatalf("duplicate RGB %v survived null-drop/last-wins dedup", e.RGB)
		}
		seen[e.RGB] = true
	}
}

func TestLoadDMCCatalogDropsNullFlossAndDedupsLastWins(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	for _, e := range entries {
		if e.Name == "Ecru" {
			t.Fatal("Ecru has a null floss id in the catalog and should have been dropped")
		}
	}
	for _, e := range entries {
		if e.RGB == (imageutil.RGB{R: 255, G: 255, B: 255}) {
			if e.Name != "Snow White" || e.Floss != 5200 {
				t.Fatalf("expected the later (255,255,255) entry (Snow White/5200) to win, got %+v", e)
			}
			return
		}
	}
	t.Fatal("expected a (255,255,255) entry to survive dedup")
}

func TestNewFlossSnapperRejectsEmptyCatalog(t *testing.T) {
	if _, err := NewFlossSnapper(nil); err == nil {
		t.Fatal("expected error for empty catalog")
	}
}

func TestSnapFindsExactCatalogColor(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}

	target := entries[len(entries)/2]
	got := snapper.Snap(target.Lab)
	if got.Lab.Distance(target.Lab) > 1e-6 {
		t.Fatalf("Snap(%v) = %v, want exact match to %v", target.Lab, got, target)
	}
}

func TestSnapIsDeterministicAndCached(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}

	c := LabFromRGB(123, 45, 200)
	a := snapper.Snap(c)
	b := snapper.Snap(c)
	if a != b {
		t.Fatalf("Snap not deterministic: %v != %v", a, b)
	}
	if len(snapper.cache) == 0 {
		t.Fatal("expected cache to be populated after Snap")
	}
}

func TestSnapTiltedAppliesAsymmetricScale(t *testing.T) {
	entries, err := LoadDMCCatalog("")
	if err != nil {
		t.Fatalf("LoadDMCCatalog error = %v", err)
	}
	snapper, err := NewFlossSnapper(entries)
	if err != nil {
		t.Fatalf("NewFlossSnapper error = %v", err)
	}

	c := LabFromRGB(200, 100, 50)
	tilted := snapper.SnapTilted(c)
	want := snapper.Snap(c.ScaleVec(1.0, 1.1, 1.1))
	if tilted != want {
		t.Fatalf("SnapTilted(%v) = %v, want Snap of the (1.0, 1.1, 1.1)-scaled color = %v", c, tilted, want)
	}
}
