package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQuadrantAt(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want Quadrant
	}{
		{"top left", 10, 10, QuadrantTopLeft},
		{"top right", 600, 10, QuadrantTopRight},
		{"bottom left", 10, 500, QuadrantBottomLeft},
		{"bottom right", 600, 500, QuadrantBottomRight},
		{"exact center", 512, 384, QuadrantTopLeft},
		{"on vertical center line", 512, 500, QuadrantBottomLeft},
		{"on horizontal center line", 600, 384, QuadrantTopRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuadrantAt(tt.x, tt.y, 512, 384); got != tt.want {
				t.Errorf("QuadrantAt(%v, %v) = %s, want %s", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 100, Y: 100, Width: 200, Height: 150}
	tests := []struct {
		name string
		x, y float64
		want bool
	}{
		{"inside", 150, 150, true},
		{"left/top edge inclusive", 100, 100, true},
		{"right edge exclusive", 300, 150, false},
		{"bottom edge exclusive", 150, 250, false},
		{"outside", 50, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.want {
				t.Errorf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stimuli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, `
dysphoric: [dys_01, dys_02]
threat: [thr_01]
positive: [pos_01]
filler: [fil_01, fil_02, fil_03]
`)
	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog.Dysphoric) != 2 || len(catalog.Filler) != 3 {
		t.Errorf("catalog sizes wrong: %+v", catalog)
	}
	if got := catalog.Images(CategoryThreat); len(got) != 1 || got[0] != "thr_01" {
		t.Errorf("Images(threat) = %v", got)
	}
}

func TestLoadCatalogRejectsDuplicates(t *testing.T) {
	path := writeCatalog(t, `
dysphoric: [dys_01, dys_01]
threat: [thr_01]
positive: [pos_01]
filler: [fil_01]
`)
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for duplicate identifier within a category")
	}
}

func TestLoadCatalogRejectsCrossCategoryDuplicates(t *testing.T) {
	path := writeCatalog(t, `
dysphoric: [img_01]
threat: [thr_01]
positive: [pos_01]
filler: [fil_01, img_01]
`)
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for identifier shared across categories")
	}
}

func TestLoadCatalogRejectsEmptyID(t *testing.T) {
	path := writeCatalog(t, `
dysphoric: ["", dys_01]
threat: [thr_01]
positive: [pos_01]
filler: [fil_01]
`)
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for empty identifier")
	}
}
