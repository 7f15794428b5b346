package main

import (
	"path/filepath"
	"testing"

	"secure-library/internal/domain"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Linear Algebra.pdf": "linear-algebra",
		"mech_notes-v2.pdf": "mech-notes-v2",
		"  Weird   Name!!.pdf": "weird-name",
		"UPPER.PDF": "upper",
		"already-a-slug.pdf": "already-a-slug",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Fatalf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := map[string]string{
		"Linear_Algebra.pdf": "Linear Algebra",
		"mech-notes-v2.pdf": "mech notes v2",
		"Plain Title.pdf": "Plain Title",
	}
	for in, want := range cases {
		if got := titleFromFilename(in); got != want {
			t.Fatalf("titleFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")

	books := domain.Catalog{
		"mech": {
			ID:           "mech",
			Title:        "Classical Mechanics",
			Filename:     "mech.pdf.enc",
			Encrypted:    true,
			OriginalSize: 1024,
			PageCount:    12,
		},
	}
	if err := writeManifest(path, books); err != nil {
		t.Fatalf("writeManifest failed: %v", err)
	}

	loaded, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest failed: %v", err)
	}
	if len(loaded) != 1 || loaded["mech"].PageCount != 12 {
		t.Fatalf("unexpected manifest contents: %+v", loaded)
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	books, err := loadManifest(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatalf("expected missing manifest to yield empty catalog, got %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("expected empty catalog, got %+v", books)
	}
}
