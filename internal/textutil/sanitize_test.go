package textutil_test

import (
	"testing"

	"sebasite/internal/textutil"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Çağlayan Köşkü Restorasyonu", "caglayan-kosku-restorasyonu"},
		{"  İzmir   Liman / Depo 2 ", "izmir-liman-depo-2"},
		{"Işık Plaza", "isik-plaza"},
		{"---", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range tests {
		if got := textutil.Slug(tc.in); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Mixed-Use", "mixed-use"},
		{"Öğretmen Evi", "ogretmen_evi"},
		{" ", "unknown"},
		{"??", "unknown"},
	}
	for _, tc := range tests {
		if got := textutil.SanitizeToken(tc.in); got != tc.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	if got := textutil.SanitizeFileName(` a/b:c?.jpg `); got != "a-b-c.jpg" {
		t.Fatalf("unexpected %q", got)
	}
}
