package records_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/records"
	"sebasite/internal/services"
)

func TestIDRoundTripsNumberAndString(t *testing.T) {
	for _, raw := range []string{`1`, `1712345678901`, `"abc-1"`, `"007"`} {
		var id records.ID
		if err := json.Unmarshal([]byte(raw), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		out, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("marshal %s: %v", raw, err)
		}
		if string(out) != raw {
			t.Fatalf("round trip %s produced %s", raw, out)
		}
	}
}

func TestNewTimeIDUsesMilliseconds(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	if got := records.NewTimeID(now); got != "1712345678901" {
		t.Fatalf("unexpected id %q", got)
	}
}

func TestLegacyImageIsTreatedAsSingleImageList(t *testing.T) {
	var legacy, modern records.Project
	if err := json.Unmarshal([]byte(`{"id":1,"title":"A","image":"data:x"}`), &legacy); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`{"id":1,"title":"A","images":["data:x"]}`), &modern); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(modern.ImageList(), legacy.ImageList()); diff != "" {
		t.Fatalf("image lists differ (-modern +legacy):\n%s", diff)
	}
	if legacy.CoverImage() != "data:x" || modern.CoverImage() != "data:x" {
		t.Fatalf("unexpected covers %q %q", legacy.CoverImage(), modern.CoverImage())
	}
}

func TestProjectWithoutImagesHasEmptyList(t *testing.T) {
	var p records.Project
	if len(p.ImageList()) != 0 || p.CoverImage() != "" {
		t.Fatalf("expected no images, got %v", p.ImageList())
	}
}

func TestWithCompatImageMirrorsFirstImage(t *testing.T) {
	p := records.Project{Title: "A", Images: []string{"one", "two"}}.WithCompatImage()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"image":"one"`) || !strings.Contains(string(data), `"images":["one","two"]`) {
		t.Fatalf("unexpected encoding %s", data)
	}

	empty := records.Project{Title: "B", Image: "stale"}.WithCompatImage()
	if empty.Image != "" || empty.Images == nil {
		t.Fatalf("expected cleared legacy image and empty list, got %+v", empty)
	}
}

func TestProjectDecodeAcceptsLegacyCreatedAtAndNumericYear(t *testing.T) {
	var p records.Project
	raw := `{"id":"x","title":"A","year":2021,"createdAt":"2024-03-01T10:00:00Z"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Year != "2021" {
		t.Fatalf("expected year 2021, got %q", p.Year)
	}
	if p.CreatedAt != "2024-03-01T10:00:00Z" {
		t.Fatalf("expected createdAt alias, got %q", p.CreatedAt)
	}
	if !p.Created().Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created time %v", p.Created())
	}
}

func TestNewsDecodeAcceptsLegacyCreatedAt(t *testing.T) {
	var n records.News
	if err := json.Unmarshal([]byte(`{"id":2,"title":"T","createdAt":"2024-01-02T00:00:00Z"}`), &n); err != nil {
		t.Fatal(err)
	}
	if n.ID != "2" || n.CreatedAt == "" {
		t.Fatalf("unexpected news %+v", n)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want records.Category
	}{
		{"Commercial", records.CategoryCommercial},
		{"mixed use", records.CategoryMixedUse},
		{"MIXED_USE", records.CategoryMixedUse},
		{" institutional ", records.CategoryInstitutional},
	}
	for _, tc := range tests {
		got, err := records.ParseCategory(tc.in)
		if err != nil {
			t.Fatalf("ParseCategory(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseCategory(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	if _, err := records.ParseCategory("Aerospace"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
