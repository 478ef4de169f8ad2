package views_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/records"
	"sebasite/internal/views"
)

func TestTickerDuplicatesItems(t *testing.T) {
	news := []records.News{{ID: "3", Title: "c"}, {ID: "2", Title: "b"}, {ID: "1", Title: "a"}}
	ticker := views.NewTicker(news, 5*time.Second)

	if !ticker.Visible {
		t.Fatal("expected visible ticker")
	}
	if len(ticker.Items) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(ticker.Items))
	}
	if diff := cmp.Diff(news, ticker.Items[3:]); diff != "" {
		t.Fatalf("second copy differs (-want +got):\n%s", diff)
	}
	if ticker.Duration != 15*time.Second || ticker.Seconds != 15 {
		t.Fatalf("unexpected duration %v (%v s)", ticker.Duration, ticker.Seconds)
	}
}

func TestTickerHiddenWhenEmpty(t *testing.T) {
	ticker := views.NewTicker(nil, 0)
	if ticker.Visible || len(ticker.Items) != 0 || ticker.Duration != 0 {
		t.Fatalf("expected hidden ticker, got %+v", ticker)
	}
}

func TestTickerDefaultPace(t *testing.T) {
	ticker := views.NewTicker([]records.News{{Title: "only"}}, 0)
	if ticker.Duration != 5*time.Second {
		t.Fatalf("expected default pace, got %v", ticker.Duration)
	}
}

func TestLightboxNavigationWraps(t *testing.T) {
	project := records.Project{ID: "9", Title: "Tower", Images: []string{"a", "b", "c"}}
	box, ok := views.NewLightbox(project, 0)
	if !ok {
		t.Fatal("expected lightbox")
	}
	if got := box.Prev().Current(); got != "c" {
		t.Fatalf("prev from first should wrap to last, got %q", got)
	}
	if got := box.GoTo(2).Next().Current(); got != "a" {
		t.Fatalf("next from last should wrap to first, got %q", got)
	}
	if got := box.Next().Counter(); got != "2 / 3" {
		t.Fatalf("unexpected counter %q", got)
	}
	if got := box.GoTo(10).Index; got != 2 {
		t.Fatalf("GoTo should clamp high, got %d", got)
	}
	if got := box.GoTo(-4).Index; got != 0 {
		t.Fatalf("GoTo should clamp low, got %d", got)
	}
	if !box.ShowNavigation() {
		t.Fatal("expected navigation for three images")
	}

	view := box.GoTo(1).View()
	if view.Next != 2 || view.Prev != 0 || view.Current != "b" || len(view.Thumbnails) != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestLightboxLegacyAndEmptyProjects(t *testing.T) {
	legacy, ok := views.NewLightbox(records.Project{Image: "only"}, 0)
	if !ok || legacy.Current() != "only" || legacy.ShowNavigation() {
		t.Fatalf("unexpected legacy lightbox %+v ok=%v", legacy, ok)
	}
	if legacy.Next().Current() != "only" || legacy.Counter() != "1 / 1" {
		t.Fatal("single image lightbox must stay put")
	}
	if view := legacy.View(); view.Thumbnails != nil {
		t.Fatalf("single image lightbox has no thumbnails, got %v", view.Thumbnails)
	}
	if _, ok := views.NewLightbox(records.Project{}, 0); ok {
		t.Fatal("projects without images have no lightbox")
	}
}

func TestScatteredLayoutCyclesTables(t *testing.T) {
	projects := make([]records.Project, 8)
	for i := range projects {
		projects[i] = records.Project{Title: string(rune('A' + i)), Images: []string{"x"}}
	}
	layout := views.ScatteredLayout(projects)
	if len(layout) != 8 {
		t.Fatalf("expected 8 placements, got %d", len(layout))
	}

	first := layout[0]
	if first.Size != (views.Size{Width: 400, Height: 500}) || first.Position != (views.Position{TopPx: 50, LeftPercent: 5}) || first.RotationDeg != -2 {
		t.Fatalf("unexpected first placement %+v", first)
	}
	sixth := layout[5]
	if sixth.Size != (views.Size{Width: 410, Height: 500}) || sixth.Position != (views.Position{TopPx: 1000, LeftPercent: 52}) || sixth.RotationDeg != 1 {
		t.Fatalf("unexpected sixth placement %+v", sixth)
	}
	seventh := layout[6]
	if seventh.Size != first.Size || seventh.Position != first.Position || seventh.RotationDeg != first.RotationDeg {
		t.Fatalf("placement 7 should reuse slot 0, got %+v", seventh)
	}
	if seventh.Card.Title != "G" || seventh.Index != 6 {
		t.Fatalf("unexpected card %+v", seventh)
	}
}

func TestProjectCard(t *testing.T) {
	tests := []struct {
		name    string
		project records.Project
		want    views.ProjectCard
	}{
		{
			name:    "multiple images",
			project: records.Project{ID: "1", Title: "T", Category: records.CategoryIndustrial, Images: []string{"a", "b", "c"}},
			want:    views.ProjectCard{ID: "1", Title: "T", Category: "Industrial", Cover: "a", ImageCount: 3, PhotoBadge: true, ExtraImages: 2},
		},
		{
			name:    "legacy image",
			project: records.Project{ID: "2", Title: "L", Image: "legacy"},
			want:    views.ProjectCard{ID: "2", Title: "L", Cover: "legacy", ImageCount: 1},
		},
		{
			name:    "no images",
			project: records.Project{ID: "3", Title: "N"},
			want:    views.ProjectCard{ID: "3", Title: "N"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, views.NewProjectCard(tc.project)); diff != "" {
				t.Fatalf("card mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewsCard(t *testing.T) {
	item := records.News{ID: "4", Title: "Opening", Content: "  The   new   site\nis open. ", Date: "2024-03-01"}
	card := views.NewNewsCard(item, "tr")
	if card.Excerpt != "The new site is open." {
		t.Fatalf("unexpected excerpt %q", card.Excerpt)
	}
	if card.DisplayDate != "1 Mart 2024" {
		t.Fatalf("unexpected tr date %q", card.DisplayDate)
	}
	if got := views.NewNewsCard(item, "en").DisplayDate; got != "March 1, 2024" {
		t.Fatalf("unexpected en date %q", got)
	}
	if got := views.FormatDate("next week", "en"); got != "next week" {
		t.Fatalf("unparseable dates should pass through, got %q", got)
	}
}

func TestExcerptCutsAtWordBoundary(t *testing.T) {
	if got := views.Excerpt("alpha beta gamma delta", 12); got != "alpha beta…" {
		t.Fatalf("unexpected excerpt %q", got)
	}
	if got := views.Excerpt("short", 12); got != "short" {
		t.Fatalf("unexpected excerpt %q", got)
	}
}
