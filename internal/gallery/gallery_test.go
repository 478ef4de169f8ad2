package gallery_test

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/gallery"
	"sebasite/internal/records"
)

func projectsWithImages(counts ...int) []records.Project {
	projects := make([]records.Project, 0, len(counts))
	for p, count := range counts {
		project := records.Project{Title: fmt.Sprintf("P%d", p), Location: "Ankara", Images: []string{}}
		for i := 0; i < count; i++ {
			project.Images = append(project.Images, fmt.Sprintf("img-%d-%d", p, i))
		}
		projects = append(projects, project)
	}
	return projects
}

func TestFlattenPreservesOrderAndLegacyImages(t *testing.T) {
	projects := []records.Project{
		{Title: "A", Location: "X", Images: []string{"a1", "a2"}},
		{Title: "Legacy", Location: "Y", Image: "l1"},
		{Title: "Empty", Location: "Z"},
	}
	want := []gallery.Item{
		{Image: "a1", Title: "A", Location: "X"},
		{Image: "a2", Title: "A", Location: "X"},
		{Image: "l1", Title: "Legacy", Location: "Y"},
	}
	if diff := cmp.Diff(want, gallery.Flatten(projects)); diff != "" {
		t.Fatalf("flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	items := gallery.Flatten(projectsWithImages(3, 4, 5))
	original := slices.Clone(items)
	gallery.Shuffle(items, rand.New(rand.NewPCG(1, 2)))

	key := func(it gallery.Item) string { return it.Image }
	got := make([]string, len(items))
	want := make([]string, len(original))
	for i := range items {
		got[i], want[i] = key(items[i]), key(original[i])
	}
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("shuffle is not a permutation: %v vs %v", got, want)
	}
}

func TestShuffleIsUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	counts := map[string]int{}
	const trials = 60000
	for i := 0; i < trials; i++ {
		items := []gallery.Item{{Image: "a"}, {Image: "b"}, {Image: "c"}}
		gallery.Shuffle(items, rng)
		counts[items[0].Image+items[1].Image+items[2].Image]++
	}
	if len(counts) != 6 {
		t.Fatalf("expected all 6 permutations, saw %d", len(counts))
	}
	expected := trials / 6
	for perm, n := range counts {
		if n < expected*9/10 || n > expected*11/10 {
			t.Fatalf("permutation %s drawn %d times, expected about %d", perm, n, expected)
		}
	}
}

// sequenceRand replays fixed draws to pin the algorithm's index choices.
type sequenceRand struct {
	draws []int
	calls []int
}

func (s *sequenceRand) IntN(n int) int {
	s.calls = append(s.calls, n)
	v := s.draws[0]
	s.draws = s.draws[1:]
	return v
}

func TestShuffleWalksFromLastIndexDown(t *testing.T) {
	items := []gallery.Item{{Image: "0"}, {Image: "1"}, {Image: "2"}, {Image: "3"}}
	rng := &sequenceRand{draws: []int{0, 0, 0}}
	gallery.Shuffle(items, rng)

	if !slices.Equal(rng.calls, []int{4, 3, 2}) {
		t.Fatalf("unexpected IntN bounds %v", rng.calls)
	}
	var order []string
	for _, it := range items {
		order = append(order, it.Image)
	}
	if got := strings.Join(order, ""); got != "1230" {
		t.Fatalf("unexpected order %s", got)
	}
}

func TestSampleTruncates(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	if got := gallery.Sample(projectsWithImages(4, 4), 6, rng); len(got) != 6 {
		t.Fatalf("expected 6 items, got %d", len(got))
	}
	if got := gallery.Sample(projectsWithImages(2, 1), 6, rng); len(got) != 3 {
		t.Fatalf("expected all 3 items, got %d", len(got))
	}
	if got := gallery.Sample(nil, 6, rng); len(got) != 0 {
		t.Fatalf("expected empty sample, got %d", len(got))
	}
	if got := gallery.Sample(projectsWithImages(10), 0, nil); len(got) != gallery.DefaultSampleSize {
		t.Fatalf("expected default sample size, got %d", len(got))
	}
}
