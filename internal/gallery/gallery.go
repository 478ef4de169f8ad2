// Package gallery picks the random selection of project photos shown on the
// home page.
package gallery

import (
	"math/rand/v2"

	"sebasite/internal/records"
)

// DefaultSampleSize is how many photos the home page shows.
const DefaultSampleSize = 6

// Item is one photo with the project it belongs to.
type Item struct {
	Image    string `json:"image"`
	Title    string `json:"title"`
	Location string `json:"location"`
}

// Rand is the randomness source used by Shuffle. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from the process-wide generator.
var DefaultRand Rand = globalRand{}

// Flatten expands every project into one item per image, preserving project
// and image order. Legacy single-image projects contribute their one image.
func Flatten(projects []records.Project) []Item {
	items := make([]Item, 0, len(projects))
	for _, project := range projects {
		for _, img := range project.ImageList() {
			items = append(items, Item{Image: img, Title: project.Title, Location: project.Location})
		}
	}
	return items
}

// Shuffle permutes items in place with the Fisher-Yates algorithm.
func Shuffle(items []Item, rng Rand) {
	if rng == nil {
		rng = DefaultRand
	}
	for i := len(items) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Sample returns up to n randomly chosen photos across all projects. A
// non-positive n selects DefaultSampleSize.
func Sample(projects []records.Project, n int, rng Rand) []Item {
	if n <= 0 {
		n = DefaultSampleSize
	}
	items := Flatten(projects)
	Shuffle(items, rng)
	if len(items) > n {
		items = items[:n]
	}
	return items
}
