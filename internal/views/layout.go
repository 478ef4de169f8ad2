package views

import "sebasite/internal/records"

// Size is a card size in pixels at the widest breakpoint.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Position anchors a card: Top in pixels, Left as a percentage of the
// container width.
type Position struct {
	TopPx       int     `json:"top_px"`
	LeftPercent float64 `json:"left_percent"`
}

// The scattered layout cycles through these tables by index modulo six.
var (
	LayoutSizes = [...]Size{
		{400, 500}, {380, 450}, {450, 550}, {420, 480}, {400, 520}, {410, 500},
	}
	LayoutPositions = [...]Position{
		{50, 5}, {200, 50}, {400, 10}, {600, 45}, {800, 8}, {1000, 52},
	}
	LayoutRotations = [...]float64{-2, 1.5, -1, 2, -1.5, 1}
)

// Placement positions one project card in the scattered layout.
type Placement struct {
	Index       int         `json:"index"`
	Size        Size        `json:"size"`
	Position    Position    `json:"position"`
	RotationDeg float64     `json:"rotation_deg"`
	Card        ProjectCard `json:"card"`
}

// PlacementAt returns the geometry for the card at index.
func PlacementAt(index int) Placement {
	slot := index % len(LayoutSizes)
	if slot < 0 {
		slot += len(LayoutSizes)
	}
	return Placement{
		Index:       index,
		Size:        LayoutSizes[slot],
		Position:    LayoutPositions[slot],
		RotationDeg: LayoutRotations[slot],
	}
}

// ScatteredLayout places every project in list order.
func ScatteredLayout(projects []records.Project) []Placement {
	placements := make([]Placement, 0, len(projects))
	for i, project := range projects {
		p := PlacementAt(i)
		p.Card = NewProjectCard(project)
		placements = append(placements, p)
	}
	return placements
}
