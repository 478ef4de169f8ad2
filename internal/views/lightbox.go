package views

import (
	"fmt"

	"sebasite/internal/records"
)

// Lightbox is the full-screen image browser for one project.
type Lightbox struct {
	Project records.Project
	Images  []string
	Index   int
}

// NewLightbox opens project at index (clamped). ok is false when the project
// has no images, in which case no lightbox is shown.
func NewLightbox(project records.Project, index int) (Lightbox, bool) {
	images := project.ImageList()
	if len(images) == 0 {
		return Lightbox{}, false
	}
	l := Lightbox{Project: project, Images: images}
	return l.GoTo(index), true
}

// Len returns the number of images.
func (l Lightbox) Len() int { return len(l.Images) }

// Next advances one image, wrapping to the first.
func (l Lightbox) Next() Lightbox {
	if n := l.Len(); n > 0 {
		l.Index = (l.Index + 1) % n
	}
	return l
}

// Prev steps back one image, wrapping to the last.
func (l Lightbox) Prev() Lightbox {
	if n := l.Len(); n > 0 {
		l.Index = (l.Index - 1 + n) % n
	}
	return l
}

// GoTo jumps to index, clamped to the valid range.
func (l Lightbox) GoTo(index int) Lightbox {
	n := l.Len()
	switch {
	case n == 0 || index < 0:
		l.Index = 0
	case index >= n:
		l.Index = n - 1
	default:
		l.Index = index
	}
	return l
}

// Current returns the displayed image.
func (l Lightbox) Current() string {
	if l.Len() == 0 {
		return ""
	}
	return l.Images[l.Index]
}

// Counter renders the one-based position, e.g. "2 / 5".
func (l Lightbox) Counter() string {
	return fmt.Sprintf("%d / %d", l.Index+1, l.Len())
}

// ShowNavigation reports whether arrows, counter and thumbnails are shown.
func (l Lightbox) ShowNavigation() bool { return l.Len() > 1 }

// LightboxView is the serialized lightbox state.
type LightboxView struct {
	ProjectID      records.ID `json:"project_id"`
	Title          string     `json:"title"`
	Location       string     `json:"location"`
	Year           string     `json:"year"`
	Category       string     `json:"category"`
	Index          int        `json:"index"`
	Current        string     `json:"current"`
	Counter        string     `json:"counter"`
	ShowNavigation bool       `json:"show_navigation"`
	Next           int        `json:"next"`
	Prev           int        `json:"prev"`
	Thumbnails     []string   `json:"thumbnails,omitempty"`
}

// View returns the serializable state.
func (l Lightbox) View() LightboxView {
	view := LightboxView{
		ProjectID:      l.Project.ID,
		Title:          l.Project.Title,
		Location:       l.Project.Location,
		Year:           l.Project.Year,
		Category:       string(l.Project.Category),
		Index:          l.Index,
		Current:        l.Current(),
		Counter:        l.Counter(),
		ShowNavigation: l.ShowNavigation(),
		Next:           l.Next().Index,
		Prev:           l.Prev().Index,
	}
	if view.ShowNavigation {
		view.Thumbnails = l.Images
	}
	return view
}
