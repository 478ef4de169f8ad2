package admin

import (
	"fmt"
	"strings"
	"time"

	"sebasite/internal/records"
	"sebasite/internal/services"
)

// Kind selects the collection a draft or operation applies to.
type Kind string

const (
	KindProject Kind = records.CollectionProjects
	KindNews    Kind = records.CollectionNews
)

// ParseKind accepts collection names.
func ParseKind(value string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindProject, "project":
		return KindProject, nil
	case KindNews:
		return KindNews, nil
	default:
		return "", services.Wrap(services.ErrNotFound, "admin", "kind", fmt.Sprintf("unknown collection %q", value), nil)
	}
}

// ProjectFields are the editable project form fields.
type ProjectFields struct {
	Title       string           `json:"title"`
	Location    string           `json:"location"`
	Year        string           `json:"year"`
	Description string           `json:"description"`
	Category    records.Category `json:"category"`
}

// NewsFields are the editable news form fields.
type NewsFields struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// Preview is one image shown in the form. File names the queued upload it
// came from and is empty for images already stored on the record.
type Preview struct {
	Image string `json:"image"`
	File  string `json:"file,omitempty"`
}

// Draft is the state of an open form.
type Draft struct {
	Kind      Kind          `json:"kind"`
	EditingID records.ID    `json:"editing_id,omitempty"`
	Project   ProjectFields `json:"project"`
	News      NewsFields    `json:"news"`
	Previews  []Preview     `json:"previews"`
}

// Editing reports whether the draft edits an existing record.
func (d Draft) Editing() bool { return !d.EditingID.IsZero() }

// QueuedFiles counts previews backed by a queued upload.
func (d Draft) QueuedFiles() int {
	n := 0
	for _, p := range d.Previews {
		if p.File != "" {
			n++
		}
	}
	return n
}

// Images returns the preview images in order.
func (d Draft) Images() []string {
	images := make([]string, 0, len(d.Previews))
	for _, p := range d.Previews {
		images = append(images, p.Image)
	}
	return images
}

// clone copies the previews so callers never alias the stored draft. The copy
// is never nil, so an empty draft encodes "previews":[].
func (d Draft) clone() Draft {
	previews := make([]Preview, len(d.Previews))
	copy(previews, d.Previews)
	d.Previews = previews
	return d
}

func newProjectDraft(now time.Time) *Draft {
	return &Draft{
		Kind: KindProject,
		Project: ProjectFields{
			Year:     fmt.Sprint(now.Year()),
			Category: records.DefaultCategory,
		},
		Previews: []Preview{},
	}
}

func newNewsDraft(now time.Time) *Draft {
	return &Draft{
		Kind:     KindNews,
		News:     NewsFields{Date: now.Format("2006-01-02")},
		Previews: []Preview{},
	}
}

// validate reports every missing or invalid field at once.
func (d Draft) validate() error {
	var problems []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}
	switch d.Kind {
	case KindProject:
		require("title", d.Project.Title)
		require("location", d.Project.Location)
		require("year", d.Project.Year)
		require("description", d.Project.Description)
		if strings.TrimSpace(string(d.Project.Category)) == "" {
			problems = append(problems, "category is required")
		} else if !d.Project.Category.Valid() {
			problems = append(problems, fmt.Sprintf("category %q is not recognised", d.Project.Category))
		}
		if !d.Editing() && len(d.Previews) == 0 {
			problems = append(problems, "at least one image is required")
		}
	case KindNews:
		require("title", d.News.Title)
		require("content", d.News.Content)
		require("date", d.News.Date)
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "admin", "submit", strings.Join(problems, "; "), nil)
}
