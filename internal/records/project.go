package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Collection names understood by the record store and the fallback cache.
const (
	CollectionProjects = "projects"
	CollectionNews     = "news"
)

// Project is a showcased construction project.
type Project struct {
	ID          ID       `json:"id,omitempty"`
	Title       string   `json:"title"`
	Location    string   `json:"location"`
	Year        string   `json:"year"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	// Images is nil for legacy records that only carry Image.
	Images    []string `json:"images"`
	Image     string   `json:"image"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// ImageList returns the project's images, treating a legacy single image as a
// one-element list.
func (p Project) ImageList() []string {
	if p.Images != nil {
		return p.Images
	}
	if p.Image != "" {
		return []string{p.Image}
	}
	return []string{}
}

// CoverImage returns the first image if present, else the legacy image field.
func (p Project) CoverImage() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return p.Image
}

// WithCompatImage returns a copy whose legacy Image mirrors Images[0], which
// older readers of the collection still depend on.
func (p Project) WithCompatImage() Project {
	if p.Images == nil {
		p.Images = []string{}
	}
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	} else {
		p.Image = ""
	}
	return p
}

// Created parses CreatedAt; the zero time is returned when it is absent or malformed.
func (p Project) Created() time.Time {
	return parseTimestamp(p.CreatedAt)
}

// UnmarshalJSON accepts the legacy createdAt key and numeric years.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	var aux struct {
		plain
		Year          json.RawMessage `json:"year"`
		LegacyCreated string          `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	year, err := flexibleString(aux.Year)
	if err != nil {
		return fmt.Errorf("decode project year: %w", err)
	}
	*p = Project(aux.plain)
	p.Year = year
	if p.CreatedAt == "" {
		p.CreatedAt = aux.LegacyCreated
	}
	return nil
}

// News is a dated announcement shown in the news section and ticker.
type News struct {
	ID        ID     `json:"id,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Image     string `json:"image,omitempty"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Created parses CreatedAt; the zero time is returned when it is absent or malformed.
func (n News) Created() time.Time {
	return parseTimestamp(n.CreatedAt)
}

// UnmarshalJSON accepts the legacy createdAt key.
func (n *News) UnmarshalJSON(data []byte) error {
	type plain News
	var aux struct {
		plain
		LegacyCreated string `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*n = News(aux.plain)
	if n.CreatedAt == "" {
		n.CreatedAt = aux.LegacyCreated
	}
	return nil
}

// Timestamp formats t the way CreatedAt values are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func parseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999-07"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func flexibleString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}
