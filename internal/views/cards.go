package views

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"sebasite/internal/records"
)

// ProjectCard summarizes a project for the grid and scattered layouts.
type ProjectCard struct {
	ID         records.ID `json:"id"`
	Title      string     `json:"title"`
	Location   string     `json:"location"`
	Year       string     `json:"year"`
	Category   string     `json:"category"`
	Cover      string     `json:"cover"`
	ImageCount int        `json:"image_count"`
	// PhotoBadge is shown when the project has more than one image.
	PhotoBadge  bool `json:"photo_badge"`
	ExtraImages int  `json:"extra_images"`
}

// NewProjectCard builds the card for project, honouring legacy single images.
func NewProjectCard(project records.Project) ProjectCard {
	count := len(project.ImageList())
	return ProjectCard{
		ID:          project.ID,
		Title:       project.Title,
		Location:    project.Location,
		Year:        project.Year,
		Category:    string(project.Category),
		Cover:       project.CoverImage(),
		ImageCount:  count,
		PhotoBadge:  count > 1,
		ExtraImages: max(0, count-1),
	}
}

// ExcerptRunes caps news card excerpts.
const ExcerptRunes = 220

// NewsCard summarizes a news item.
type NewsCard struct {
	ID          records.ID `json:"id"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Image       string     `json:"image,omitempty"`
	Date        string     `json:"date,omitempty"`
	DisplayDate string     `json:"display_date,omitempty"`
}

// NewNewsCard builds the card for item with its date rendered in lang.
func NewNewsCard(item records.News, lang string) NewsCard {
	return NewsCard{
		ID:          item.ID,
		Title:       item.Title,
		Excerpt:     Excerpt(item.Content, ExcerptRunes),
		Image:       item.Image,
		Date:        item.Date,
		DisplayDate: FormatDate(item.Date, lang),
	}
}

// Excerpt shortens text to at most limit runes, cutting at a word boundary
// and appending an ellipsis when shortened.
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

var monthNames = map[string][12]string{
	"tr": {"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran", "Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"},
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// FormatDate renders a calendar date in the long form used on the site
// ("1 Mart 2024" for tr, "March 1, 2024" for en). Unparseable input is
// returned unchanged.
func FormatDate(value, lang string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	var (
		t   time.Time
		err error
	)
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err = time.Parse(layout, value); err == nil {
			break
		}
	}
	if err != nil {
		return value
	}
	names, ok := monthNames[lang]
	if !ok {
		names = monthNames["tr"]
		lang = "tr"
	}
	month := names[t.Month()-1]
	if lang == "en" {
		return month + " " + strconv.Itoa(t.Day()) + ", " + strconv.Itoa(t.Year())
	}
	return strconv.Itoa(t.Day()) + " " + month + " " + strconv.Itoa(t.Year())
}
