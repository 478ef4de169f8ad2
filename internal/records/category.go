package records

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"sebasite/internal/services"
)

// Category classifies a project.
type Category string

const (
	CategoryCommercial    Category = "Commercial"
	CategoryResidential   Category = "Residential"
	CategoryIndustrial    Category = "Industrial"
	CategoryRestoration   Category = "Restoration"
	CategoryMixedUse      Category = "Mixed-Use"
	CategoryInstitutional Category = "Institutional"
)

// DefaultCategory is preselected on new project drafts.
const DefaultCategory = CategoryCommercial

// Categories lists every category in display order.
var Categories = []Category{
	CategoryCommercial,
	CategoryResidential,
	CategoryIndustrial,
	CategoryRestoration,
	CategoryMixedUse,
	CategoryInstitutional,
}

var categoryTitler = cases.Title(language.English)

// ParseCategory resolves loosely formatted input ("mixed use", "MIXED_USE")
// to a known category.
func ParseCategory(value string) (Category, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", services.Wrap(services.ErrValidation, "records", "category", "category is required", nil)
	}
	normalized := strings.NewReplacer(" ", "-", "_", "-").Replace(strings.ToLower(trimmed))
	candidate := Category(categoryTitler.String(normalized))
	for _, known := range Categories {
		if candidate == known || strings.EqualFold(string(known), normalized) {
			return known, nil
		}
	}
	return "", services.Wrap(services.ErrValidation, "records", "category", fmt.Sprintf("unknown category %q", value), nil)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
