// Package segments canonicalizes demographic segment identifiers and labels
// and maps segment identifiers to their demographic category.
package segments

import (
	"regexp"
	"strings"
)

// Category is the demographic dimension a segment belongs to. It is one of
// a closed set; anything else is CategoryUnknown.
type Category string

const (
	CategoryUnknown     Category = "unknown"
	CategoryAge         Category = "age"
	CategoryGender      Category = "gender"
	CategoryCountry     Category = "country"
	CategoryEnvironment Category = "environment"
	CategoryReligion    Category = "religion"
	CategoryAIConcern   Category = "ai_concern"
	CategoryLanguage    Category = "language"
)

var categoryLabels = map[Category]string{
	CategoryUnknown:     "Unknown",
	CategoryAge:         "Age",
	CategoryGender:      "Gender",
	CategoryCountry:     "Country",
	CategoryEnvironment: "Environment",
	CategoryReligion:    "Religion",
	CategoryAIConcern:   "AI Concern",
	CategoryLanguage:    "Language",
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return categoryLabels[CategoryUnknown]
}

// Known reports whether c takes part in category-based analyses.
func (c Category) Known() bool {
	_, ok := categoryLabels[c]
	return ok && c != CategoryUnknown
}

// prefixCategories maps the human-readable id prefix ("age:18-29").
var prefixCategories = map[string]Category{
	"age":         CategoryAge,
	"gender":      CategoryGender,
	"sex":         CategoryGender,
	"country":     CategoryCountry,
	"environment": CategoryEnvironment,
	"env":         CategoryEnvironment,
	"religion":    CategoryReligion,
	"ai_concern":  CategoryAIConcern,
	"ai-concern":  CategoryAIConcern,
	"aiconcern":   CategoryAIConcern,
	"concern":     CategoryAIConcern,
	"language":    CategoryLanguage,
	"lang":        CategoryLanguage,
}

// codeCategories maps the positional column codes used by early survey
// exports ("O2:18-25").
var codeCategories = map[string]Category{
	"O1": CategoryLanguage,
	"O2": CategoryAge,
	"O3": CategoryGender,
	"O4": CategoryEnvironment,
	"O5": CategoryAIConcern,
	"O6": CategoryReligion,
	"O7": CategoryCountry,
}

var positionalCode = regexp.MustCompile(`^[Oo]\d+$`)

// CategoryOf returns the category encoded in a segment id prefix. The prefix
// ends at the first ':'. Without one, the longest known prefix followed by
// '_' is used, else everything before the first '_'.
func CategoryOf(segmentID string) Category {
	prefix := idPrefix(strings.TrimSpace(segmentID))
	if prefix == "" {
		return CategoryUnknown
	}
	if positionalCode.MatchString(prefix) {
		if c, ok := codeCategories[strings.ToUpper(prefix)]; ok {
			return c
		}
		return CategoryUnknown
	}
	if c, ok := prefixCategories[strings.ToLower(prefix)]; ok {
		return c
	}
	return CategoryUnknown
}

func idPrefix(id string) string {
	if i := strings.IndexByte(id, ':'); i > 0 {
		return id[:i]
	}
	best := 0
	for p := range prefixCategories {
		if len(p) > best && len(id) > len(p) && id[len(p)] == '_' && strings.EqualFold(id[:len(p)], p) {
			best = len(p)
		}
	}
	if best > 0 {
		return id[:best]
	}
	if i := strings.IndexByte(id, '_'); i > 0 {
		return id[:i]
	}
	return ""
}
