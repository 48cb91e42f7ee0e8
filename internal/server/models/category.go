package models

import "strings"

// Category is a tag from the closed book vocabulary.
type Category string

const (
	CategoryDeepLearning    Category = "Deep Learning"
	CategoryMachineLearning Category = "Machine Learning"
	CategoryPython          Category = "Python"
	CategoryOther           Category = "Other"
)

var knownCategories = []Category{
	CategoryDeepLearning,
	CategoryMachineLearning,
	CategoryPython,
	CategoryOther,
}

// ParseCategory matches s case-insensitively against the vocabulary.
// Unknown or empty input maps to CategoryOther; it never fails.
func ParseCategory(s string) Category {
	v := strings.TrimSpace(s)
	for _, c := range knownCategories {
		if strings.EqualFold(v, string(c)) {
			return c
		}
	}
	return CategoryOther
}

// JoinCategories encodes a category set for storage.
func JoinCategories(cs []Category) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}

// SplitCategories decodes a stored category set. The result is never empty.
func SplitCategories(s string) []Category {
	var out []Category
	seen := make(map[Category]struct{})
	for _, p := range strings.Split(s, ",") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		c := ParseCategory(p)
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return []Category{CategoryOther}
	}
	return out
}
