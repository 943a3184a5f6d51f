package vst3

import (
	"sort"
	"strings"
)

// SubCategorySeparator separates the tags of a class sub-category string,
// e.g. "Fx|Delay|Stereo".
const SubCategorySeparator = "|"

// Well known sub-category tags
const (
	SubCategoryFx         = "Fx"
	SubCategoryInstrument = "Instrument"
	SubCategoryAnalyzer   = "Analyzer"
	SubCategorySpatial    = "Spatial"
)

// SplitSubCategories returns the distinct, non-empty tags of a sub-category
// string in sorted order. An empty string yields an empty, non-nil slice.
func SplitSubCategories(s string) []string {
	tags := []string{}
	seen := make(map[string]struct{})
	for _, tag := range strings.Split(s, SubCategorySeparator) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// JoinSubCategories is the inverse of SplitSubCategories for tag lists read
// from moduleinfo.json.
func JoinSubCategories(tags []string) string {
	return strings.Join(tags, SubCategorySeparator)
}
