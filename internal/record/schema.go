package record

import (
	"strings"
	"unicode"
)

// categoryOrder is the canonical rendering order of the known category
// keys. Renderers emit known categories in this order, then any unknown
// keys in snapshot order.
var categoryOrder = []string{
	"ai-agents",
	"foundation-models",
	"ai-tools",
	"databases",
	"benchmarks",
	"reviews",
}

// displayNames maps category keys to the section headings used in the
// Markdown document.
var displayNames = map[string]string{
	"ai-agents":         "AI Agents",
	"foundation-models": "Foundation models",
	"ai-tools":          "AI Tools",
	"databases":         "Databases/Simulation",
	"benchmarks":        "Benchmarks",
	"reviews":           "Reviews",
}

// statLabels maps category keys to the labels used by the HTML page's
// statistics fragments. These differ from the Markdown display names in
// casing and wording, so they are kept as their own table.
var statLabels = map[string]string{
	"ai-agents":         "AI Agents",
	"foundation-models": "Foundation Models",
	"ai-tools":          "AI Tools",
	"databases":         "Databases",
	"benchmarks":        "Benchmarks",
	"reviews":           "Reviews",
}

// columns is the shared ordered column list every category table uses.
// "Paper/ Source" is spelled with the space; it is part of the
// established document format.
var columns = []string{
	"Year", "Title", "Team", "Team Website", "Affiliation",
	"Domain", "Venue", "Paper/ Source", "Code/Product",
}

// KnownCategories returns the known category keys in canonical order.
func KnownCategories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsKnownCategory reports whether key has a schema entry.
func IsKnownCategory(key string) bool {
	_, ok := displayNames[key]
	return ok
}

// Columns returns the shared ordered column list.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// DisplayName returns the Markdown section heading for a category key.
// Unknown keys fall back to the key in title case with dashes as spaces.
func DisplayName(key string) string {
	if name, ok := displayNames[key]; ok {
		return name
	}
	return titleCase(strings.ReplaceAll(key, "-", " "))
}

// StatLabel returns the HTML statistics label for a category key. The
// second return is false for keys outside the known set, which have no
// statistics fragments.
func StatLabel(key string) (string, bool) {
	label, ok := statLabels[key]
	return label, ok
}

// CategoryForHeading maps a Markdown section heading back to a category
// key by keyword, mirroring how the documents have historically named
// their sections. Headings with no keyword match fall back to a
// kebab-cased form of the heading.
func CategoryForHeading(heading string) string {
	h := strings.ToLower(strings.TrimSpace(heading))
	switch {
	case strings.Contains(h, "ai agents"):
		return "ai-agents"
	case strings.Contains(h, "foundation models"), strings.Contains(h, "foundation-models"):
		return "foundation-models"
	case strings.Contains(h, "ai tools"):
		return "ai-tools"
	case strings.Contains(h, "databases"), strings.Contains(h, "simulation"):
		return "databases"
	case strings.Contains(h, "benchmarks"):
		return "benchmarks"
	case strings.Contains(h, "reviews"):
		return "reviews"
	}
	return strings.ReplaceAll(strings.ReplaceAll(h, " ", "-"), "/", "")
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
