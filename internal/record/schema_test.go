package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"ai-agents", "AI Agents"},
		{"foundation-models", "Foundation models"},
		{"ai-tools", "AI Tools"},
		{"databases", "Databases/Simulation"},
		{"benchmarks", "Benchmarks"},
		{"reviews", "Reviews"},
		{"knowledge-graphs", "Knowledge Graphs"}, // fallback
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := DisplayName(tt.key); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestCategoryForHeading(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"AI Agents", "ai-agents"},
		{"  AI Agents for Science  ", "ai-agents"},
		{"Foundation models", "foundation-models"},
		{"Foundation Models", "foundation-models"},
		{"AI Tools", "ai-tools"},
		{"Databases/Simulation", "databases"},
		{"Simulation Platforms", "databases"},
		{"Benchmarks", "benchmarks"},
		{"Reviews", "reviews"},
		{"Knowledge Graphs", "knowledge-graphs"}, // fallback, kebab-cased
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			if got := CategoryForHeading(tt.heading); got != tt.want {
				t.Errorf("CategoryForHeading(%q) = %q, want %q", tt.heading, got, tt.want)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	want := []string{
		"Year", "Title", "Team", "Team Website", "Affiliation",
		"Domain", "Venue", "Paper/ Source", "Code/Product",
	}
	if diff := cmp.Diff(want, Columns()); diff != "" {
		t.Errorf("Columns() mismatch (-want +got):\n%s", diff)
	}

	// Callers get a copy, not the schema's own slice.
	cols := Columns()
	cols[0] = "mutated"
	if Columns()[0] != "Year" {
		t.Error("Columns() exposed internal state")
	}
}

func TestStatLabel(t *testing.T) {
	if label, ok := StatLabel("foundation-models"); !ok || label != "Foundation Models" {
		t.Errorf("StatLabel(foundation-models) = %q, %v", label, ok)
	}
	if _, ok := StatLabel("not-a-category"); ok {
		t.Error("StatLabel accepted an unknown key")
	}
}

func TestIsKnownCategory(t *testing.T) {
	for _, key := range KnownCategories() {
		if !IsKnownCategory(key) {
			t.Errorf("IsKnownCategory(%q) = false for a known key", key)
		}
	}
	if IsKnownCategory("mystery") {
		t.Error("IsKnownCategory(mystery) = true")
	}
}
