package record

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSnapshotOrder(t *testing.T) {
	s := NewSnapshot()
	s.Append("reviews", Record{Year: "2024", Title: "Survey"})
	s.Append("ai-agents", Record{Year: "2025", Title: "AgentA"})
	s.Append("reviews", Record{Year: "2025", Title: "Survey2"})

	if got := s.Categories(); !cmp.Equal(got, []string{"reviews", "ai-agents"}) {
		t.Errorf("Categories() = %v, want insertion order", got)
	}
	recs := s.Records("reviews")
	if len(recs) != 2 || recs[0].Title != "Survey" || recs[1].Title != "Survey2" {
		t.Errorf("Records(reviews) = %+v, want append order preserved", recs)
	}
}

func TestSnapshotCanonicalCategories(t *testing.T) {
	s := NewSnapshot()
	s.Append("reviews", Record{Year: "2024", Title: "A"})
	s.Append("zz-custom", Record{Year: "2024", Title: "B"})
	s.Append("ai-agents", Record{Year: "2024", Title: "C"})
	s.Append("aa-custom", Record{Year: "2024", Title: "D"})

	want := []string{"ai-agents", "reviews", "zz-custom", "aa-custom"}
	if diff := cmp.Diff(want, s.CanonicalCategories()); diff != "" {
		t.Errorf("CanonicalCategories() mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotCounts(t *testing.T) {
	s := NewSnapshot()
	s.Append("ai-agents", Record{Year: "2025", Title: "A"}, Record{Year: "2025", Title: "B"})
	s.Append("ai-tools", Record{Year: "2025", Title: "C"})
	s.Set("benchmarks", nil)

	if got := s.Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
	if got := s.Count("ai-agents"); got != 2 {
		t.Errorf("Count(ai-agents) = %d, want 2", got)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if !s.Has("benchmarks") {
		t.Error("Has(benchmarks) = false for an empty category")
	}
	if s.Has("reviews") {
		t.Error("Has(reviews) = true for an absent category")
	}
}

func TestSnapshotClone(t *testing.T) {
	s := NewSnapshot()
	s.Append("ai-agents", Record{Year: "2025", Title: "A"})

	c := s.Clone()
	c.Append("ai-agents", Record{Year: "2025", Title: "B"})
	c.Append("reviews", Record{Year: "2025", Title: "R"})

	if s.Count("ai-agents") != 1 {
		t.Errorf("clone mutation leaked into original: %d records", s.Count("ai-agents"))
	}
	if s.Has("reviews") {
		t.Error("clone category leaked into original")
	}
}
