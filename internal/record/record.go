// Package record defines the canonical in-memory model shared by every
// part of the synchronization engine: the Record type for one
// project/paper entry, the fixed category schema (keys, display names,
// column lists), identity keys for cross-snapshot comparison, and the
// ordered Snapshot container.
//
// Records are plain string-valued structs. Normalization (whitespace
// trimming, stars-badge canonicalization) is explicit via Normalized so
// that parsed values keep their original form until a comparison needs
// the canonical one.
package record

import (
	"fmt"
	"strings"
)

// badgePrefix is the canonical GitHub stars badge base. Both stored
// representations (full URL or bare owner/repo path) normalize onto it.
const badgePrefix = "https://img.shields.io/github/stars/"

// Record is one project/paper entry. All fields are strings; only Year
// and Title are required. The JSON tags match the canonical source file
// keys exactly, including the space in "team website".
type Record struct {
	// ===== Required =====

	// Year the project/paper appeared, e.g. "2025" or "2025.07".
	Year string `json:"year" yaml:"year"`

	// Title of the project or paper.
	Title string `json:"title" yaml:"title"`

	// ===== Optional descriptive fields =====

	// Team that built the project.
	Team string `json:"team" yaml:"team"`

	// TeamWebsite is the team's homepage URL.
	TeamWebsite string `json:"team website" yaml:"team website"`

	// Affiliation of the team (university, company).
	Affiliation string `json:"affiliation" yaml:"affiliation"`

	// Domain is the application area, e.g. "Bioinformatics".
	Domain string `json:"domain" yaml:"domain"`

	// Venue is where the work was published.
	Venue string `json:"venue" yaml:"venue"`

	// ===== Links =====

	// PaperURL points at the paper or announcement.
	PaperURL string `json:"paperUrl" yaml:"paperUrl"`

	// CodeURL points at the repository or product page.
	CodeURL string `json:"codeUrl" yaml:"codeUrl"`

	// GitHubStars holds either a full shields.io badge URL or a bare
	// owner/repo path. Use StarsBadgeURL for the canonical form.
	GitHubStars string `json:"githubStars" yaml:"githubStars"`
}

// Key identifies a record when matching source entries against parsed
// target entries. Title is compared case-insensitively; both parts are
// whitespace-trimmed. No other identity is assigned to records.
type Key struct {
	Title string
	Year  string
}

// Key returns the record's identity key.
func (r Record) Key() Key {
	return Key{
		Title: strings.ToLower(strings.TrimSpace(r.Title)),
		Year:  strings.TrimSpace(r.Year),
	}
}

// ValidationError reports a record that fails required-field validation.
// Category and Index are filled in by loaders that know the record's
// position; Field names the missing field.
type ValidationError struct {
	Category string
	Index    int
	Field    string
}

func (e *ValidationError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("missing required field %q", e.Field)
	}
	return fmt.Sprintf("record %d in category %q: missing required field %q", e.Index, e.Category, e.Field)
}

// Validate checks that the required fields are present and non-blank.
// Returns a *ValidationError (without position context) on failure.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Year) == "" {
		return &ValidationError{Field: "year"}
	}
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	return nil
}

// StarsBadgeURL returns the canonical stars badge URL for the record,
// or "" when no badge applies.
//
// Resolution order:
//  1. GitHubStars as a full URL is used as-is.
//  2. GitHubStars as a bare owner/repo path is prefixed with the
//     shields.io badge base.
//  3. With GitHubStars empty, a badge is derived from a github.com
//     CodeURL using its first two path segments.
func (r Record) StarsBadgeURL() string {
	stars := strings.TrimSpace(r.GitHubStars)
	if stars != "" {
		if strings.HasPrefix(stars, "http://") || strings.HasPrefix(stars, "https://") {
			return stars
		}
		return badgePrefix + strings.Trim(stars, "/")
	}
	if repo := OwnerRepo(r.CodeURL); repo != "" {
		return badgePrefix + repo
	}
	return ""
}

// OwnerRepo extracts the "owner/repo" part of a github.com URL.
// Returns "" when the URL does not point at a repository.
func OwnerRepo(codeURL string) string {
	const host = "github.com/"
	idx := strings.Index(codeURL, host)
	if idx < 0 {
		return ""
	}
	path := strings.Trim(codeURL[idx+len(host):], "/")
	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	repo := parts[1]
	if i := strings.IndexAny(repo, "?#"); i >= 0 {
		repo = repo[:i]
	}
	if repo == "" {
		return ""
	}
	return parts[0] + "/" + repo
}

// Normalized returns a copy of the record with every field trimmed and
// the stars field replaced by its canonical badge URL. Snapshots are
// compared field-by-field in this form, so the two stored stars
// representations (and a derivable codeUrl) compare equal.
func (r Record) Normalized() Record {
	return Record{
		Year:        strings.TrimSpace(r.Year),
		Title:       strings.TrimSpace(r.Title),
		Team:        strings.TrimSpace(r.Team),
		TeamWebsite: strings.TrimSpace(r.TeamWebsite),
		Affiliation: strings.TrimSpace(r.Affiliation),
		Domain:      strings.TrimSpace(r.Domain),
		Venue:       strings.TrimSpace(r.Venue),
		PaperURL:    strings.TrimSpace(r.PaperURL),
		CodeURL:     strings.TrimSpace(r.CodeURL),
		GitHubStars: r.StarsBadgeURL(),
	}
}

// FieldOrder lists the canonical serialization order of record fields,
// matching the source file layout. Every renderer emits all ten fields
// in this order so regeneration is deterministic.
func FieldOrder() []string {
	return []string{
		"year", "title", "team", "team website", "affiliation",
		"domain", "venue", "paperUrl", "codeUrl", "githubStars",
	}
}

// Field returns the value of the field with the given canonical key.
// Unknown keys return "".
func (r Record) Field(key string) string {
	switch key {
	case "year":
		return r.Year
	case "title":
		return r.Title
	case "team":
		return r.Team
	case "team website":
		return r.TeamWebsite
	case "affiliation":
		return r.Affiliation
	case "domain":
		return r.Domain
	case "venue":
		return r.Venue
	case "paperUrl":
		return r.PaperURL
	case "codeUrl":
		return r.CodeURL
	case "githubStars":
		return r.GitHubStars
	}
	return ""
}

// SetField assigns the field with the given canonical key. Unknown keys
// are ignored and reported by the false return.
func (r *Record) SetField(key, value string) bool {
	switch key {
	case "year":
		r.Year = value
	case "title":
		r.Title = value
	case "team":
		r.Team = value
	case "team website":
		r.TeamWebsite = value
	case "affiliation":
		r.Affiliation = value
	case "domain":
		r.Domain = value
	case "venue":
		r.Venue = value
	case "paperUrl":
		r.PaperURL = value
	case "codeUrl":
		r.CodeURL = value
	case "githubStars":
		r.GitHubStars = value
	default:
		return false
	}
	return true
}
