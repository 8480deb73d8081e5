// Package target provides a unified interface for reading and
// regenerating the derived documents that mirror the canonical source:
// the Markdown page of category tables and the HTML page embedding a
// projectData object plus statistics fragments.
//
// The design follows a strategy pattern with registered codecs, one per
// document format. Each codec knows three things about its format: how
// to locate the generated regions inside a hand-maintained document,
// how to parse records back out of those regions, and how to splice
// freshly rendered regions into the document without touching any other
// byte.
//
// # Architecture
//
// The Codec interface defines the operations the sync engine needs:
//   - Locate: find the byte regions the codec owns
//   - Parse: extract the records a document currently shows
//   - Apply: regenerate the owned regions from a snapshot
//
// # Usage
//
//	format, err := target.DetectFormat("README.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	codec, err := target.New(format)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	parsed, warnings, err := codec.Parse(doc)
//
// # Implementations
//
//   - internal/target/markdown: category tables under "## " headings
//   - internal/target/html: const projectData block and statistics
package target

import "github.com/awesomelab/awesync/internal/record"

// Format identifies a target document format.
type Format string

const (
	// FormatMarkdown is the README-style document of category tables.
	FormatMarkdown Format = "markdown"

	// FormatHTML is the web page with the embedded projectData object.
	FormatHTML Format = "html"
)

// String returns the string representation of the format.
func (f Format) String() string {
	return string(f)
}

// Region is a half-open byte range [Start, End) of a document that a
// codec owns and will regenerate. Label names the region for warnings
// and debugging ("ai-agents" for a Markdown table, "projectData" for
// the HTML data block).
type Region struct {
	Start int
	End   int
	Label string
}

// Codec reads and regenerates one target document format.
// Implementations exist for Markdown (internal/target/markdown) and
// HTML (internal/target/html).
//
// All three methods treat the document as bytes and never modify the
// input slice. Warnings report recoverable irregularities (an unknown
// category, a missing statistics fragment) that must surface to the
// user without failing the run.
type Codec interface {
	// Format returns the document format this codec handles.
	Format() Format

	// Locate returns the byte regions of doc that the codec owns, in
	// document order. A document with no recognizable regions returns
	// an error (ErrAnchorNotFound for HTML, ErrNoTable for Markdown).
	Locate(doc []byte) ([]Region, error)

	// Parse extracts the records doc currently shows, keyed and
	// ordered as they appear. The returned warnings list recoverable
	// irregularities encountered while reading.
	Parse(doc []byte) (*record.Snapshot, []string, error)

	// Apply regenerates the owned regions of doc from snap and returns
	// the new document. Bytes outside the owned regions are preserved
	// exactly. Apply with the same snapshot is idempotent: applying
	// twice yields the same bytes as applying once.
	Apply(doc []byte, snap *record.Snapshot) ([]byte, []string, error)
}
