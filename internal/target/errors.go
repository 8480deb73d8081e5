package target

import "errors"

// Common errors returned by codec operations.
//
// These errors can be checked with errors.Is() for proper handling:
//
//	if errors.Is(err, target.ErrAnchorNotFound) {
//	    // The HTML page has no projectData block to update
//	}
var (
	// ErrUnknownFormat is returned when a path or format string does
	// not correspond to a registered codec.
	ErrUnknownFormat = errors.New("unknown target format")

	// ErrAnchorNotFound is returned when the HTML document contains no
	// "const projectData =" declaration. Without the anchor there is
	// nothing to regenerate, so the run must stop before writing.
	ErrAnchorNotFound = errors.New("projectData anchor not found")

	// ErrMalformedDataBlock is returned when the projectData object
	// literal cannot be decoded: unbalanced braces, an unterminated
	// string, or a shape other than category -> list of records.
	ErrMalformedDataBlock = errors.New("malformed projectData block")

	// ErrNoTable is returned when a Markdown section exists but holds
	// no recognizable table (header, separator, and at least one data
	// row).
	ErrNoTable = errors.New("no table found in section")

	// ErrSectionNotFound is returned when a Markdown document has no
	// section heading for a requested category.
	ErrSectionNotFound = errors.New("section not found")

	// ErrUnknownCategory is returned when an operation names a
	// category key outside the known schema and cannot proceed
	// without one.
	ErrUnknownCategory = errors.New("unknown category")
)

// IsStructural returns true if the error means the document does not
// have the structure the codec expects (as opposed to an I/O failure
// or a validation problem in the data itself). Structural errors are
// not retryable; the document needs fixing by hand.
func IsStructural(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAnchorNotFound) ||
		errors.Is(err, ErrMalformedDataBlock) ||
		errors.Is(err, ErrNoTable) ||
		errors.Is(err, ErrSectionNotFound)
}
