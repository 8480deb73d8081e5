package syncer

import (
	"errors"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/safewrite"
	"github.com/awesomelab/awesync/internal/source"
	"github.com/awesomelab/awesync/internal/target"
)

// Classifiers mapping any error returned by a run to the error taxonomy.
// The CLI uses them to pick exit codes and phrasing; they work on wrapped
// errors via errors.Is and errors.As.

// IsValidationError reports whether err stems from a record that violates
// the schema (missing year or title, unknown shape).
func IsValidationError(err error) bool {
	var verr *record.ValidationError
	return errors.As(err, &verr)
}

// IsParseError reports whether err stems from an unreadable source file
// (malformed JSON or YAML, wrong top-level shape).
func IsParseError(err error) bool {
	var perr *source.ParseError
	return errors.As(err, &perr)
}

// IsTargetFormatError reports whether err stems from a target document
// that does not have the structure its codec expects, or from a format
// no codec is registered for.
func IsTargetFormatError(err error) bool {
	if err == nil {
		return false
	}
	return target.IsStructural(err) ||
		errors.Is(err, target.ErrUnknownFormat) ||
		errors.Is(err, target.ErrUnknownCategory)
}

// IsIOError reports whether err stems from the filesystem: a missing or
// unwritable target, or a failed backup.
func IsIOError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, safewrite.ErrTargetMissing) ||
		errors.Is(err, safewrite.ErrTargetNotWritable) ||
		errors.Is(err, safewrite.ErrBackupFailed)
}
