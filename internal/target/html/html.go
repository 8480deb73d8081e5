package html

import (
	"fmt"
	"regexp"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target"
)

// Codec reads and regenerates the HTML page's projectData block and
// statistics fragments.
type Codec struct{}

// New creates an HTML codec.
func New() target.Codec {
	return &Codec{}
}

// Format returns target.FormatHTML.
func (c *Codec) Format() target.Format {
	return target.FormatHTML
}

// anchorRe finds the projectData assignment. The declaration is the
// single anchor the codec relies on; everything else is located
// relative to it or by fragment pattern.
var anchorRe = regexp.MustCompile(`const\s+projectData\s*=`)

// dataBlock is the located object literal. objStart/objEnd delimit the
// balanced {...}; regionEnd extends past an immediately following
// semicolon, which the codec owns and re-emits.
type dataBlock struct {
	objStart  int
	objEnd    int
	regionEnd int
}

// findDataBlock locates the projectData object literal.
func findDataBlock(doc []byte) (dataBlock, error) {
	loc := anchorRe.FindIndex(doc)
	if loc == nil {
		return dataBlock{}, target.ErrAnchorNotFound
	}
	i := loc[1]
	for i < len(doc) && isSpace(doc[i]) {
		i++
	}
	if i >= len(doc) || doc[i] != '{' {
		return dataBlock{}, fmt.Errorf("%w: no object literal after anchor", target.ErrMalformedDataBlock)
	}
	end, err := scanBalanced(doc, i)
	if err != nil {
		return dataBlock{}, err
	}
	blk := dataBlock{objStart: i, objEnd: end, regionEnd: end}
	if end < len(doc) && doc[end] == ';' {
		blk.regionEnd = end + 1
	}
	return blk, nil
}

// scanBalanced walks from the opening brace at start to its matching
// close, skipping string contents in either quote style, and returns
// the index just past the closing brace.
func scanBalanced(doc []byte, start int) (int, error) {
	depth := 0
	i := start
	for i < len(doc) {
		switch c := doc[i]; c {
		case '"', '\'':
			quote := c
			i++
			for i < len(doc) && doc[i] != quote {
				if doc[i] == '\\' {
					i++
				}
				i++
			}
			if i >= len(doc) {
				return 0, fmt.Errorf("%w: unterminated string in literal", target.ErrMalformedDataBlock)
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
		i++
	}
	return 0, fmt.Errorf("%w: unbalanced braces", target.ErrMalformedDataBlock)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Locate returns the byte range of the projectData literal (including
// its trailing semicolon when present). The statistics fragments are
// pattern-addressed, not region-addressed, so they do not appear here.
func (c *Codec) Locate(doc []byte) ([]target.Region, error) {
	blk, err := findDataBlock(doc)
	if err != nil {
		return nil, err
	}
	return []target.Region{{Start: blk.objStart, End: blk.regionEnd, Label: "projectData"}}, nil
}

// Parse decodes the projectData literal into a snapshot, categories in
// literal order. Unknown record fields are dropped with a warning.
func (c *Codec) Parse(doc []byte) (*record.Snapshot, []string, error) {
	blk, err := findDataBlock(doc)
	if err != nil {
		return nil, nil, err
	}
	return decodeLiteral(doc[blk.objStart:blk.objEnd])
}

// Apply regenerates the projectData literal from snap, splices it over
// the owned byte range, and rewrites every statistics fragment from the
// snapshot's counts. Bytes outside the literal and the fragments are
// preserved exactly.
func (c *Codec) Apply(doc []byte, snap *record.Snapshot) ([]byte, []string, error) {
	blk, err := findDataBlock(doc)
	if err != nil {
		return nil, nil, err
	}
	out := string(doc[:blk.objStart]) + renderLiteral(snap) + ";" + string(doc[blk.regionEnd:])
	out, warnings := updateStats(out, snap)
	return []byte(out), warnings, nil
}
