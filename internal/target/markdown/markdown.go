package markdown

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target"
)

// Codec reads and regenerates Markdown category tables.
type Codec struct{}

// New creates a Markdown codec.
func New() target.Codec {
	return &Codec{}
}

// Format returns target.FormatMarkdown.
func (c *Codec) Format() target.Format {
	return target.FormatMarkdown
}

// section is one "## " heading block with its resolved category key and
// the byte range of its body (after the heading line, through the start
// of the next heading or EOF).
type section struct {
	heading   string
	category  string
	bodyStart int
	bodyEnd   int
}

// table is the first maximal run of pipe lines inside a section body,
// as a byte range excluding the final line terminator.
type table struct {
	start, end int
	lines      []string
}

// Locate returns the byte range of each known category's table, in
// document order. Returns target.ErrNoTable when the document has no
// recognizable data table at all.
func (c *Codec) Locate(doc []byte) ([]target.Region, error) {
	var regions []target.Region
	for _, sec := range scanSections(doc) {
		if !record.IsKnownCategory(sec.category) {
			continue
		}
		tbl, ok := findTable(doc, sec)
		if !ok {
			continue
		}
		regions = append(regions, target.Region{Start: tbl.start, End: tbl.end, Label: sec.category})
	}
	if len(regions) == 0 {
		return nil, target.ErrNoTable
	}
	return regions, nil
}

// Parse extracts the records the document's category tables currently
// show. Sections whose headings do not map to a known category are not
// data sections and are skipped. The first section per category wins;
// later duplicates are reported as warnings.
func (c *Codec) Parse(doc []byte) (*record.Snapshot, []string, error) {
	snap := record.NewSnapshot()
	var warnings []string
	for _, sec := range scanSections(doc) {
		if !record.IsKnownCategory(sec.category) {
			continue
		}
		if snap.Has(sec.category) {
			warnings = append(warnings, fmt.Sprintf("duplicate section %q for category %q ignored", sec.heading, sec.category))
			continue
		}
		tbl, ok := findTable(doc, sec)
		if !ok {
			continue
		}
		recs, w := parseTable(tbl, sec.category)
		warnings = append(warnings, w...)
		snap.Set(sec.category, recs)
	}
	return snap, warnings, nil
}

// Apply regenerates every category table from snap, splicing each over
// the byte range of the table it replaces. Categories without a section
// are appended at document end; unknown category keys are skipped. Both
// conditions surface as warnings.
func (c *Codec) Apply(doc []byte, snap *record.Snapshot) ([]byte, []string, error) {
	sections := scanSections(doc)
	var warnings []string

	type edit struct {
		start, end int
		text       string
	}
	var edits []edit
	var appends []string

	for _, cat := range snap.CanonicalCategories() {
		if !record.IsKnownCategory(cat) {
			warnings = append(warnings, fmt.Sprintf("category %q has no markdown section mapping; skipped", cat))
			continue
		}
		recs := snap.Records(cat)
		if len(recs) == 0 {
			continue
		}
		rendered := renderTable(recs)

		sec, found := findSection(sections, cat)
		if !found {
			appends = append(appends, "## "+record.DisplayName(cat)+"\n\n"+rendered+"\n")
			warnings = append(warnings, fmt.Sprintf("section for category %q not found; appended at end of document", cat))
			continue
		}
		tbl, ok := findTable(doc, sec)
		if !ok {
			// Insert after the section's existing content.
			insertion := "\n" + rendered + "\n"
			if sec.bodyEnd > sec.bodyStart && doc[sec.bodyEnd-1] != '\n' {
				insertion = "\n" + insertion
			}
			edits = append(edits, edit{start: sec.bodyEnd, end: sec.bodyEnd, text: insertion})
			warnings = append(warnings, fmt.Sprintf("section %q had no table; inserted one", sec.heading))
			continue
		}
		edits = append(edits, edit{start: tbl.start, end: tbl.end, text: rendered})
	}

	// Splice back to front so earlier offsets stay valid. Edits never
	// overlap: table ranges are disjoint and insertions sit at distinct
	// section boundaries.
	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := string(doc)
	for _, e := range edits {
		out = out[:e.start] + e.text + out[e.end:]
	}
	if len(appends) > 0 {
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += "\n" + strings.Join(appends, "\n")
	}
	return []byte(out), warnings, nil
}

// ===================
// Document scanning
// ===================

// scanSections splits the document into "## " sections. A section body
// runs to the next "## " or "# " heading line or EOF. Heading text maps
// to a category key by keyword; non-data headings map to keys outside
// the known set and are filtered by the callers.
func scanSections(doc []byte) []section {
	text := string(doc)
	var secs []section
	cur := -1 // index into secs of the open section
	pos := 0
	for pos < len(text) {
		contentEnd := len(text)
		next := len(text)
		if i := strings.IndexByte(text[pos:], '\n'); i >= 0 {
			contentEnd = pos + i
			next = contentEnd + 1
		}
		line := text[pos:contentEnd]

		isH2 := strings.HasPrefix(line, "## ")
		isH1 := strings.HasPrefix(line, "# ")
		if (isH2 || isH1) && cur >= 0 {
			secs[cur].bodyEnd = pos
			cur = -1
		}
		if isH2 {
			heading := strings.TrimSpace(line[3:])
			secs = append(secs, section{
				heading:   heading,
				category:  record.CategoryForHeading(heading),
				bodyStart: next,
				bodyEnd:   len(text),
			})
			cur = len(secs) - 1
		}
		pos = next
	}
	return secs
}

func findSection(secs []section, category string) (section, bool) {
	for _, s := range secs {
		if s.category == category {
			return s, true
		}
	}
	return section{}, false
}

// findTable locates the first maximal run of lines starting with "|"
// inside the section body. A run shorter than three lines (header,
// separator, data) or without a separator row is not a table.
func findTable(doc []byte, sec section) (table, bool) {
	body := string(doc[sec.bodyStart:sec.bodyEnd])
	pos := 0
	for pos < len(body) {
		lineEnd := strings.IndexByte(body[pos:], '\n')
		contentEnd := len(body)
		next := len(body)
		if lineEnd >= 0 {
			contentEnd = pos + lineEnd
			next = contentEnd + 1
		}
		line := body[pos:contentEnd]
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			// Extend the run.
			runStart := pos
			runEnd := contentEnd
			var lines []string
			lines = append(lines, line)
			pos = next
			for pos < len(body) {
				le := strings.IndexByte(body[pos:], '\n')
				ce := len(body)
				nx := len(body)
				if le >= 0 {
					ce = pos + le
					nx = ce + 1
				}
				l := body[pos:ce]
				if !strings.HasPrefix(strings.TrimSpace(l), "|") {
					break
				}
				lines = append(lines, l)
				runEnd = ce
				pos = nx
			}
			if len(lines) >= 3 && isSeparatorRow(lines[1]) {
				return table{
					start: sec.bodyStart + runStart,
					end:   sec.bodyStart + runEnd,
					lines: lines,
				}, true
			}
			// Not a data table; keep scanning after the run.
			continue
		}
		pos = next
	}
	return table{}, false
}

// isSeparatorRow reports whether a table line is the header separator:
// every cell made of dashes, colons, and spaces with at least one dash.
func isSeparatorRow(line string) bool {
	cells := splitCells(line)
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		if !strings.Contains(cell, "-") {
			return false
		}
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}
	return true
}

// ===================
// Table parsing
// ===================

var (
	linkRe  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	imageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)]*)\)`)
	boldRe  = regexp.MustCompile(`\*\*(.+?)\*\*`)
)

// parseTable decodes the data rows of a table into records. Rows with
// fewer cells than the header are skipped with a warning.
func parseTable(tbl table, category string) ([]record.Record, []string) {
	columns := splitCells(tbl.lines[0])
	var warnings []string
	recs := make([]record.Record, 0, len(tbl.lines)-2)
	for i, line := range tbl.lines[2:] {
		cells := splitCells(line)
		if len(cells) < len(columns) {
			warnings = append(warnings, fmt.Sprintf("category %q row %d has %d cells, want %d; skipped", category, i+1, len(cells), len(columns)))
			continue
		}
		var rec record.Record
		for j, col := range columns {
			applyCell(&rec, col, cells[j])
		}
		recs = append(recs, rec)
	}
	return recs, warnings
}

// applyCell decodes one cell into the record field its column names.
func applyCell(rec *record.Record, column, cell string) {
	switch canonicalColumn(column) {
	case "year":
		rec.Year = unescapeCell(cell)
	case "title":
		title, paperURL := parseTitleCell(cell)
		rec.Title = title
		if paperURL != "" {
			rec.PaperURL = paperURL
		}
	case "team":
		rec.Team = unescapeCell(cell)
	case "teamwebsite":
		rec.TeamWebsite = firstLinkURL(cell)
	case "affiliation":
		rec.Affiliation = unescapeCell(cell)
	case "domain":
		rec.Domain = unescapeCell(cell)
	case "venue":
		rec.Venue = unescapeCell(cell)
	case "paper/source":
		if url := firstLinkURL(cell); url != "" {
			rec.PaperURL = url
		}
	case "code/product":
		codeURL, stars := parseCodeCell(cell)
		rec.CodeURL = codeURL
		rec.GitHubStars = stars
	}
}

// canonicalColumn normalizes a header cell for matching: lowercased
// with all spaces removed, so "Paper/ Source" and "Paper / Source"
// compare equal.
func canonicalColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}

// parseTitleCell extracts the title text and, when the title is
// rendered as a link, the paper URL. Precedence: bold span inside a
// link, bold span, link text, plain text.
func parseTitleCell(cell string) (title, paperURL string) {
	if m := linkRe.FindStringSubmatch(cell); m != nil {
		text, url := m[1], m[2]
		if b := boldRe.FindStringSubmatch(text); b != nil {
			return unescapeCell(b[1]), url
		}
		return unescapeCell(strings.TrimSpace(text)), url
	}
	if b := boldRe.FindStringSubmatch(cell); b != nil {
		return unescapeCell(b[1]), ""
	}
	return unescapeCell(strings.TrimSpace(cell)), ""
}

// firstLinkURL returns the URL of the first [text](url) link in the
// cell, or "" when the cell holds no link.
func firstLinkURL(cell string) string {
	if m := linkRe.FindStringSubmatch(cell); m != nil {
		return m[2]
	}
	return ""
}

// parseCodeCell extracts the code URL and the stars badge URL. The
// badge image is removed before link matching so the image's bracket
// syntax cannot shadow the link.
func parseCodeCell(cell string) (codeURL, stars string) {
	if m := imageRe.FindStringSubmatch(cell); m != nil {
		stars = m[2]
		cell = strings.Replace(cell, m[0], "", 1)
	}
	if m := linkRe.FindStringSubmatch(cell); m != nil {
		codeURL = m[2]
	}
	return codeURL, stars
}

// splitCells splits a table line into trimmed cell strings, honoring
// backslash-escaped pipes. The leading pipe and everything after the
// final pipe are dropped, matching how rows are rendered.
func splitCells(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	var cells []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			cur.WriteByte('\\')
			cur.WriteRune(r)
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	if tail := strings.TrimSpace(cur.String()); tail != "" {
		cells = append(cells, tail)
	}
	return cells
}

// unescapeCell reverses cell escaping: "\|" back to "|".
func unescapeCell(s string) string {
	return strings.ReplaceAll(s, `\|`, "|")
}

// ===================
// Table rendering
// ===================

// renderTable renders the header, separator, and one row per record,
// newline-joined without a trailing newline.
func renderTable(recs []record.Record) string {
	cols := record.Columns()
	var b strings.Builder
	b.WriteString("| " + strings.Join(cols, " | ") + " |\n")
	sep := make([]string, len(cols))
	for i, col := range cols {
		sep[i] = " " + strings.Repeat("-", len(col)+1)
	}
	b.WriteString("|" + strings.Join(sep, "|") + "|")
	for _, r := range recs {
		b.WriteString("\n")
		b.WriteString(renderRow(r, cols))
	}
	return b.String()
}

func renderRow(r record.Record, cols []string) string {
	cells := make([]string, len(cols))
	for i, col := range cols {
		cells[i] = renderCell(r, col)
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

func renderCell(r record.Record, column string) string {
	switch canonicalColumn(column) {
	case "year":
		return escapeCell(r.Year)
	case "title":
		title := escapeCell(r.Title)
		if title == "" {
			return ""
		}
		bold := "**" + title + "**"
		if url := strings.TrimSpace(r.PaperURL); url != "" {
			return "[" + bold + "](" + url + ")"
		}
		return bold
	case "team":
		return escapeCell(r.Team)
	case "teamwebsite":
		if url := strings.TrimSpace(r.TeamWebsite); url != "" {
			return "[Link](" + url + ")"
		}
		return ""
	case "affiliation":
		return escapeCell(r.Affiliation)
	case "domain":
		return escapeCell(r.Domain)
	case "venue":
		return escapeCell(r.Venue)
	case "paper/source":
		if url := strings.TrimSpace(r.PaperURL); url != "" {
			return "[Link](" + url + ")"
		}
		return ""
	case "code/product":
		url := strings.TrimSpace(r.CodeURL)
		if url == "" {
			return ""
		}
		cell := "[Link](" + url + ")"
		if badge := r.StarsBadgeURL(); badge != "" {
			cell += " ![GitHub Stars](" + badge + ")"
		}
		return cell
	}
	return ""
}

// escapeCell makes a value safe inside a table cell: pipes escaped,
// newlines flattened to spaces, runs of whitespace collapsed.
func escapeCell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.ReplaceAll(s, "|", `\|`)
}
