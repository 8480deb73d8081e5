package html

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/awesomelab/awesync/internal/record"
	"github.com/awesomelab/awesync/internal/target"
)

// ===================
// Lenient decoding
// ===================

// The page is hand-edited JavaScript, not JSON, so the decoder accepts
// what a browser would: single- or double-quoted strings, unquoted
// identifier keys, trailing commas, and bare scalars. Scalars are
// stringified ("42", "true"); null decodes to the empty string since
// record fields are never null.

type scanner struct {
	src []byte
	pos int
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", target.ErrMalformedDataBlock, fmt.Sprintf(format, args...), s.pos)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

// value is one decoded JS value. kind is 's' (string or stringified
// scalar), 'o' (object), or 'a' (array).
type value struct {
	kind   byte
	str    string
	keys   []string
	fields map[string]value
	items  []value
}

func (s *scanner) parseValue() (value, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return value{}, s.errorf("unexpected end of literal")
	}
	switch c := s.src[s.pos]; {
	case c == '{':
		return s.parseObject()
	case c == '[':
		return s.parseArray()
	case c == '"' || c == '\'':
		str, err := s.parseString()
		return value{kind: 's', str: str}, err
	default:
		return s.parseScalar()
	}
}

func (s *scanner) parseObject() (value, error) {
	v := value{kind: 'o', fields: make(map[string]value)}
	s.pos++ // consume '{'
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return v, s.errorf("unterminated object")
		}
		if s.src[s.pos] == '}' {
			s.pos++
			return v, nil
		}
		key, err := s.parseKey()
		if err != nil {
			return v, err
		}
		s.skipSpace()
		if s.pos >= len(s.src) || s.src[s.pos] != ':' {
			return v, s.errorf("expected ':' after key %q", key)
		}
		s.pos++
		val, err := s.parseValue()
		if err != nil {
			return v, err
		}
		if _, dup := v.fields[key]; !dup {
			v.keys = append(v.keys, key)
		}
		v.fields[key] = val
		s.skipSpace()
		if s.pos < len(s.src) && s.src[s.pos] == ',' {
			s.pos++
		}
	}
}

func (s *scanner) parseArray() (value, error) {
	v := value{kind: 'a'}
	s.pos++ // consume '['
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			return v, s.errorf("unterminated array")
		}
		if s.src[s.pos] == ']' {
			s.pos++
			return v, nil
		}
		item, err := s.parseValue()
		if err != nil {
			return v, err
		}
		v.items = append(v.items, item)
		s.skipSpace()
		if s.pos < len(s.src) && s.src[s.pos] == ',' {
			s.pos++
		}
	}
}

// parseKey reads a quoted string or a bare identifier key.
func (s *scanner) parseKey() (string, error) {
	c := s.src[s.pos]
	if c == '"' || c == '\'' {
		return s.parseString()
	}
	start := s.pos
	for s.pos < len(s.src) && isIdentByte(s.src[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		return "", s.errorf("expected object key")
	}
	return string(s.src[start:s.pos]), nil
}

func isIdentByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '$' || c == '-'
}

func (s *scanner) parseString() (string, error) {
	quote := s.src[s.pos]
	s.pos++
	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == quote {
			s.pos++
			return b.String(), nil
		}
		if c != '\\' {
			b.WriteByte(c)
			s.pos++
			continue
		}
		s.pos++
		if s.pos >= len(s.src) {
			break
		}
		switch esc := s.src[s.pos]; esc {
		case 'n':
			b.WriteByte('\n')
			s.pos++
		case 'r':
			b.WriteByte('\r')
			s.pos++
		case 't':
			b.WriteByte('\t')
			s.pos++
		case 'u':
			r, err := s.unicodeEscape()
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
		default:
			// Covers \\ \" \' \/ and any other escaped character.
			b.WriteByte(esc)
			s.pos++
		}
	}
	return "", s.errorf("unterminated string")
}

// unicodeEscape decodes \uXXXX with s.pos on the 'u', combining
// surrogate pairs when the low half follows.
func (s *scanner) unicodeEscape() (rune, error) {
	if s.pos+5 > len(s.src) {
		return 0, s.errorf("truncated unicode escape")
	}
	n, err := strconv.ParseUint(string(s.src[s.pos+1:s.pos+5]), 16, 32)
	if err != nil {
		return 0, s.errorf("bad unicode escape")
	}
	s.pos += 5
	r := rune(n)
	if utf16.IsSurrogate(r) && s.pos+6 <= len(s.src) && s.src[s.pos] == '\\' && s.src[s.pos+1] == 'u' {
		if n2, err := strconv.ParseUint(string(s.src[s.pos+2:s.pos+6]), 16, 32); err == nil {
			if dec := utf16.DecodeRune(r, rune(n2)); dec != unicode.ReplacementChar {
				s.pos += 6
				return dec, nil
			}
		}
	}
	return r, nil
}

// parseScalar reads an unquoted token: a number, true/false, null, or
// any bare word up to the next delimiter.
func (s *scanner) parseScalar() (value, error) {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ',' || c == '}' || c == ']' || c == ':' || isSpace(c) {
			break
		}
		s.pos++
	}
	if s.pos == start {
		return value{}, s.errorf("unexpected character %q", string(s.src[start]))
	}
	tok := string(s.src[start:s.pos])
	if tok == "null" {
		return value{kind: 's'}, nil
	}
	return value{kind: 's', str: tok}, nil
}

// decodeLiteral decodes the {...} object literal into a snapshot,
// categories in literal order. The literal must be an object of
// category key to array of flat record objects; any other shape is
// ErrMalformedDataBlock. Unknown record fields are dropped, each
// distinct name reported once as a warning.
func decodeLiteral(literal []byte) (*record.Snapshot, []string, error) {
	s := &scanner{src: literal}
	s.skipSpace()
	if s.pos >= len(s.src) || s.src[s.pos] != '{' {
		return nil, nil, s.errorf("expected object literal")
	}
	top, err := s.parseObject()
	if err != nil {
		return nil, nil, err
	}

	snap := record.NewSnapshot()
	var warnings []string
	unknownFields := make(map[string]bool)
	for _, cat := range top.keys {
		arr := top.fields[cat]
		if arr.kind != 'a' {
			return nil, nil, fmt.Errorf("%w: category %q is not an array", target.ErrMalformedDataBlock, cat)
		}
		recs := make([]record.Record, 0, len(arr.items))
		for i, item := range arr.items {
			if item.kind != 'o' {
				return nil, nil, fmt.Errorf("%w: entry %d in category %q is not an object", target.ErrMalformedDataBlock, i, cat)
			}
			var rec record.Record
			for _, fk := range item.keys {
				fv := item.fields[fk]
				if fv.kind != 's' {
					return nil, nil, fmt.Errorf("%w: field %q of entry %d in category %q is not a string", target.ErrMalformedDataBlock, fk, i, cat)
				}
				if !rec.SetField(fk, fv.str) && !unknownFields[fk] {
					unknownFields[fk] = true
					warnings = append(warnings, fmt.Sprintf("unknown field %q in projectData ignored", fk))
				}
			}
			recs = append(recs, rec)
		}
		snap.Set(cat, recs)
	}
	return snap, warnings, nil
}

// ===================
// Deterministic rendering
// ===================

// renderLiteral renders the snapshot as the projectData object literal:
// 4-space indentation starting one level in (the closing brace sits at
// four spaces), double-quoted keys and values, all ten fields per
// record in schema order, categories in canonical order. Rendering the
// same snapshot twice is byte-identical.
func renderLiteral(snap *record.Snapshot) string {
	cats := snap.CanonicalCategories()
	if len(cats) == 0 {
		return "{}"
	}
	var b strings.Builder
	b.WriteString("{\n")
	for i, cat := range cats {
		b.WriteString("        ")
		b.WriteString(quoteJS(cat))
		b.WriteString(": ")
		b.WriteString(renderCategory(snap.Records(cat)))
		if i < len(cats)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("    }")
	return b.String()
}

func renderCategory(recs []record.Record) string {
	if len(recs) == 0 {
		return "[]"
	}
	fields := record.FieldOrder()
	var b strings.Builder
	b.WriteString("[\n")
	for i, r := range recs {
		b.WriteString("            {\n")
		for j, f := range fields {
			b.WriteString("                ")
			b.WriteString(quoteJS(f))
			b.WriteString(": ")
			b.WriteString(quoteJS(r.Field(f)))
			if j < len(fields)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString("            }")
		if i < len(recs)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("        ]")
	return b.String()
}

var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// quoteJS renders a double-quoted JS string. Non-ASCII text stays raw;
// the page is UTF-8.
func quoteJS(s string) string {
	return `"` + jsEscaper.Replace(s) + `"`
}
