package story

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Heading is one markdown ATX heading line.
type Heading struct {
	Level int
	Label string
	Line  int
}

type headingKey struct {
	level int
	label string
}

// Document is a tokenized story record. Headings are recognised only at the
// start of a line, so a label mentioned in prose never satisfies a lookup.
type Document struct {
	lines    []string
	headings []Heading
	first    map[headingKey]int
}

// LookupStatus distinguishes a missing labelled section from one whose
// value is blank.
type LookupStatus int

const (
	NotFound LookupStatus = iota
	FoundEmpty
	Found
)

func (s LookupStatus) String() string {
	switch s {
	case Found:
		return "found"
	case FoundEmpty:
		return "found-empty"
	default:
		return "not-found"
	}
}

// Lookup is the outcome of LabelledValue. Value is set only for Found.
type Lookup struct {
	Status LookupStatus
	Value  string
}

// Parse tokenizes text into lines and indexes its headings.
func Parse(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	doc := &Document{first: map[headingKey]int{}}
	if text != "" {
		doc.lines = strings.Split(text, "\n")
	}
	for idx, line := range doc.lines {
		level, label, ok := parseHeading(line)
		if !ok {
			continue
		}
		doc.headings = append(doc.headings, Heading{Level: level, Label: label, Line: idx})
		key := headingKey{level: level, label: label}
		if _, seen := doc.first[key]; !seen {
			doc.first[key] = len(doc.headings) - 1
		}
	}
	return doc
}

// HasSection reports whether a heading of exactly level starts with label
// as a whole word. "## File List (final)" satisfies label "File List";
// "## File Listing" does not.
func (d *Document) HasSection(level int, label string) bool {
	for _, h := range d.headings {
		if h.Level == level && labelMatches(h.Label, label) {
			return true
		}
	}
	return false
}

// HasAnySection reports whether label appears as a heading at any of levels.
func (d *Document) HasAnySection(levels []int, label string) bool {
	for _, level := range levels {
		if d.HasSection(level, label) {
			return true
		}
	}
	return false
}

// LabelledValue returns the first non-blank line under the heading whose
// label equals label exactly. A heading directly followed by another
// heading or the end of the document is NotFound; one followed only by
// blank lines is FoundEmpty.
func (d *Document) LabelledValue(level int, label string) Lookup {
	pos, ok := d.first[headingKey{level: level, label: label}]
	if !ok {
		return Lookup{Status: NotFound}
	}
	blanks := 0
	for idx := d.headings[pos].Line + 1; idx < len(d.lines); idx++ {
		line := d.lines[idx]
		if _, _, heading := parseHeading(line); heading {
			break
		}
		value := strings.TrimSpace(line)
		if value == "" {
			blanks++
			continue
		}
		return Lookup{Status: Found, Value: value}
	}
	if blanks > 0 {
		return Lookup{Status: FoundEmpty}
	}
	return Lookup{Status: NotFound}
}

// parseHeading accepts a run of '#' at column zero followed by whitespace.
func parseHeading(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level == len(line) {
		return 0, "", false
	}
	if line[level] != ' ' && line[level] != '\t' {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

func labelMatches(heading, label string) bool {
	if !strings.HasPrefix(heading, label) {
		return false
	}
	rest := heading[len(label):]
	if rest == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest)
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
