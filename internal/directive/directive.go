// Package directive provides the unit of work carried through the pipeline:
// an opaque text payload plus the ordered tags applied to it by pipeline
// stages.
//
// A Directive is a value. Tagging never mutates the receiver; WithTag returns
// a new Directive with one more tag, so a copy handed out to a caller can not
// be changed behind its back by a later run.
package directive

import "strings"

// Directive is a tagged text payload.
type Directive struct {
	text string
	tags []string
}

// New creates a Directive with no tags. Any text, including the empty
// string, is valid.
func New(text string) Directive {
	return Directive{text: text}
}

// Text returns the original, untagged payload.
func (d Directive) Text() string {
	return d.text
}

// Tags returns a copy of the applied tags in the order they were applied.
func (d Directive) Tags() []string {
	if len(d.tags) == 0 {
		return nil
	}
	out := make([]string, len(d.tags))
	copy(out, d.tags)
	return out
}

// HasTag reports whether tag has been applied at least once.
func (d Directive) HasTag(tag string) bool {
	for _, t := range d.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CountTag returns how many times tag has been applied.
func (d Directive) CountTag(tag string) int {
	n := 0
	for _, t := range d.tags {
		if t == tag {
			n++
		}
	}
	return n
}

// WithTag returns a new Directive with tag appended. The receiver is left
// untouched.
func (d Directive) WithTag(tag string) Directive {
	tags := make([]string, len(d.tags), len(d.tags)+1)
	copy(tags, d.tags)
	return Directive{text: d.text, tags: append(tags, tag)}
}

// Contains reports whether the untagged text contains marker.
func (d Directive) Contains(marker string) bool {
	return strings.Contains(d.text, marker)
}

// String renders the text followed by every tag, each separated by a single
// space.
func (d Directive) String() string {
	var b strings.Builder
	b.WriteString(d.text)
	for _, t := range d.tags {
		b.WriteByte(' ')
		b.WriteString(t)
	}
	return b.String()
}
