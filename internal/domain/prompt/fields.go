// Package prompt provides the structured prompt fields and their composition
// into a single natural-language prompt.
package prompt

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrEmptyFields is returned when every field is empty.
var ErrEmptyFields = errors.New("at least one field is required")

// clauseSeparator joins the composed clauses.
const clauseSeparator = ". "

// Fields represents the structured prompt input.
type Fields struct {
	Genre       string   // e.g. "jazz", "lofi"
	Mood        string   // e.g. "dreamy", "calm"
	Instruments []string // One entry per instrument slot; empty slots are ignored
	Lyrics      string   // Optional lyrics
	Other       string   // Other details (e.g. a title)
}

// NewFields returns fields with a single empty instrument slot.
func NewFields() Fields {
	return Fields{Instruments: []string{""}}
}

// WithInstrument returns a copy with the instrument at index i set to v.
// Indexes past the end grow the slot list.
func (f Fields) WithInstrument(i int, v string) Fields {
	if i < 0 {
		return f
	}
	n := len(f.Instruments)
	if i >= n {
		n = i + 1
	}
	instruments := make([]string, n)
	copy(instruments, f.Instruments)
	instruments[i] = v
	f.Instruments = instruments
	return f
}

// WithNewInstrument returns a copy with an additional empty instrument slot.
func (f Fields) WithNewInstrument() Fields {
	instruments := make([]string, len(f.Instruments), len(f.Instruments)+1)
	copy(instruments, f.Instruments)
	f.Instruments = append(instruments, "")
	return f
}

// FilledInstruments returns the non-empty instrument entries in order.
func (f Fields) FilledInstruments() []string {
	out := make([]string, 0, len(f.Instruments))
	for _, inst := range f.Instruments {
		if v := strings.TrimSpace(inst); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Clauses returns the labeled clauses for the non-empty fields in the fixed
// order genre, mood, instruments, lyrics, other.
func (f Fields) Clauses() []string {
	var clauses []string
	if v := strings.TrimSpace(f.Genre); v != "" {
		clauses = append(clauses, "Genre: "+v)
	}
	if v := strings.TrimSpace(f.Mood); v != "" {
		clauses = append(clauses, "Mood: "+v)
	}
	if insts := f.FilledInstruments(); len(insts) > 0 {
		clauses = append(clauses, "Instruments: "+strings.Join(insts, ", "))
	}
	if v := strings.TrimSpace(f.Lyrics); v != "" {
		clauses = append(clauses, "Lyrics: "+v)
	}
	if v := strings.TrimSpace(f.Other); v != "" {
		clauses = append(clauses, "Other details: "+v)
	}
	return clauses
}

// IsEmpty reports whether no clause would be produced.
func (f Fields) IsEmpty() bool {
	return len(f.Clauses()) == 0
}

// Compose builds the prompt from the structured fields.
func Compose(f Fields) (string, error) {
	clauses := f.Clauses()
	if len(clauses) == 0 {
		return "", ErrEmptyFields
	}
	return strings.Join(clauses, clauseSeparator), nil
}
