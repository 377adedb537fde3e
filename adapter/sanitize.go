package adapter

import "strings"

// Reflective feedback is fed back into a moderated model; certain literal
// terms in judge feedback ("error", "alucinacion") are known to trip Azure
// content filters, so they are rewritten before the text leaves the adapter.

// maxSanitizedLen caps sanitized text so long feedback cannot smuggle a
// flagged pattern past the substitution table.
const maxSanitizedLen = 500

// Substitution is one ordered rewrite rule.
type Substitution struct {
	Old string
	New string
}

// Sanitizer rewrites reflection-bound text through an ordered substitution
// table and truncates the result.
type Sanitizer struct {
	subs   []Substitution
	maxLen int
}

// DefaultSanitizer returns the substitution table used for judge feedback.
// Order matters: "ERROR:" must be rewritten before the bare "error" rule.
func DefaultSanitizer() *Sanitizer {
	return NewSanitizer([]Substitution{
		{Old: "ERROR:", New: "Caso incorrecto:"},
		{Old: "alucinacion", New: "informacion no verificable"},
		{Old: "incorrecta", New: "no optima"},
		{Old: "error", New: "problema"},
	}, maxSanitizedLen)
}

// NewSanitizer builds a sanitizer with a custom table. maxLen <= 0 disables
// truncation.
func NewSanitizer(subs []Substitution, maxLen int) *Sanitizer {
	return &Sanitizer{subs: append([]Substitution(nil), subs...), maxLen: maxLen}
}

// Clean applies the substitutions in order and truncates long results,
// keeping room for the ellipsis marker. Length is counted in runes so the
// cut never splits a multibyte character.
func (s *Sanitizer) Clean(text string) string {
	if text == "" {
		return text
	}
	out := text
	for _, sub := range s.subs {
		out = strings.ReplaceAll(out, sub.Old, sub.New)
	}
	if s.maxLen > 0 {
		if runes := []rune(out); len(runes) > s.maxLen {
			cut := s.maxLen - 3
			if cut < 0 {
				cut = 0
			}
			out = string(runes[:cut]) + "..."
		}
	}
	return out
}
