// Package textchunk splits long text into request-sized pieces along
// sentence boundaries.
package textchunk

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkSize is the per-request character budget used when the
// caller has no better value.
const DefaultMaxChunkSize = 4000

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Sentences splits text into sentence-like units. A unit is a run of
// non-terminator characters followed by one or more of '.', '!' or '?'.
// Trailing unterminated text forms the last unit. Joining the units
// reproduces text exactly; leading terminators stay with the first unit.
func Sentences(text string) []string {
	var units []string
	start := 0
	hasBody := false
	inTerminators := false
	for i, r := range text {
		if isTerminator(r) {
			inTerminators = hasBody
			continue
		}
		if inTerminators {
			units = append(units, text[start:i])
			start = i
			inTerminators = false
		}
		hasBody = true
	}
	if start < len(text) {
		units = append(units, text[start:])
	}
	return units
}

// Split packs sentences greedily into chunks. A chunk is flushed when
// adding the next sentence would make it reach or exceed maxChunkSize
// characters. A sentence longer than the budget is never cut and becomes a
// chunk of its own. Empty text yields a single empty chunk, and a
// non-positive budget yields the whole text as one chunk.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0
	for _, s := range Sentences(text) {
		n := utf8.RuneCountInString(s)
		if currentLen+n < maxChunkSize {
			current.WriteString(s)
			currentLen += n
			continue
		}
		if currentLen > 0 {
			chunks = append(chunks, current.String())
		}
		current.Reset()
		current.WriteString(s)
		currentLen = n
	}
	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
