// Package lyrics handles LilyPond-tokenized lyric lines: the "--" join
// marker attaches the next syllable to the current word, the "__"
// melisma marker holds a syllable over additional notes.
package lyrics

import (
	"strings"

	"github.com/physikerchor/choirdeck/core/errors"
)

const (
	// JoinMarker attaches the following syllable to the current word.
	JoinMarker = "--"
	// MelismaMarker extends the current syllable over another note.
	MelismaMarker = "__"
)

// Normalize forms normal words from a tokenized lyric line. Melisma
// markers vanish, joined syllables fuse. Idempotent on input that
// carries no markers.
func Normalize(raw string) string {
	var words []string
	joinNext := false
	for _, tok := range strings.Fields(raw) {
		switch {
		case tok == MelismaMarker:
			continue
		case tok == JoinMarker:
			joinNext = true
		case joinNext && len(words) > 0:
			words[len(words)-1] += tok
			joinNext = false
		default:
			words = append(words, tok)
			joinNext = false
		}
	}
	return strings.Join(words, " ")
}

// Positions counts the syllable positions in a tokenized lyric line.
// Every token except a join marker occupies one position; melisma
// markers occupy a position of their own, since the notes they cover
// were counted as singable.
func Positions(raw string) int {
	n := 0
	for _, tok := range strings.Fields(raw) {
		if tok != JoinMarker {
			n++
		}
	}
	return n
}

// Slice extracts the run of lyric tokens whose syllable position lies
// in [start, end], one position past the half-open end: the last note
// of a shard doubles as the first note of the next shard's question
// side, so its syllable must be retrievable from both slices. Markers
// pass through verbatim; the result is raw lyric input, not normalized
// words.
//
// When the window reaches past the available syllables the longest
// available slice is returned together with a *errors.LyricRangeError,
// so under-annotated lyrics stay recoverable. The borrowed extra
// position missing at the very end of a song is not an underflow.
func Slice(raw string, start, end int) (string, error) {
	var out []string
	pos := 0
	for _, tok := range strings.Fields(raw) {
		if start <= pos && pos <= end {
			out = append(out, tok)
		}
		if tok != JoinMarker {
			pos++
		}
	}
	slice := strings.Join(out, " ")
	if end > pos {
		return slice, errors.NewLyricRange(start, end, pos, slice)
	}
	return slice, nil
}
