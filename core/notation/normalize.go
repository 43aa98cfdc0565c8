package notation

import (
	"fmt"
	"strings"

	"github.com/physikerchor/choirdeck/core/errors"
)

// Mode selects how pitch octaves in the source are interpreted.
type Mode int

const (
	// ModeRelative resolves octaves against the previous note, LilyPond
	// \relative style.
	ModeRelative Mode = iota
	// ModeAbsolute takes octave marks as written.
	ModeAbsolute
)

// PitchContext carries the information needed to resolve pitches in a
// voice line. Root is the reference pitch for relative mode, e.g. "c'".
type PitchContext struct {
	Mode Mode
	Root string
}

// Normalizer rewrites a notation line so every token carries an explicit
// octave and duration. Meter changes and similar non-performable
// directives come back as structural comment tokens (CommentPrefix).
// Event order is preserved. Normalization is context sensitive and must
// always see the entire line, never a sub-segment.
type Normalizer interface {
	Normalize(ctx PitchContext, source string) ([]string, error)
}

// RelativeNormalizer is the built-in Normalizer. It understands Dutch
// note names (is/es accidentals), LilyPond relative octave placement and
// carried durations.
type RelativeNormalizer struct{}

// letterStep maps a pitch letter to its staff step within the octave.
var letterStep = map[byte]int{
	'c': 0, 'd': 1, 'e': 2, 'f': 3, 'g': 4, 'a': 5, 'b': 6,
}

// stepLetter is the inverse of letterStep.
var stepLetter = [7]byte{'c', 'd', 'e', 'f', 'g', 'a', 'b'}

// pitch is an absolute pitch: a staff step plus an octave, where octave
// 0 is the unmarked LilyPond octave.
type pitch struct {
	step       int
	accidental string
	octave     int
}

// notePieces is a pitch token taken apart: the pitch itself (octave
// holds the raw mark count until resolved), duration digits with dots,
// and trailing tie/slide suffixes.
type notePieces struct {
	pitch    pitch
	marks    int
	duration string
	suffix   string
}

// parseNote takes apart a note token such as "bes'4.~(".
func parseNote(text string) (notePieces, error) {
	var np notePieces
	if text == "" {
		return np, errors.NewNotation(text, "empty note token")
	}
	step, ok := letterStep[text[0]]
	if !ok {
		return np, errors.NewNotation(text, "unknown pitch letter")
	}
	np.pitch.step = step
	i := 1
	for i < len(text) {
		if strings.HasPrefix(text[i:], "is") || strings.HasPrefix(text[i:], "es") {
			np.pitch.accidental += text[i : i+2]
			i += 2
			continue
		}
		// "as" and "es" shorthand leave a bare s after the letter
		if text[i] == 's' {
			np.pitch.accidental += "s"
			i++
			continue
		}
		break
	}
	for i < len(text) && (text[i] == '\'' || text[i] == ',') {
		if text[i] == '\'' {
			np.marks++
		} else {
			np.marks--
		}
		i++
	}
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		np.duration += string(text[i])
		i++
	}
	for i < len(text) {
		switch text[i] {
		case '~', '(', ')':
			np.suffix += string(text[i])
		default:
			return np, errors.NewNotation(text, fmt.Sprintf("unexpected character %q", text[i]))
		}
		i++
	}
	return np, nil
}

// parseRest takes apart a rest token such as "r4.".
func parseRest(text string) (duration, suffix string, err error) {
	i := 1
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		duration += string(text[i])
		i++
	}
	for i < len(text) {
		switch text[i] {
		case '~', '(', ')':
			suffix += string(text[i])
		default:
			return "", "", errors.NewNotation(text, fmt.Sprintf("unexpected character %q", text[i]))
		}
		i++
	}
	return duration, suffix, nil
}

// resolveRelative places a note in the octave nearest the previous
// pitch (at most a fourth away on the staff), then applies the note's
// own octave marks.
func resolveRelative(prev pitch, np notePieces) pitch {
	p := np.pitch
	p.octave = prev.octave
	d := p.step - prev.step
	if d > 3 {
		p.octave--
	} else if d < -3 {
		p.octave++
	}
	p.octave += np.marks
	return p
}

// format renders an absolute pitch with explicit octave marks.
func (p pitch) format() string {
	var sb strings.Builder
	sb.WriteByte(stepLetter[p.step])
	sb.WriteString(p.accidental)
	if p.octave > 0 {
		sb.WriteString(strings.Repeat("'", p.octave))
	} else if p.octave < 0 {
		sb.WriteString(strings.Repeat(",", -p.octave))
	}
	return sb.String()
}

// parseRoot parses a relative-mode reference pitch such as "c'" or "bes,".
func parseRoot(root string) (pitch, error) {
	np, err := parseNote(strings.TrimSpace(root))
	if err != nil {
		return pitch{}, err
	}
	if np.duration != "" || np.suffix != "" {
		return pitch{}, errors.NewNotation(root, "reference pitch must be bare")
	}
	p := np.pitch
	p.octave = np.marks
	return p, nil
}

// Normalize implements Normalizer.
func (RelativeNormalizer) Normalize(ctx PitchContext, source string) ([]string, error) {
	toks, err := lexLine(source)
	if err != nil {
		return nil, errors.NewNotation(truncate(source), err.Error())
	}

	prev := pitch{step: letterStep['c']}
	if ctx.Mode == ModeRelative {
		prev, err = parseRoot(ctx.Root)
		if err != nil {
			return nil, err
		}
	}

	var (
		out        []string
		curDur     = "4"
		slideDepth int
		pendingTie bool
	)
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.kind {
		case "Note":
			np, err := parseNote(tok.text)
			if err != nil {
				return nil, err
			}
			var p pitch
			if ctx.Mode == ModeRelative {
				p = resolveRelative(prev, np)
			} else {
				p = np.pitch
				p.octave = np.marks
			}
			prev = p
			if np.duration == "" {
				np.duration = curDur
			} else {
				curDur = np.duration
			}
			out = append(out, p.format()+np.duration+np.suffix)
			slideDepth += slideDelta(np.suffix)
			if slideDepth < 0 {
				return nil, errors.NewNotation(tok.text, "portamento close without open")
			}
			pendingTie = strings.Contains(np.suffix, "~")
		case "Rest":
			dur, suffix, err := parseRest(tok.text)
			if err != nil {
				return nil, err
			}
			if dur == "" {
				dur = curDur
			} else {
				curDur = dur
			}
			out = append(out, "r"+dur+suffix)
			slideDepth += slideDelta(suffix)
			if slideDepth < 0 {
				return nil, errors.NewNotation(tok.text, "portamento close without open")
			}
			pendingTie = strings.Contains(suffix, "~")
		case "Command":
			switch tok.text {
			case `\time`:
				if i+1 >= len(toks) || toks[i+1].kind != "Fraction" {
					return nil, errors.NewNotation(tok.text, "\\time without a fraction")
				}
				out = append(out, CommentPrefix+" "+tok.text+" "+toks[i+1].text)
				i++
			case `\partial`:
				if i+1 >= len(toks) || toks[i+1].kind != "Number" {
					return nil, errors.NewNotation(tok.text, "\\partial without a duration")
				}
				out = append(out, CommentPrefix+" "+tok.text+" "+toks[i+1].text)
				i++
			default:
				// Directives with no performable effect are dropped.
			}
		case "Comment":
			out = append(out, tok.text)
		case "BarCheck":
			// Bar checks carry no musical content.
		case "Boundary":
			return nil, errors.NewNotation(BoundaryMarker, "boundary marker inside normalization input")
		default:
			return nil, errors.NewNotation(tok.text, "unexpected token")
		}
	}
	if slideDepth != 0 {
		return nil, errors.NewNotation(truncate(source), "unbalanced portamento")
	}
	if pendingTie {
		return nil, errors.NewNotation(truncate(source), "tie chain runs off the end of input")
	}
	return out, nil
}

// ParseSegment parses one boundary-delimited segment on its own, under
// the same pitch context as the full line, and returns its event count
// (notes and rests; structural comments excluded). A segment whose
// portamento markers do not balance is malformed.
func ParseSegment(ctx PitchContext, segment string) (int, error) {
	toks, err := lexLine(segment)
	if err != nil {
		return 0, errors.NewNotation(truncate(segment), err.Error())
	}
	events := 0
	depth := 0
	for _, tok := range toks {
		switch tok.kind {
		case "Note", "Rest":
			events++
			depth += slideDelta(tok.text)
			if depth < 0 {
				return 0, errors.NewNotation(truncate(segment), "portamento close without open")
			}
		case "Boundary":
			return 0, errors.NewNotation(truncate(segment), "nested boundary marker")
		}
	}
	if depth != 0 {
		return 0, errors.NewNotation(truncate(segment), "unbalanced portamento")
	}
	return events, nil
}

// slideDelta sums the portamento opens and closes in a token's suffix.
func slideDelta(s string) int {
	return strings.Count(s, "(") - strings.Count(s, ")")
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}
