package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/physikerchor/choirdeck/core/errors"
)

// Compiled once; note iteration runs per measure.
var (
	noteQuery      = xpath.MustCompile("note")
	rehearsalQuery = xpath.MustCompile("direction/direction-type/rehearsal")
)

// durationNames maps MusicXML note types to LilyPond duration digits.
var durationNames = map[string]string{
	"whole":   "1",
	"half":    "2",
	"quarter": "4",
	"eighth":  "8",
	"16th":    "16",
	"32nd":    "32",
	"64th":    "64",
}

// MusicXML extracts one part from a MusicXML score and maps it onto the
// same Song shape the LilyPond front end produces. Pitches come out
// absolute (Song.Relative stays empty), rehearsal marks become shard
// boundary markers, and lyric syllabic begin/middle entries carry the
// join marker so downstream lyric handling is identical for both front
// ends. A missing sound tempo defaults to 4=100.
func MusicXML(data []byte, part string) (*Song, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing MusicXML: %w", err)
	}

	song := &Song{Voice: strings.ToLower(part)}

	if n := xmlquery.FindOne(doc, "//work/work-title"); n != nil {
		song.Title = strings.TrimSpace(n.InnerText())
	} else if n := xmlquery.FindOne(doc, "//movement-title"); n != nil {
		song.Title = strings.TrimSpace(n.InnerText())
	} else {
		return nil, errors.NewFieldNotFound("work-title", "")
	}

	song.Tempo = "4=100"
	if n := xmlquery.FindOne(doc, "//sound/@tempo"); n != nil {
		song.Tempo = "4=" + strings.TrimSpace(n.InnerText())
	}

	partNode, err := findPart(doc, part)
	if err != nil {
		return nil, err
	}

	var (
		notes     []string
		lyricToks []string
		inMelisma bool
	)
	for measure := partNode.FirstChild; measure != nil; measure = measure.NextSibling {
		if measure.Data != "measure" {
			continue
		}
		if t := xmlquery.FindOne(measure, "attributes/time"); t != nil {
			beats := xmlquery.FindOne(t, "beats")
			beatType := xmlquery.FindOne(t, "beat-type")
			if beats != nil && beatType != nil {
				notes = append(notes, `\time`, strings.TrimSpace(beats.InnerText())+"/"+strings.TrimSpace(beatType.InnerText()))
			}
		}
		// A rehearsal mark starts a new shard.
		if len(xmlquery.QuerySelectorAll(measure, rehearsalQuery)) > 0 && len(notes) > 0 {
			notes = append(notes, "%%")
		}
		for _, note := range xmlquery.QuerySelectorAll(measure, noteQuery) {
			tok, lyr, melisma, err := convertNote(note, inMelisma)
			if err != nil {
				return nil, err
			}
			inMelisma = melisma
			if tok != "" {
				notes = append(notes, tok)
			}
			lyricToks = append(lyricToks, lyr...)
		}
	}
	if len(notes) == 0 {
		return nil, errors.NewFieldNotFound("part "+part, "")
	}

	song.Notes = strings.Join(notes, " ")
	song.Lyrics = strings.Join(lyricToks, " ")
	return song, nil
}

// findPart resolves a part by part-name (case-insensitive) or id,
// falling back to the first part in the score.
func findPart(doc *xmlquery.Node, part string) (*xmlquery.Node, error) {
	for _, sp := range xmlquery.Find(doc, "//part-list/score-part") {
		name := ""
		if n := xmlquery.FindOne(sp, "part-name"); n != nil {
			name = strings.TrimSpace(n.InnerText())
		}
		id := sp.SelectAttr("id")
		if strings.EqualFold(name, part) || id == part {
			if p := xmlquery.FindOne(doc, fmt.Sprintf("//part[@id=%q]", id)); p != nil {
				return p, nil
			}
		}
	}
	if part == "" {
		if p := xmlquery.FindOne(doc, "//part"); p != nil {
			return p, nil
		}
	}
	return nil, errors.NewFieldNotFound("part "+part, "")
}

// convertNote renders one MusicXML note as a LilyPond token plus any
// lyric tokens it carries. Chord notes beyond the first are skipped:
// the engine handles monophonic voice lines only.
func convertNote(note *xmlquery.Node, inMelisma bool) (tok string, lyr []string, melisma bool, err error) {
	if xmlquery.FindOne(note, "chord") != nil {
		return "", nil, inMelisma, nil
	}

	dur := ""
	if t := xmlquery.FindOne(note, "type"); t != nil {
		name := strings.TrimSpace(t.InnerText())
		d, ok := durationNames[name]
		if !ok {
			return "", nil, inMelisma, fmt.Errorf("unsupported note type %q: %w", name, errors.ErrInvalidInput)
		}
		dur = d
	}
	for range xmlquery.Find(note, "dot") {
		dur += "."
	}

	if xmlquery.FindOne(note, "rest") != nil {
		return "r" + dur, nil, inMelisma, nil
	}

	pitchNode := xmlquery.FindOne(note, "pitch")
	if pitchNode == nil {
		return "", nil, inMelisma, fmt.Errorf("note without pitch or rest: %w", errors.ErrInvalidInput)
	}
	stepNode := xmlquery.FindOne(pitchNode, "step")
	octaveNode := xmlquery.FindOne(pitchNode, "octave")
	if stepNode == nil || octaveNode == nil {
		return "", nil, inMelisma, fmt.Errorf("pitch without step or octave: %w", errors.ErrInvalidInput)
	}
	step := strings.ToLower(strings.TrimSpace(stepNode.InnerText()))
	octaveText := strings.TrimSpace(octaveNode.InnerText())
	octave, err := strconv.Atoi(octaveText)
	if err != nil {
		return "", nil, inMelisma, fmt.Errorf("bad octave %q: %w", octaveText, errors.ErrInvalidInput)
	}

	name := step
	if a := xmlquery.FindOne(pitchNode, "alter"); a != nil {
		switch strings.TrimSpace(a.InnerText()) {
		case "1":
			name += "is"
		case "-1":
			name += "es"
		}
	}
	// MusicXML octave 3 is LilyPond's unmarked octave.
	for i := octave; i > 3; i-- {
		name += "'"
	}
	for i := octave; i < 3; i++ {
		name += ","
	}

	tok = name + dur
	if n := xmlquery.FindOne(note, "tie[@type='start']"); n != nil {
		tok += "~"
	}
	if n := xmlquery.FindOne(note, "notations/slur[@type='start']"); n != nil {
		tok += "("
	}
	if n := xmlquery.FindOne(note, "notations/slur[@type='stop']"); n != nil {
		tok += ")"
	}

	if l := xmlquery.FindOne(note, "lyric"); l != nil {
		syllabic := "single"
		if s := xmlquery.FindOne(l, "syllabic"); s != nil {
			syllabic = strings.TrimSpace(s.InnerText())
		}
		text := ""
		if t := xmlquery.FindOne(l, "text"); t != nil {
			text = strings.TrimSpace(t.InnerText())
		}
		if text != "" {
			lyr = append(lyr, text)
			if syllabic == "begin" || syllabic == "middle" {
				lyr = append(lyr, "--")
			}
		}
		melisma = xmlquery.FindOne(l, "extend") != nil
		return tok, lyr, melisma, nil
	}
	if inMelisma {
		return tok, []string{"__"}, false, nil
	}
	return tok, nil, inMelisma, nil
}
