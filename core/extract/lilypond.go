// Package extract pulls the fields a build needs out of a source
// document: song title, global notation options, relative root, tempo,
// one voice's annotated notation, and its lyric line (with fallback to
// the shared verse). Missing fields surface as typed errors naming the
// field, never as silent empties.
package extract

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/physikerchor/choirdeck/core/errors"
)

// Song is one voice's worth of extracted source material.
type Song struct {
	Title         string
	GlobalOptions string
	Relative      string // reference pitch for relative mode; empty means absolute
	Tempo         string // LilyPond tempo spec, e.g. "4=100"
	Notes         string // annotated notation, %% markers intact
	Lyrics        string // tokenized lyric line, -- and __ markers intact
	Voice         string
}

// sourceLexer tokenizes a LilyPond source just far enough to navigate
// its structure: strings, commands, identifiers, braces, assignments.
// Everything else (note tokens, numbers, shard markers) falls through
// as Other; block contents are recovered verbatim from source offsets.
var sourceLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Command", Pattern: `\\[a-zA-Z]+`},
	{Name: "Ident", Pattern: `[a-zA-Z][a-zA-Z0-9_]*`},
	{Name: "LBrace", Pattern: `{`},
	{Name: "RBrace", Pattern: `}`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Other", Pattern: `[^\s{}="]+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// srcToken is a source token with its byte extent.
type srcToken struct {
	kind  string
	text  string
	start int
	end   int
}

// span is a byte range within the source.
type span struct {
	start int
	end   int
}

// voiceBlock is a `name = \relative arg { ... }` or `name = { ... }`
// assignment.
type voiceBlock struct {
	relative string
	body     span
}

func lexSource(src string) ([]srcToken, error) {
	symbols := lexer.SymbolsByRune(sourceLexer)
	lx, err := sourceLexer.LexString("", src)
	if err != nil {
		return nil, err
	}
	var toks []srcToken
	for {
		tok, err := lx.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF() {
			return toks, nil
		}
		kind := symbols[tok.Type]
		if kind == "Whitespace" {
			continue
		}
		toks = append(toks, srcToken{
			kind:  kind,
			text:  tok.Value,
			start: tok.Pos.Offset,
			end:   tok.Pos.Offset + len(tok.Value),
		})
	}
}

// matchBrace returns the content span of the brace block opening at
// toks[open] and the index of the first token after its closing brace.
func matchBrace(toks []srcToken, open int) (span, int, error) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].kind {
		case "LBrace":
			depth++
		case "RBrace":
			depth--
			if depth == 0 {
				return span{start: toks[open].end, end: toks[i].start}, i + 1, nil
			}
		}
	}
	return span{}, 0, fmt.Errorf("unbalanced braces at offset %d: %w", toks[open].start, errors.ErrInvalidInput)
}

// document is the navigable structure of one LilyPond source.
type document struct {
	src    string
	header span
	midi   span
	blocks map[string]span       // name = { ... }
	lyrics map[string]span       // name = \lyricmode { ... }
	voices map[string]voiceBlock // name = [\relative arg] { ... }
}

func parseDocument(src string) (*document, error) {
	toks, err := lexSource(src)
	if err != nil {
		return nil, fmt.Errorf("lexing source: %w", err)
	}
	doc := &document{
		src:    src,
		header: span{-1, -1},
		midi:   span{-1, -1},
		blocks: map[string]span{},
		lyrics: map[string]span{},
		voices: map[string]voiceBlock{},
	}
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.kind == "Command" && (t.text == `\header` || t.text == `\midi`) && i+1 < len(toks) && toks[i+1].kind == "LBrace":
			content, next, err := matchBrace(toks, i+1)
			if err != nil {
				return nil, err
			}
			if t.text == `\header` {
				doc.header = content
			} else {
				doc.midi = content
			}
			i = next
		case t.kind == "Ident" && i+2 < len(toks) && toks[i+1].kind == "Equals":
			name := t.text
			j := i + 2
			switch {
			case toks[j].kind == "LBrace":
				content, next, err := matchBrace(toks, j)
				if err != nil {
					return nil, err
				}
				doc.blocks[name] = content
				doc.voices[name] = voiceBlock{body: content}
				i = next
			case toks[j].kind == "Command" && toks[j].text == `\lyricmode` && j+1 < len(toks) && toks[j+1].kind == "LBrace":
				content, next, err := matchBrace(toks, j+1)
				if err != nil {
					return nil, err
				}
				doc.lyrics[name] = content
				i = next
			case toks[j].kind == "Command" && toks[j].text == `\relative`:
				// The pitch argument is everything between \relative
				// and the opening brace.
				k := j + 1
				for k < len(toks) && toks[k].kind != "LBrace" {
					k++
				}
				if k == len(toks) {
					return nil, fmt.Errorf("\\relative without a block at offset %d: %w", t.start, errors.ErrInvalidInput)
				}
				content, next, err := matchBrace(toks, k)
				if err != nil {
					return nil, err
				}
				doc.voices[name] = voiceBlock{
					relative: strings.TrimSpace(src[toks[j].end:toks[k].start]),
					body:     content,
				}
				i = next
			default:
				i++
			}
		default:
			i++
		}
	}
	return doc, nil
}

func (d *document) slice(s span) string {
	if s.start < 0 {
		return ""
	}
	return d.src[s.start:s.end]
}

// title finds `title = "..."` inside the header block.
func (d *document) title() (string, bool) {
	if d.header.start < 0 {
		return "", false
	}
	toks, err := lexSource(d.slice(d.header))
	if err != nil {
		return "", false
	}
	for i := 0; i+2 < len(toks); i++ {
		if toks[i].kind == "Ident" && toks[i].text == "title" &&
			toks[i+1].kind == "Equals" && toks[i+2].kind == "String" {
			return strings.Trim(toks[i+2].text, `"`), true
		}
	}
	return "", false
}

// tempo finds the \tempo spec inside the midi block.
func (d *document) tempo() (string, bool) {
	if d.midi.start < 0 {
		return "", false
	}
	content := d.slice(d.midi)
	idx := strings.Index(content, `\tempo`)
	if idx < 0 {
		return "", false
	}
	return collapse(content[idx+len(`\tempo`):]), true
}

// collapse flattens runs of whitespace (including newlines) to single
// spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// LilyPond extracts one voice from a Physikerchor-layout LilyPond
// source. The voice's lyric block is `<voice>Verse`; when absent, the
// shared `verse` block is used (everybody sings the same).
func LilyPond(src, voice string) (*Song, error) {
	doc, err := parseDocument(src)
	if err != nil {
		return nil, err
	}

	song := &Song{Voice: voice}

	title, ok := doc.title()
	if !ok {
		return nil, errors.NewFieldNotFound("title", "")
	}
	song.Title = title

	global, ok := doc.blocks["global"]
	if !ok {
		return nil, errors.NewFieldNotFound("global", "")
	}
	song.GlobalOptions = collapse(doc.slice(global))

	tempo, ok := doc.tempo()
	if !ok {
		return nil, errors.NewFieldNotFound("tempo", "")
	}
	song.Tempo = tempo

	vb, ok := doc.voices[voice]
	if !ok {
		return nil, errors.NewFieldNotFound(voice, "")
	}
	song.Relative = vb.relative
	song.Notes = collapse(strings.ReplaceAll(doc.slice(vb.body), `\global`, " "))

	if verse, ok := doc.lyrics[voice+"Verse"]; ok {
		song.Lyrics = collapse(doc.slice(verse))
	} else if verse, ok := doc.lyrics["verse"]; ok {
		song.Lyrics = collapse(doc.slice(verse))
	} else {
		return nil, errors.NewFieldNotFound(voice+"Verse", "")
	}

	return song, nil
}
