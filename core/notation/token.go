// Package notation implements the segmentation engine for monophonic
// LilyPond voice lines: token classification, singable-note counting,
// relative-pitch normalization, and shard splitting on inline %% markers.
package notation

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

const (
	// BoundaryMarker separates shards inside an annotated voice line.
	BoundaryMarker = "%%"
	// CommentPrefix marks structural comment tokens inserted by
	// normalization (e.g. meter changes). Comments never count as events.
	CommentPrefix = "%%%"
)

// Class reports the shape of a single notation token. Flags are
// independent: one token may close a portamento and start a tie at the
// same time, so callers branch on each flag separately.
type Class struct {
	Pitch      bool // begins with a pitch letter a-g
	Rest       bool // begins with the rest symbol r
	Tie        bool // carries a trailing tie suffix ~
	SlideOpen  bool // carries a trailing portamento open suffix (
	SlideClose bool // carries a trailing portamento close suffix )
	Comment    bool // structural comment inserted by normalization
	Boundary   bool // the shard boundary marker itself
}

// Event reports whether the token is a performable pitch or rest event.
// Whether rests count as singable is the caller's concern.
func (c Class) Event() bool {
	return c.Pitch || c.Rest
}

// Classify reports the classification of one whitespace-delimited
// notation token. Unrecognized tokens carry no flags and are ignored by
// the counting logic.
func Classify(tok string) Class {
	var c Class
	if strings.HasPrefix(tok, CommentPrefix) {
		c.Comment = true
		return c
	}
	if tok == BoundaryMarker {
		c.Boundary = true
		return c
	}
	if tok == "" {
		return c
	}
	switch first := tok[0]; {
	case first >= 'a' && first <= 'g':
		c.Pitch = true
	case first == 'r' || first == 'R':
		c.Rest = true
	}
	// Suffixes stack at the end of a token, in any order.
	for i := len(tok) - 1; i >= 0; i-- {
		switch tok[i] {
		case '~':
			c.Tie = true
		case '(':
			c.SlideOpen = true
		case ')':
			c.SlideClose = true
		default:
			return c
		}
	}
	return c
}

// Fields splits a notation line into whitespace-delimited tokens.
func Fields(line string) []string {
	return strings.Fields(line)
}

// lexToken is one lexical unit of a notation line.
type lexToken struct {
	kind string
	text string
}

// notationLexer tokenizes a LilyPond notation line. Order matters: the
// comment prefix %%% must win over the boundary marker %%, and rests
// must be tried before notes.
var notationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `%%%[^\r\n]*`},
	{Name: "Boundary", Pattern: `%%`},
	{Name: "Command", Pattern: `\\[a-zA-Z]+`},
	{Name: "Fraction", Pattern: `\d+/\d+`},
	{Name: "Number", Pattern: `\d+\.*`},
	{Name: "Rest", Pattern: `[rR](?:\d+\.*)?[~()]*`},
	{Name: "Note", Pattern: `[a-g](?:is|es|s)*[',]*(?:\d+\.*)?[~()]*`},
	{Name: "BarCheck", Pattern: `\|`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// lexLine runs the notation lexer over a line and returns the meaningful
// tokens (whitespace elided).
func lexLine(line string) ([]lexToken, error) {
	symbols := lexer.SymbolsByRune(notationLexer)
	lx, err := notationLexer.LexString("", line)
	if err != nil {
		return nil, err
	}
	var toks []lexToken
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
		toks = append(toks, lexToken{kind: kind, text: tok.Value})
	}
}
