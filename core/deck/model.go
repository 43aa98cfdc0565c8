// Package deck builds Anki flashcard packages (.apkg) in pure Go: a
// SQLite collection plus media, zipped. It knows nothing about
// notation; it consumes per-shard field values and media file paths.
package deck

import "encoding/json"

// CardTemplate is one card layout within a model.
type CardTemplate struct {
	Name string
	QFmt string
	AFmt string
}

// Model describes a note type: its fields, card templates and styling.
type Model struct {
	ID        int64
	Name      string
	Fields    []string
	Templates []CardTemplate
	CSS       string
}

// Stable ids, so rebuilding a deck updates the previous import instead
// of duplicating it.
const (
	// ChoirModelID identifies the choir note type.
	ChoirModelID int64 = 1544216877
	// ChoirDeckID identifies the choir deck.
	ChoirDeckID int64 = 1452737122
)

// ChoirModel returns the note type for choir shard cards: two templates,
// one drilling with the score image and one from audio alone.
func ChoirModel() *Model {
	return &Model{
		ID:   ChoirModelID,
		Name: "choir_model",
		Fields: []string{
			"title_and_part",
			"songtitle",
			"part_number",
			"is_first_part",
			"qustn_score",
			"qustn_score_no_lyrics",
			"qustn_lyrics",
			"qustn_mp3",
			"answr_score",
			"answr_score_no_lyrics",
			"answr_lyrics",
			"answr_mp3",
		},
		Templates: []CardTemplate{
			{
				Name: "with_score",
				QFmt: `<span style="color:aqua; font-size:24px">Keep singing</span><br /><br />
{{#is_first_part}}Beginning of &ldquo;{{songtitle}}&rdquo;{{/is_first_part}}
{{^is_first_part}}
<img src="{{qustn_score}}">
<span style="display:none">[sound:{{qustn_mp3}}]</span>
{{/is_first_part}}`,
				AFmt: `{{FrontSide}}
<hr id="answer">
<img src="{{answr_score}}">
<span style="display:none">[sound:{{answr_mp3}}]</span>`,
			},
			{
				Name: "without_score",
				QFmt: `<span style="color:aqua; font-size:24px">Keep singing</span><br /><br />
{{#is_first_part}}Beginning of &ldquo;{{songtitle}}&rdquo;{{/is_first_part}}
{{^is_first_part}}
<span style="display:none">[sound:{{qustn_mp3}}]</span>
{{/is_first_part}}`,
				AFmt: `{{FrontSide}}
<hr id="answer">
{{answr_lyrics}}
<span style="display:none">[sound:{{answr_mp3}}]</span>`,
			},
		},
		CSS: `.card {
    font-family: arial;
    font-size: 20px;
    text-align: center;
    color: black;
    background-color: white;
}`,
	}
}

// collectionJSON renders the model in the shape Anki stores inside the
// collection's models blob.
func (m *Model) collectionJSON(deckID int64) json.RawMessage {
	flds := make([]map[string]any, len(m.Fields))
	for i, name := range m.Fields {
		flds[i] = map[string]any{
			"name":   name,
			"ord":    i,
			"sticky": false,
			"rtl":    false,
			"font":   "Arial",
			"size":   20,
			"media":  []any{},
		}
	}
	tmpls := make([]map[string]any, len(m.Templates))
	req := make([][]any, len(m.Templates))
	for i, t := range m.Templates {
		tmpls[i] = map[string]any{
			"name":  t.Name,
			"ord":   i,
			"qfmt":  t.QFmt,
			"afmt":  t.AFmt,
			"bqfmt": "",
			"bafmt": "",
			"did":   nil,
		}
		// Every card renders something regardless of field content.
		req[i] = []any{i, "any", []int{0}}
	}
	blob, _ := json.Marshal(map[string]any{
		"id":        m.ID,
		"name":      m.Name,
		"type":      0,
		"did":       deckID,
		"mod":       0,
		"usn":       -1,
		"sortf":     0,
		"flds":      flds,
		"tmpls":     tmpls,
		"css":       m.CSS,
		"latexPre":  defaultLatexPre,
		"latexPost": defaultLatexPost,
		"req":       req,
		"tags":      []any{},
		"vers":      []any{},
	})
	return blob
}

const (
	defaultLatexPre = `\documentclass[12pt]{article}
\special{papersize=3in,5in}
\usepackage[utf8]{inputenc}
\usepackage{amssymb,amsmath}
\pagestyle{empty}
\setlength{\parindent}{0in}
\begin{document}
`
	defaultLatexPost = `\end{document}`
)
