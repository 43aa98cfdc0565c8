// Package pipeline drives a full build: extracted song in, flashcard
// package out. It owns the shard walk and the question/answer fold;
// rendering and packaging stay behind interfaces.
package pipeline

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/physikerchor/choirdeck/core/errors"
	"github.com/physikerchor/choirdeck/core/extract"
	"github.com/physikerchor/choirdeck/core/lyrics"
	"github.com/physikerchor/choirdeck/core/notation"
	"github.com/physikerchor/choirdeck/core/render"
	"github.com/physikerchor/choirdeck/internal/logging"
)

// ShardRecord is everything the packager needs for one card. Asset
// references are media file base names; the first shard has empty
// question-side references.
type ShardRecord struct {
	Index int
	First bool

	QuestionScore     string
	QuestionScoreBare string
	QuestionLyrics    string
	QuestionAudio     string

	AnswerScore     string
	AnswerScoreBare string
	AnswerLyrics    string
	AnswerAudio     string

	Title string
	Tags  []string
}

// Packager turns the ordered shard records into a distributable
// package and takes custody of the media files.
type Packager interface {
	Package(title string, records []ShardRecord, media []string) error
}

// PrevShard is the context one iteration hands to the next: the answer
// side of shard N is the question side of shard N+1. It is threaded
// explicitly through the loop, never held in package state.
type PrevShard struct {
	Score     string
	ScoreBare string
	Lyrics    string // raw lyric tokens, markers intact
	Audio     string
}

// Options configures a build.
type Options struct {
	Clef          string   // override; empty derives from the voice name
	CollectionTag string   // extra tag on every note
	StrictLyrics  bool     // treat lyric underflow as fatal
	Partials      []string // per-shard \partial upbeat values
}

// baseName is filepath.Base that leaves empty references empty. The
// first shard has no question side.
func baseName(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}

// clefForVoice maps the common choir voices onto clefs.
func clefForVoice(voice string) string {
	switch strings.ToLower(voice) {
	case "bass", "tenor", "baritone":
		return "bass"
	default:
		return "violin"
	}
}

// partial returns the \partial value for a shard. Every shard after
// the first defaults to a full upbeat bar.
func (o Options) partial(i int) string {
	if i < len(o.Partials) {
		return o.Partials[i]
	}
	if i == 0 {
		return "4"
	}
	return "1"
}

// Tags builds the note tags for a song: title, voice and collection
// tag, lowercased with underscores.
func Tags(song *extract.Song, collectionTag string) []string {
	raw := []string{song.Title, song.Voice}
	if collectionTag != "" {
		raw = append(raw, collectionTag)
	}
	tags := make([]string, len(raw))
	for i, t := range raw {
		tags[i] = strings.ReplaceAll(strings.ToLower(t), " ", "_")
	}
	return tags
}

// Build renders every shard of the song and feeds the resulting
// records to the packager.
func Build(ctx context.Context, song *extract.Song, r render.Renderer, p Packager, opts Options) error {
	pctx := notation.PitchContext{Mode: notation.ModeAbsolute}
	if song.Relative != "" {
		pctx = notation.PitchContext{Mode: notation.ModeRelative, Root: song.Relative}
	}

	shards, err := notation.Split(song.Notes, pctx, notation.RelativeNormalizer{})
	if err != nil {
		return errors.Wrap(err, "splitting shards")
	}

	clef := opts.Clef
	if clef == "" {
		clef = clefForVoice(song.Voice)
	}
	tags := Tags(song, opts.CollectionTag)

	var (
		records []ShardRecord
		media   []string
		prev    PrevShard
		seen    int
	)
	for i, shard := range shards {
		n, _ := notation.CountSingable(notation.Fields(shard), 0)

		answerLyrics, err := lyrics.Slice(song.Lyrics, seen, seen+n)
		if err != nil {
			var lre *errors.LyricRangeError
			if !errors.As(err, &lre) || opts.StrictLyrics {
				return errors.Wrapf(err, "shard %d", i)
			}
			logging.LyricDiagnostic(i, lre)
			answerLyrics = lre.Slice
		}
		seen += n

		global := song.GlobalOptions + ` \partial ` + opts.partial(i)

		audio, err := r.RenderAudio(ctx, shard, render.AudioOptions{
			GlobalOptions: global,
			Tempo:         song.Tempo,
		})
		if err != nil {
			return errors.Wrapf(err, "shard %d audio", i)
		}
		score, err := r.RenderImage(ctx, shard, render.ImageOptions{
			GlobalOptions: global,
			Clef:          clef,
			Lyrics:        answerLyrics,
		})
		if err != nil {
			return errors.Wrapf(err, "shard %d score", i)
		}
		scoreBare, err := r.RenderImage(ctx, shard, render.ImageOptions{
			GlobalOptions: global,
			Clef:          clef,
		})
		if err != nil {
			return errors.Wrapf(err, "shard %d bare score", i)
		}
		media = append(media, audio, score, scoreBare)

		records = append(records, ShardRecord{
			Index:             i,
			First:             i == 0,
			QuestionScore:     baseName(prev.Score),
			QuestionScoreBare: baseName(prev.ScoreBare),
			QuestionLyrics:    lyrics.Normalize(prev.Lyrics),
			QuestionAudio:     baseName(prev.Audio),
			AnswerScore:       baseName(score),
			AnswerScoreBare:   baseName(scoreBare),
			AnswerLyrics:      lyrics.Normalize(answerLyrics),
			AnswerAudio:       baseName(audio),
			Title:             song.Title,
			Tags:              tags,
		})
		logging.ShardEvent("rendered", i, n, "notation", shard)

		// This shard's answer becomes the next shard's question.
		prev = PrevShard{Score: score, ScoreBare: scoreBare, Lyrics: answerLyrics, Audio: audio}
	}

	if err := p.Package(song.Title, records, media); err != nil {
		return errors.Wrap(err, "packaging deck")
	}
	logging.Info("deck built", "title", song.Title, "shards", strconv.Itoa(len(shards)))
	return nil
}
