// Command choirdeck turns an annotated choir song into an Anki
// flashcard package: one card per %% shard, each question side being
// the previous shard's answer.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/physikerchor/choirdeck/core/errors"
	"github.com/physikerchor/choirdeck/core/extract"
	"github.com/physikerchor/choirdeck/core/lyrics"
	"github.com/physikerchor/choirdeck/core/notation"
	"github.com/physikerchor/choirdeck/core/pipeline"
	"github.com/physikerchor/choirdeck/core/render"
	"github.com/physikerchor/choirdeck/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for choirdeck.
var CLI struct {
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log output format"`

	Build   BuildCmd   `cmd:"" help:"Build a flashcard package from a song source"`
	Inspect InspectCmd `cmd:"" help:"Show shards, counts and lyric slices without rendering"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// BuildCmd builds a .apkg from a song source.
type BuildCmd struct {
	Source string `arg:"" help:"Song source (.ly or .musicxml/.xml)" type:"existingfile"`

	Voice        string   `default:"bass" help:"Voice to extract (bass, tenor, alto, soprano)"`
	Clef         string   `help:"Clef override (defaults to a clef fitting the voice)"`
	OutDir       string   `name:"out-dir" default:"." type:"path" help:"Directory for the .apkg"`
	MediaDir     string   `name:"media-dir" default:"collection.media" type:"path" help:"Directory media assets are copied into"`
	DeckName     string   `name:"deck-name" default:"Physikerchor" help:"Deck name inside Anki"`
	Tag          string   `default:"physikerchor" help:"Collection tag added to every note"`
	StrictLyrics bool     `name:"strict-lyrics" help:"Treat lyric underflow as fatal instead of a warning"`
	Partial      []string `help:"Per-shard \\partial upbeat values, in shard order"`
	WorkDir      string   `name:"work-dir" type:"path" help:"Work directory for intermediates (default: temporary)"`
	KeepWork     bool     `name:"keep-work" help:"Keep the work directory after the build"`
	ArchiveWork  string   `name:"archive-work" type:"path" help:"Write the work directory to this .tar.xz after the build"`
}

func (c *BuildCmd) Run() error {
	song, err := loadSong(c.Source, c.Voice)
	if err != nil {
		return err
	}

	workDir := c.WorkDir
	if workDir == "" {
		tmp, err := os.MkdirTemp("", "choirdeck-work-*")
		if err != nil {
			return errors.NewIO("create temp directory", "", err)
		}
		workDir = tmp
		if !c.KeepWork && c.ArchiveWork == "" {
			defer os.RemoveAll(tmp)
		}
	}

	typesetter, err := render.NewTypesetter(workDir)
	if err != nil {
		return err
	}
	packager := pipeline.NewApkgPackager(c.OutDir, c.MediaDir, c.DeckName)

	err = pipeline.Build(context.Background(), song, typesetter, packager, pipeline.Options{
		Clef:          c.Clef,
		CollectionTag: c.Tag,
		StrictLyrics:  c.StrictLyrics,
		Partials:      c.Partial,
	})
	if err != nil {
		return err
	}

	if c.ArchiveWork != "" {
		if err := pipeline.ArchiveWork(workDir, c.ArchiveWork); err != nil {
			return err
		}
		logging.Info("work directory archived", "path", c.ArchiveWork)
		if !c.KeepWork && c.WorkDir == "" {
			os.RemoveAll(workDir)
		}
	}
	return nil
}

// InspectCmd prints the shard breakdown of a song without invoking any
// external tool.
type InspectCmd struct {
	Source string `arg:"" help:"Song source (.ly or .musicxml/.xml)" type:"existingfile"`
	Voice  string `default:"bass" help:"Voice to extract"`
}

func (c *InspectCmd) Run() error {
	song, err := loadSong(c.Source, c.Voice)
	if err != nil {
		return err
	}

	pctx := notation.PitchContext{Mode: notation.ModeAbsolute}
	if song.Relative != "" {
		pctx = notation.PitchContext{Mode: notation.ModeRelative, Root: song.Relative}
	}
	shards, err := notation.Split(song.Notes, pctx, notation.RelativeNormalizer{})
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", song.Title, song.Voice)
	fmt.Printf("  tempo: %s\n", song.Tempo)
	fmt.Printf("  global: %s\n", song.GlobalOptions)
	seen := 0
	for i, shard := range shards {
		n, _ := notation.CountSingable(notation.Fields(shard), 0)
		slice, err := lyrics.Slice(song.Lyrics, seen, seen+n)
		if err != nil {
			var lre *errors.LyricRangeError
			if errors.As(err, &lre) {
				slice = lre.Slice + "  (underflow)"
			} else {
				return err
			}
		}
		seen += n
		fmt.Printf("shard %d  (%d singable)\n", i, n)
		fmt.Printf("  notes:  %s\n", shard)
		fmt.Printf("  lyrics: %s\n", lyrics.Normalize(slice))
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("choirdeck %s\n", version)
	return nil
}

// loadSong picks the front end by file extension.
func loadSong(path, voice string) (*extract.Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".musicxml":
		return extract.MusicXML(data, voice)
	default:
		return extract.LilyPond(string(data), voice)
	}
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("choirdeck"),
		kong.Description("Build Anki flashcard decks from annotated choir notation."),
		kong.UsageOnError(),
	)

	level := map[string]logging.Level{
		"debug": logging.LevelDebug,
		"info":  logging.LevelInfo,
		"warn":  logging.LevelWarn,
		"error": logging.LevelError,
	}[CLI.LogLevel]
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "choirdeck: %v\n", err)
		os.Exit(1)
	}
}
