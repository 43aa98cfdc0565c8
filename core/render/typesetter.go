package render

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/physikerchor/choirdeck/core/errors"
	"github.com/physikerchor/choirdeck/internal/logging"
)

//go:embed templates/mp3_template.ly
var mp3Template string

//go:embed templates/png_template.ly
var pngTemplate string

// newCommand is injectable for tests.
var newCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// AudioOptions configures one audio render.
type AudioOptions struct {
	GlobalOptions string
	Tempo         string
}

// ImageOptions configures one score image render.
type ImageOptions struct {
	GlobalOptions string
	Clef          string
	Lyrics        string // empty renders the bare score
}

// Renderer produces media assets for a notation shard. Implementations
// return paths to the produced files; the engine treats them as opaque
// handles.
type Renderer interface {
	RenderAudio(ctx context.Context, notes string, opts AudioOptions) (string, error)
	RenderImage(ctx context.Context, notes string, opts ImageOptions) (string, error)
}

// Typesetter renders shards with the external LilyPond toolchain:
// lilypond/timidity/lame for audio, lilypond-book/latex/dvipng for
// images. All intermediate files live under WorkDir.
type Typesetter struct {
	WorkDir string

	mp3 *Template
	png *Template
}

// NewTypesetter creates a Typesetter working under dir, which is
// created if needed.
func NewTypesetter(dir string) (*Typesetter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.NewIO("create directory", dir, err)
	}
	mp3, err := ParseTemplate(mp3Template)
	if err != nil {
		return nil, errors.Wrap(err, "mp3 template")
	}
	png, err := ParseTemplate(pngTemplate)
	if err != nil {
		return nil, errors.Wrap(err, "png template")
	}
	return &Typesetter{WorkDir: dir, mp3: mp3, png: png}, nil
}

// assetName returns a fresh opaque asset name.
func assetName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// RenderAudio implements Renderer. The returned path points at an .mp3
// inside the work directory.
func (t *Typesetter) RenderAudio(ctx context.Context, notes string, opts AudioOptions) (string, error) {
	name := assetName()
	source := t.mp3.Fill(TemplateFields{
		Notes:         notes,
		Tempo:         opts.Tempo,
		GlobalOptions: opts.GlobalOptions,
	})
	if err := os.WriteFile(t.path(name+".ly"), []byte(source), 0644); err != nil {
		return "", errors.NewIO("write", name+".ly", err)
	}

	// lilypond writes <name>.midi next to the source.
	if err := t.run(ctx, t.WorkDir, "lilypond", name+".ly"); err != nil {
		return "", err
	}
	if err := t.run(ctx, t.WorkDir, "timidity", "-Ow", name+".midi"); err != nil {
		return "", err
	}
	if err := t.run(ctx, t.WorkDir, "lame", name+".wav"); err != nil {
		return "", err
	}

	for _, ext := range []string{".ly", ".midi", ".wav"} {
		os.Remove(t.path(name + ext))
	}
	return t.path(name + ".mp3"), nil
}

// RenderImage implements Renderer. The returned path points at a .png
// inside the work directory.
func (t *Typesetter) RenderImage(ctx context.Context, notes string, opts ImageOptions) (string, error) {
	name := assetName()
	source := t.png.Fill(TemplateFields{
		Notes:         notes,
		GlobalOptions: opts.GlobalOptions,
		Clef:          opts.Clef,
		Lyrics:        opts.Lyrics,
	})
	if err := os.WriteFile(t.path(name+".ly"), []byte(source), 0644); err != nil {
		return "", errors.NewIO("write", name+".ly", err)
	}

	bookDir := t.path(name + "_book")
	if err := t.run(ctx, t.WorkDir, "lilypond-book", "-f", "latex", "--output", bookDir, name+".ly"); err != nil {
		return "", err
	}
	if err := t.run(ctx, bookDir, "latex", name+".tex"); err != nil {
		return "", err
	}
	if err := t.run(ctx, bookDir, "dvipng", name+".dvi"); err != nil {
		return "", err
	}

	// dvipng numbers its pages; a single-system score yields exactly one.
	out := t.path(name + ".png")
	if err := os.Rename(filepath.Join(bookDir, name+"1.png"), out); err != nil {
		return "", errors.NewIO("rename", name+"1.png", err)
	}
	os.RemoveAll(bookDir)
	os.Remove(t.path(name + ".ly"))
	return out, nil
}

func (t *Typesetter) path(name string) string {
	return filepath.Join(t.WorkDir, name)
}

// run executes one external tool with its working directory pinned, so
// relative output paths land where the next stage expects them.
func (t *Typesetter) run(ctx context.Context, dir, tool string, args ...string) error {
	start := time.Now()
	cmd := newCommand(ctx, tool, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	logging.ToolRun(tool, args, time.Since(start))
	if err != nil {
		trimmed := bytes.TrimSpace(out)
		if len(trimmed) > 0 {
			err = fmt.Errorf("%w: %s", err, trimmed)
		}
		return errors.NewRender(tool, strings.Join(args, " "), err)
	}
	return nil
}
