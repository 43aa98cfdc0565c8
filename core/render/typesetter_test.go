package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/physikerchor/choirdeck/core/errors"
)

// fakeTools replaces newCommand with shell stand-ins that produce the
// files each stage of the real toolchain would leave behind.
func fakeTools(t *testing.T) *[]string {
	t.Helper()
	var calls []string
	orig := newCommand
	newCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, name)
		last := args[len(args)-1]
		base := strings.TrimSuffix(last, filepath.Ext(last))
		var script string
		switch name {
		case "lilypond":
			script = fmt.Sprintf("touch %s.midi", base)
		case "timidity":
			script = fmt.Sprintf("touch %s.wav", base)
		case "lame":
			script = fmt.Sprintf("touch %s.mp3", base)
		case "lilypond-book":
			bookDir := args[len(args)-2]
			script = fmt.Sprintf("mkdir -p %s && touch %s/%s.tex", bookDir, bookDir, base)
		case "latex":
			script = fmt.Sprintf("touch %s.dvi", base)
		case "dvipng":
			script = fmt.Sprintf("touch %s1.png", base)
		default:
			script = "false"
		}
		return exec.CommandContext(ctx, "sh", "-c", script)
	}
	t.Cleanup(func() { newCommand = orig })
	return &calls
}

// TestRenderAudio verifies the lilypond/timidity/lame chain and the
// intermediate cleanup.
func TestRenderAudio(t *testing.T) {
	calls := fakeTools(t)
	ts, err := NewTypesetter(t.TempDir())
	if err != nil {
		t.Fatalf("NewTypesetter: %v", err)
	}

	path, err := ts.RenderAudio(context.Background(), "c'4 d'4", AudioOptions{
		GlobalOptions: `\key c \major`,
		Tempo:         "4=100",
	})
	if err != nil {
		t.Fatalf("RenderAudio: %v", err)
	}
	if filepath.Ext(path) != ".mp3" {
		t.Errorf("path = %q, want an .mp3", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("result missing: %v", err)
	}

	want := []string{"lilypond", "timidity", "lame"}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("tool order = %v, want %v", *calls, want)
	}

	base := strings.TrimSuffix(path, ".mp3")
	for _, ext := range []string{".ly", ".midi", ".wav"} {
		if _, err := os.Stat(base + ext); err == nil {
			t.Errorf("intermediate %s should be removed", ext)
		}
	}
}

// TestRenderImage verifies the lilypond-book/latex/dvipng chain and the
// book directory cleanup.
func TestRenderImage(t *testing.T) {
	calls := fakeTools(t)
	ts, err := NewTypesetter(t.TempDir())
	if err != nil {
		t.Fatalf("NewTypesetter: %v", err)
	}

	path, err := ts.RenderImage(context.Background(), "c'4 d'4", ImageOptions{
		GlobalOptions: `\key c \major`,
		Clef:          "bass",
		Lyrics:        "one two",
	})
	if err != nil {
		t.Fatalf("RenderImage: %v", err)
	}
	if filepath.Ext(path) != ".png" {
		t.Errorf("path = %q, want a .png", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("result missing: %v", err)
	}

	want := []string{"lilypond-book", "latex", "dvipng"}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("tool order = %v, want %v", *calls, want)
	}

	bookDir := strings.TrimSuffix(path, ".png") + "_book"
	if _, err := os.Stat(bookDir); err == nil {
		t.Error("book directory should be removed")
	}
}

// TestRenderToolFailure verifies a failing tool surfaces as a typed
// render error naming it.
func TestRenderToolFailure(t *testing.T) {
	orig := newCommand
	newCommand = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "echo 'GUILE signaled an error'; exit 1")
	}
	t.Cleanup(func() { newCommand = orig })

	ts, err := NewTypesetter(t.TempDir())
	if err != nil {
		t.Fatalf("NewTypesetter: %v", err)
	}
	_, err = ts.RenderAudio(context.Background(), "c'4", AudioOptions{Tempo: "4=100"})
	var re *errors.RenderError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RenderError", err)
	}
	if re.Tool != "lilypond" {
		t.Errorf("Tool = %q, want %q", re.Tool, "lilypond")
	}
	if !strings.Contains(err.Error(), "GUILE signaled an error") {
		t.Errorf("error should carry the tool output: %v", err)
	}
}
