package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

// TestApkgPackager verifies the end-to-end packaging path: the .apkg
// lands in the output directory and the media files are copied under
// the media directory.
func TestApkgPackager(t *testing.T) {
	work := t.TempDir()
	outDir := t.TempDir()
	mediaDir := filepath.Join(t.TempDir(), "collection.media")

	media := make([]string, 3)
	for i, name := range []string{"q.mp3", "q.png", "qb.png"} {
		p := filepath.Join(work, name)
		if err := os.WriteFile(p, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		media[i] = p
	}

	records := []ShardRecord{
		{
			Index: 0, First: true,
			AnswerScore: "q.png", AnswerScoreBare: "qb.png",
			AnswerLyrics: "one two", AnswerAudio: "q.mp3",
			Title: "Test Song", Tags: []string{"test_song", "bass"},
		},
	}

	p := NewApkgPackager(outDir, mediaDir, "Physikerchor")
	if err := p.Package("Test Song", records, media); err != nil {
		t.Fatalf("Package: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "Test Song.apkg")); err != nil {
		t.Errorf("apkg not written: %v", err)
	}
	for _, name := range []string{"q.mp3", "q.png", "qb.png"} {
		content, err := os.ReadFile(filepath.Join(mediaDir, name))
		if err != nil {
			t.Errorf("media %s not copied: %v", name, err)
			continue
		}
		if string(content) != name {
			t.Errorf("media %s content = %q", name, content)
		}
	}

	// A rebuild with unchanged media must succeed and leave the copies
	// intact.
	if err := p.Package("Test Song", records, media); err != nil {
		t.Fatalf("repeat Package: %v", err)
	}
}
