package pipeline

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/physikerchor/choirdeck/core/deck"
	"github.com/physikerchor/choirdeck/core/errors"
	"github.com/physikerchor/choirdeck/internal/logging"
)

// ApkgPackager packages shard records as an Anki .apkg and copies the
// media assets into a fixed media directory.
type ApkgPackager struct {
	OutDir   string // where the .apkg lands
	MediaDir string // e.g. collection.media
	DeckID   int64
	DeckName string
}

// NewApkgPackager returns a packager with the stable choir deck id.
func NewApkgPackager(outDir, mediaDir, deckName string) *ApkgPackager {
	return &ApkgPackager{
		OutDir:   outDir,
		MediaDir: mediaDir,
		DeckID:   deck.ChoirDeckID,
		DeckName: deckName,
	}
}

// Package implements Packager.
func (a *ApkgPackager) Package(title string, records []ShardRecord, media []string) error {
	d := deck.NewDeck(a.DeckID, a.DeckName)
	model := deck.ChoirModel()
	for _, rec := range records {
		first := ""
		if rec.First {
			first = "True"
		}
		note := &deck.Note{
			Model: model,
			Fields: []string{
				rec.Title + " - " + strconv.Itoa(rec.Index),
				rec.Title,
				strconv.Itoa(rec.Index),
				first,
				rec.QuestionScore,
				rec.QuestionScoreBare,
				rec.QuestionLyrics,
				rec.QuestionAudio,
				rec.AnswerScore,
				rec.AnswerScoreBare,
				rec.AnswerLyrics,
				rec.AnswerAudio,
			},
			Tags: rec.Tags,
			// Only the identifying fields: hashing generated asset
			// names would give every rebuild fresh GUIDs.
			GUIDFields: []int{1, 2},
		}
		if err := d.AddNote(note); err != nil {
			return err
		}
	}

	pkg := &deck.Package{Deck: d, Media: media}
	out := filepath.Join(a.OutDir, title+".apkg")
	if err := pkg.WriteToFile(out); err != nil {
		return err
	}
	logging.Info("package written", "path", out, "notes", len(records), "media", len(media))

	return a.copyMedia(media)
}

// copyMedia stores the media files under MediaDir. Files already
// present with identical content are left alone, so rebuilds stay
// idempotent.
func (a *ApkgPackager) copyMedia(media []string) error {
	if err := os.MkdirAll(a.MediaDir, 0755); err != nil {
		return errors.NewIO("create directory", a.MediaDir, err)
	}
	for _, src := range media {
		dst := filepath.Join(a.MediaDir, filepath.Base(src))
		same, err := sameContent(src, dst)
		if err != nil {
			return err
		}
		if same {
			continue
		}
		if err := copyFile(src, dst); err != nil {
			return err
		}
	}
	return nil
}

// sameContent reports whether dst exists with the same blake3 hash as
// src.
func sameContent(src, dst string) (bool, error) {
	if _, err := os.Stat(dst); err != nil {
		return false, nil
	}
	srcSum, err := hashFile(src)
	if err != nil {
		return false, err
	}
	dstSum, err := hashFile(dst)
	if err != nil {
		return false, err
	}
	return srcSum == dstSum, nil
}

func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.NewIO("read", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.NewIO("open", src, err)
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.NewIO("create", dst, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return errors.NewIO("copy", dst, err)
	}
	return nil
}
