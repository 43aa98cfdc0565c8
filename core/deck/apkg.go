package deck

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/physikerchor/choirdeck/core/errors"
	"github.com/physikerchor/choirdeck/core/sqlite"
)

// Package bundles a deck and its media files into a distributable
// .apkg: a zip holding the collection database, a media manifest and
// the numbered media blobs.
type Package struct {
	Deck  *Deck
	Media []string // paths to media files, in reference order
}

// Injectable for tests.
var timeNow = time.Now

// WriteToFile writes the package to path.
func (p *Package) WriteToFile(path string) error {
	tmp, err := os.MkdirTemp("", "choirdeck-apkg-*")
	if err != nil {
		return errors.NewIO("create temp directory", "", err)
	}
	defer os.RemoveAll(tmp)

	dbPath := filepath.Join(tmp, "collection.anki2")
	if err := p.writeCollection(dbPath); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	if err := addZipFile(zw, "collection.anki2", dbPath); err != nil {
		return err
	}

	manifest := make(map[string]string, len(p.Media))
	for i, mediaPath := range p.Media {
		name := strconv.Itoa(i)
		manifest[name] = filepath.Base(mediaPath)
		if err := addZipFile(zw, name, mediaPath); err != nil {
			return err
		}
	}
	manifestJSON, err := json.Marshal(manifest)
	if err != nil {
		return errors.Wrap(err, "marshaling media manifest")
	}
	w, err := zw.Create("media")
	if err != nil {
		return errors.NewIO("write", "media manifest", err)
	}
	if _, err := w.Write(manifestJSON); err != nil {
		return errors.NewIO("write", "media manifest", err)
	}

	if err := zw.Close(); err != nil {
		return errors.NewIO("finalize", path, err)
	}
	return nil
}

// addZipFile stores one file uncompressed-path-wise under name.
func addZipFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer f.Close()
	w, err := zw.Create(name)
	if err != nil {
		return errors.NewIO("write", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return errors.NewIO("write", name, err)
	}
	return nil
}

// writeCollection builds the Anki 2 collection database.
func (p *Package) writeCollection(path string) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening collection database")
	}
	defer db.Close()

	if _, err := db.Exec(collectionSchema); err != nil {
		return errors.Wrap(err, "creating collection schema")
	}

	now := timeNow()
	if err := p.writeCol(db, now); err != nil {
		return err
	}
	if err := p.writeNotes(db, now); err != nil {
		return err
	}
	return nil
}

func (p *Package) writeCol(db *sql.DB, now time.Time) error {
	models := map[string]json.RawMessage{}
	for _, n := range p.Deck.Notes {
		key := strconv.FormatInt(n.Model.ID, 10)
		if _, ok := models[key]; !ok {
			models[key] = n.Model.collectionJSON(p.Deck.ID)
		}
	}
	modelsJSON, err := json.Marshal(models)
	if err != nil {
		return errors.Wrap(err, "marshaling models")
	}

	decks := map[string]any{
		"1": defaultDeckJSON(1, "Default", now),
		strconv.FormatInt(p.Deck.ID, 10): defaultDeckJSON(p.Deck.ID, p.Deck.Name, now),
	}
	decksJSON, err := json.Marshal(decks)
	if err != nil {
		return errors.Wrap(err, "marshaling decks")
	}

	confJSON, _ := json.Marshal(map[string]any{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"timeLim":       0,
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newBury":       true,
		"newSpread":     0,
		"dueCounts":     true,
		"curModel":      strconv.FormatInt(ChoirModelID, 10),
		"collapseTime":  1200,
	})
	dconfJSON, _ := json.Marshal(map[string]any{
		"1": map[string]any{
			"id":       1,
			"name":     "Default",
			"replayq":  true,
			"autoplay": true,
			"timer":    0,
			"maxTaken": 60,
			"mod":      0,
			"usn":      0,
			"new": map[string]any{
				"bury": true, "delays": []int{1, 10}, "initialFactor": 2500,
				"ints": []int{1, 4, 7}, "order": 1, "perDay": 20, "separate": true,
			},
			"rev": map[string]any{
				"bury": true, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1,
				"maxIvl": 36500, "minSpace": 1, "perDay": 100,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "leechAction": 0, "leechFails": 8,
				"minInt": 1, "mult": 0,
			},
			"dyn": false,
		},
	})

	_, err = db.Exec(
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now.Unix(), now.UnixMilli(), now.UnixMilli(),
		string(confJSON), string(modelsJSON), string(decksJSON), string(dconfJSON),
	)
	return errors.Wrap(err, "writing col row")
}

func defaultDeckJSON(id int64, name string, now time.Time) map[string]any {
	return map[string]any{
		"id":               id,
		"name":             name,
		"desc":             "",
		"mod":              now.Unix(),
		"usn":              -1,
		"collapsed":        false,
		"browserCollapsed": false,
		"dyn":              0,
		"conf":             1,
		"extendNew":        0,
		"extendRev":        50,
		"newToday":         []int{0, 0},
		"revToday":         []int{0, 0},
		"lrnToday":         []int{0, 0},
		"timeToday":        []int{0, 0},
	}
}

func (p *Package) writeNotes(db *sql.DB, now time.Time) error {
	noteStmt, err := db.Prepare(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, -1, ?, ?, ?, ?, 0, '')`)
	if err != nil {
		return errors.Wrap(err, "preparing note insert")
	}
	defer noteStmt.Close()

	cardStmt, err := db.Prepare(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return errors.Wrap(err, "preparing card insert")
	}
	defer cardStmt.Close()

	noteID := now.UnixMilli()
	cardID := noteID + 1_000_000
	for i, n := range p.Deck.Notes {
		if err := n.validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		id := noteID + int64(i)
		if _, err := noteStmt.Exec(
			id, n.GUID(), n.Model.ID, now.Unix(),
			n.joinedTags(), n.joinedFields(), n.Fields[0], checksum(n.Fields[0]),
		); err != nil {
			return errors.Wrapf(err, "inserting note %d", i)
		}
		for ord := range n.Model.Templates {
			cardID++
			if _, err := cardStmt.Exec(cardID, id, p.Deck.ID, ord, now.Unix(), i+1); err != nil {
				return errors.Wrapf(err, "inserting card %d for note %d", ord, i)
			}
		}
	}
	return nil
}

// collectionSchema is the Anki 2 collection layout. The target
// application fixes it; nothing here is tunable.
const collectionSchema = `
CREATE TABLE col (
    id integer primary key,
    crt integer not null,
    mod integer not null,
    scm integer not null,
    ver integer not null,
    dty integer not null,
    usn integer not null,
    ls integer not null,
    conf text not null,
    models text not null,
    decks text not null,
    dconf text not null,
    tags text not null
);
CREATE TABLE notes (
    id integer primary key,
    guid text not null,
    mid integer not null,
    mod integer not null,
    usn integer not null,
    tags text not null,
    flds text not null,
    sfld text not null,
    csum integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE cards (
    id integer primary key,
    nid integer not null,
    did integer not null,
    ord integer not null,
    mod integer not null,
    usn integer not null,
    type integer not null,
    queue integer not null,
    due integer not null,
    ivl integer not null,
    factor integer not null,
    reps integer not null,
    lapses integer not null,
    left integer not null,
    odue integer not null,
    odid integer not null,
    flags integer not null,
    data text not null
);
CREATE TABLE revlog (
    id integer primary key,
    cid integer not null,
    usn integer not null,
    ease integer not null,
    ivl integer not null,
    lastIvl integer not null,
    factor integer not null,
    time integer not null,
    type integer not null
);
CREATE TABLE graves (
    usn integer not null,
    oid integer not null,
    type integer not null
);
CREATE INDEX ix_notes_usn ON notes (usn);
CREATE INDEX ix_cards_usn ON cards (usn);
CREATE INDEX ix_revlog_usn ON revlog (usn);
CREATE INDEX ix_cards_nid ON cards (nid);
CREATE INDEX ix_cards_sched ON cards (did, queue, due);
CREATE INDEX ix_revlog_cid ON revlog (cid);
CREATE INDEX ix_notes_csum ON notes (csum);
`
