package deck

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/physikerchor/choirdeck/core/errors"
)

// fieldSeparator joins note fields inside the collection database.
const fieldSeparator = "\x1f"

// Note is one flashcard note: field values matching its model plus tags.
type Note struct {
	Model  *Model
	Fields []string
	Tags   []string

	// GUIDFields are the indices of the fields hashed into the note
	// GUID. Only identifying fields belong here; hashing generated
	// asset names would break re-import updates. Empty means all.
	GUIDFields []int
}

// GUID returns the stable identifier Anki uses to match re-imported
// notes.
func (n *Note) GUID() string {
	h := blake3.New()
	if len(n.GUIDFields) == 0 {
		for _, f := range n.Fields {
			h.WriteString(f)
			h.WriteString("__")
		}
	} else {
		for _, i := range n.GUIDFields {
			h.WriteString(n.Fields[i])
			h.WriteString("__")
		}
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

// checksum is Anki's field checksum: the first 8 hex digits of the
// SHA-1 of the sort field, as an integer. The format fixes the hash.
func checksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	return int64(binary.BigEndian.Uint32(sum[:4]))
}

// validate checks the note against its model.
func (n *Note) validate() error {
	if n.Model == nil {
		return fmt.Errorf("note without model: %w", errors.ErrInvalidInput)
	}
	if len(n.Fields) != len(n.Model.Fields) {
		return fmt.Errorf("note has %d fields, model %s wants %d: %w",
			len(n.Fields), n.Model.Name, len(n.Model.Fields), errors.ErrInvalidInput)
	}
	for _, f := range n.Fields {
		if strings.Contains(f, fieldSeparator) {
			return fmt.Errorf("field value contains the field separator: %w", errors.ErrInvalidInput)
		}
	}
	return nil
}

// joinedFields renders the fields as stored in the notes table.
func (n *Note) joinedFields() string {
	return strings.Join(n.Fields, fieldSeparator)
}

// joinedTags renders the tags as stored in the notes table.
func (n *Note) joinedTags() string {
	if len(n.Tags) == 0 {
		return ""
	}
	return " " + strings.Join(n.Tags, " ") + " "
}

// Deck is an ordered collection of notes under one deck id.
type Deck struct {
	ID    int64
	Name  string
	Notes []*Note
}

// NewDeck creates a deck with the given stable id.
func NewDeck(id int64, name string) *Deck {
	return &Deck{ID: id, Name: name}
}

// AddNote appends a note to the deck.
func (d *Deck) AddNote(n *Note) error {
	if err := n.validate(); err != nil {
		return err
	}
	d.Notes = append(d.Notes, n)
	return nil
}
