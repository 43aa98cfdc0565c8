package lyrics

import (
	"testing"

	"github.com/physikerchor/choirdeck/core/errors"
)

// TestNormalize verifies word formation from tokenized lyrics.
func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Ma -- ry had a lit -- tle lamb", "Mary had a little lamb"},
		{"glo -- o __ __ ri -- a", "gloo ria"},
		{"plain words only", "plain words only"},
		{"", ""},
		{"tri -- ple -- join", "triplejoin"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

// TestNormalizeIdempotent verifies normalizing twice changes nothing.
func TestNormalizeIdempotent(t *testing.T) {
	once := Normalize("Im Krug zum grü -- nen Kran -- ze")
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize not idempotent: %q vs %q", once, twice)
	}
}

// TestPositions verifies that every token except a join marker occupies
// a syllable position.
func TestPositions(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"one two three", 3},
		{"lit -- tle", 2},
		{"glo __ __ ry", 4},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Positions(tt.raw); got != tt.want {
			t.Errorf("Positions(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

// TestSlice verifies position-based extraction with the inclusive end.
func TestSlice(t *testing.T) {
	tests := []struct {
		raw        string
		start, end int
		want       string
	}{
		{"one two three four", 1, 3, "two three four"},
		{"one two three four", 0, 1, "one two"},
		{"lit -- tle lamb", 0, 1, "lit -- tle"},
		{"glo __ ry day", 1, 2, "__ ry"},
		{"one two three", 3, 3, ""},
	}
	for _, tt := range tests {
		got, err := Slice(tt.raw, tt.start, tt.end)
		if err != nil {
			t.Errorf("Slice(%q, %d, %d): %v", tt.raw, tt.start, tt.end, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Slice(%q, %d, %d) = %q, want %q", tt.raw, tt.start, tt.end, got, tt.want)
		}
	}
}

// TestSliceOverlap verifies that consecutive windows share their
// boundary syllable, the way a shard's last note opens the next shard.
func TestSliceOverlap(t *testing.T) {
	raw := "one two three four five"
	first, err := Slice(raw, 0, 2)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	second, err := Slice(raw, 2, 4)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if first != "one two three" || second != "three four five" {
		t.Errorf("overlap slices = %q / %q", first, second)
	}
}

// TestSliceBorrowedFinalPosition verifies that the extra position past
// the last syllable is not an underflow.
func TestSliceBorrowedFinalPosition(t *testing.T) {
	got, err := Slice("one two", 0, 2)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if got != "one two" {
		t.Errorf("Slice = %q, want %q", got, "one two")
	}
}

// TestSliceUnderflow verifies that a window past the syllables returns
// the longest available slice alongside the typed error.
func TestSliceUnderflow(t *testing.T) {
	got, err := Slice("one two", 0, 5)
	if !errors.Is(err, errors.ErrLyricUnderflow) {
		t.Fatalf("err = %v, want ErrLyricUnderflow", err)
	}
	var lre *errors.LyricRangeError
	if !errors.As(err, &lre) {
		t.Fatal("errors.As should find LyricRangeError")
	}
	if lre.Available != 2 || lre.Slice != "one two" {
		t.Errorf("LyricRangeError = %+v", lre)
	}
	if got != "one two" {
		t.Errorf("Slice = %q, want recoverable %q", got, "one two")
	}
}
