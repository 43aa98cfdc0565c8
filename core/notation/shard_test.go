package notation

import (
	"reflect"
	"strings"
	"testing"

	"github.com/physikerchor/choirdeck/core/errors"
)

// TestSegments verifies token-wise splitting on boundary markers.
func TestSegments(t *testing.T) {
	tests := []struct {
		annotated string
		want      []string
	}{
		{"c4 d4 %% e4 %% f4", []string{"c4 d4", "e4", "f4"}},
		{"c4 d4", []string{"c4 d4"}},
		{"c4 %%", []string{"c4", ""}},
		{"%% c4", []string{"", "c4"}},
	}
	for _, tt := range tests {
		if got := Segments(tt.annotated); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Segments(%q) = %v, want %v", tt.annotated, got, tt.want)
		}
	}
}

// TestSplit verifies that whole-line normalization context (relative
// octaves, carried durations) flows across shard boundaries and that
// the shards concatenate back to the normalized line.
func TestSplit(t *testing.T) {
	ctx := PitchContext{Mode: ModeRelative, Root: "c'"}
	shards, err := Split("c8 d e f %% g a b c", ctx, RelativeNormalizer{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []string{"c'8 d'8 e'8 f'8", "g'8 a'8 b'8 c''8"}
	if !reflect.DeepEqual(shards, want) {
		t.Errorf("Split = %v, want %v", shards, want)
	}

	full, err := RelativeNormalizer{}.Normalize(ctx, "c8 d e f g a b c")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if joined := strings.Join(shards, " "); joined != strings.Join(full, " ") {
		t.Errorf("shards do not reassemble: %q vs %q", joined, strings.Join(full, " "))
	}
}

// TestSplitAbsorbsComments verifies that a structural comment stays with
// the event it follows.
func TestSplitAbsorbsComments(t *testing.T) {
	ctx := PitchContext{Mode: ModeRelative, Root: "c'"}
	shards, err := Split(`c4 \time 3/4 %% d4 e4`, ctx, RelativeNormalizer{})
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := []string{`c'4 %%% \time 3/4`, "d'4 e'4"}
	if !reflect.DeepEqual(shards, want) {
		t.Errorf("Split = %v, want %v", shards, want)
	}
}

// TestSplitRejectsUnbalancedSegment verifies that a portamento straddling
// a boundary marker is rejected, not miscounted.
func TestSplitRejectsUnbalancedSegment(t *testing.T) {
	ctx := PitchContext{Mode: ModeRelative, Root: "c'"}
	_, err := Split("c4( %% d4)", ctx, RelativeNormalizer{})
	if !errors.Is(err, errors.ErrMalformedNotation) {
		t.Errorf("err = %v, want ErrMalformedNotation", err)
	}
}

// TestCarve verifies event distribution and trailing-comment absorption.
func TestCarve(t *testing.T) {
	stream := []string{"c4", `%%% \time 3/4`, `%%% \partial 4`, "d4", "r4", "e4"}
	shards, err := Carve(stream, []int{1, 3})
	if err != nil {
		t.Fatalf("Carve: %v", err)
	}
	want := [][]string{
		{"c4", `%%% \time 3/4`, `%%% \partial 4`},
		{"d4", "r4", "e4"},
	}
	if !reflect.DeepEqual(shards, want) {
		t.Errorf("Carve = %v, want %v", shards, want)
	}
}

// TestCarveCountMismatch verifies both mismatch directions surface as
// ShardCountError.
func TestCarveCountMismatch(t *testing.T) {
	if _, err := Carve([]string{"c4", "d4"}, []int{3}); !errors.Is(err, errors.ErrShardMismatch) {
		t.Errorf("shortfall: err = %v, want ErrShardMismatch", err)
	}
	_, err := Carve([]string{"c4", "d4", "e4"}, []int{2})
	var sce *errors.ShardCountError
	if !errors.As(err, &sce) {
		t.Fatalf("leftover: err = %v, want ShardCountError", err)
	}
	if sce.Consumed != 2 || sce.Available != 3 {
		t.Errorf("ShardCountError = %+v, want Consumed 2 Available 3", sce)
	}
}
