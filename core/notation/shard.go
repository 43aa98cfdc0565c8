package notation

import (
	"strings"

	"github.com/physikerchor/choirdeck/core/errors"
)

// Segments splits an annotated notation line on its boundary markers.
// k markers yield k+1 segments, in source order. Markers only ever
// appear between tokens, so splitting is done token-wise.
func Segments(annotated string) []string {
	var segs []string
	var cur []string
	for _, f := range Fields(annotated) {
		if Classify(f).Boundary {
			segs = append(segs, strings.Join(cur, " "))
			cur = nil
			continue
		}
		cur = append(cur, f)
	}
	return append(segs, strings.Join(cur, " "))
}

// Split turns an annotated voice line into normalized per-shard
// notation strings. The whole line is normalized in one pass (relative
// pitch and carried durations need the full context), each original
// segment is parsed alone to learn how many events it owns, and the
// normalized stream is then carved so every shard holds exactly its
// events plus the structural comments attached to them. Concatenating
// the shards token-wise reproduces the normalized line exactly.
func Split(annotated string, ctx PitchContext, norm Normalizer) ([]string, error) {
	segs := Segments(annotated)

	full, err := norm.Normalize(ctx, strings.Join(segs, " "))
	if err != nil {
		return nil, err
	}

	lengths := make([]int, len(segs))
	for i, seg := range segs {
		n, err := ParseSegment(ctx, seg)
		if err != nil {
			return nil, errors.Wrapf(err, "segment %d", i)
		}
		lengths[i] = n
	}

	carved, err := Carve(full, lengths)
	if err != nil {
		return nil, err
	}

	shards := make([]string, len(carved))
	for i, tokens := range carved {
		shards[i] = strings.Join(tokens, " ")
	}
	return shards, nil
}

// Carve distributes a normalized token stream over shards according to
// per-segment event counts. Structural comments never count toward a
// length; a comment immediately following a shard's last event is
// absorbed into that shard, repeatedly, until a performable token
// follows. The counts must account for every event in the stream:
// leftover or missing tokens are a ShardCountError, never silently
// truncated or padded.
func Carve(normalized []string, lengths []int) ([][]string, error) {
	want := 0
	for _, l := range lengths {
		want += l
	}
	have := 0
	for _, tok := range normalized {
		if !Classify(tok).Comment {
			have++
		}
	}
	if want != have {
		return nil, errors.NewShardCount(want, have)
	}

	rest := normalized
	shards := make([][]string, 0, len(lengths))
	for _, l := range lengths {
		var shard []string
		events := 0
		for events < l {
			tok := rest[0]
			rest = rest[1:]
			shard = append(shard, tok)
			if !Classify(tok).Comment {
				events++
			}
		}
		// A trailing comment belongs to the event just consumed;
		// absorbing one can expose another, so loop to the fixed point.
		for len(rest) > 0 && Classify(rest[0]).Comment {
			shard = append(shard, rest[0])
			rest = rest[1:]
		}
		shards = append(shards, shard)
	}
	return shards, nil
}
