package notation

import "testing"

// TestCountSingablePlain verifies the base case: one syllable per pitch,
// none for rests or comments.
func TestCountSingablePlain(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"pitches", []string{"c4", "d4", "e4"}, 3},
		{"rests excluded", []string{"c4", "r4", "d4", "r2"}, 2},
		{"comments excluded", []string{"%%% \\time 3/4", "c4", "%%% \\partial 4", "d4"}, 2},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		got, depth := CountSingable(tt.tokens, 0)
		if got != tt.want || depth != 0 {
			t.Errorf("%s: CountSingable = (%d, %d), want (%d, 0)", tt.name, got, depth, tt.want)
		}
	}
}

// TestCountSingableTies verifies that a tied run is sung on one syllable.
func TestCountSingableTies(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"simple tie", []string{"c4~", "c8"}, 1},
		{"chained ties", []string{"c4~", "c8~", "c2"}, 1},
		{"tie then fresh note", []string{"c4~", "c8", "d4"}, 2},
		{"two separate ties", []string{"c4~", "c8", "d4~", "d8"}, 2},
	}
	for _, tt := range tests {
		got, depth := CountSingable(tt.tokens, 0)
		if got != tt.want || depth != 0 {
			t.Errorf("%s: CountSingable = (%d, %d), want (%d, 0)", tt.name, got, depth, tt.want)
		}
	}
}

// TestCountSingableSlides verifies that a portamento group is sung on one
// syllable, counted when its depth returns to zero.
func TestCountSingableSlides(t *testing.T) {
	tests := []struct {
		name      string
		tokens    []string
		want      int
		wantDepth int
	}{
		{"simple group", []string{"c4(", "d8", "e8)"}, 1, 0},
		{"group then note", []string{"c4(", "d8", "e8)", "f4"}, 2, 0},
		{"unclosed group", []string{"c4(", "d8"}, 0, 1},
		{"close from carried depth", []string{"d8", "e8)"}, 1, 0},
		{"tie out of a group", []string{"c4(", "e8)~", "e4", "f4"}, 2, 0},
	}
	for _, tt := range tests {
		depth := 0
		if tt.name == "close from carried depth" {
			depth = 1
		}
		got, gotDepth := CountSingable(tt.tokens, depth)
		if got != tt.want || gotDepth != tt.wantDepth {
			t.Errorf("%s: CountSingable = (%d, %d), want (%d, %d)",
				tt.name, got, gotDepth, tt.want, tt.wantDepth)
		}
	}
}
