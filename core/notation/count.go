package notation

// CountSingable counts the audibly distinct, syllable-bearing events in
// a token sequence, starting from the given open-portamento depth. A
// tied run counts once, a portamento group counts once (when its depth
// returns to zero), rests and structural comments count zero.
//
// The final depth and the counted total are returned so a caller may
// thread slide state across shard boundaries. The pipeline resets depth
// to zero at each shard start; a portamento or tie straddling a boundary
// marker is therefore miscounted there (see Split, which rejects
// unbalanced slides per segment before it gets that far).
func CountSingable(tokens []string, depth int) (count, finalDepth int) {
	pendingTie := false
	for _, tok := range tokens {
		c := Classify(tok)
		if c.SlideClose {
			depth--
			if depth == 0 {
				// The whole group, plus the trailing melisma
				// placeholder it absorbs, is sung once.
				count++
			}
			if pendingTie {
				pendingTie = c.Tie
			} else if c.Tie {
				pendingTie = true
			}
			continue
		}
		if pendingTie {
			// Consumed by the tie; ties may chain.
			pendingTie = c.Tie
			continue
		}
		if c.Tie {
			pendingTie = true
		}
		if c.SlideOpen {
			depth++
			continue
		}
		if depth == 0 && c.Pitch {
			count++
		}
	}
	return count, depth
}
