package match

// Distance is the Levenshtein edit distance between a and b, counted in
// runes.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	row := make([]int, len(ra)+1)
	for i := range row {
		row[i] = i
	}

	for j, cb := range rb {
		diag := row[0]
		row[0] = j + 1

		for i, ca := range ra {
			cost := 1
			if ca == cb {
				cost = 0
			}

			next := min(row[i+1]+1, row[i]+1, diag+cost)
			diag, row[i+1] = row[i+1], next
		}
	}

	return row[len(ra)]
}

// Similarity maps Distance onto [0, 1], 1 meaning equal.
func Similarity(a, b string) float64 {
	n := max(len([]rune(a)), len([]rune(b)))
	if n == 0 {
		return 1
	}

	return 1 - float64(Distance(a, b))/float64(n)
}
