package compiler

import "strings"

// suggest returns the candidate most similar to name, or "" when none is
// close enough to be worth offering. Comparison ignores case and allows
// roughly one edit per two characters of the misspelled name. The first
// candidate at the smallest distance wins.
func suggest(name string, candidates []string) string {
	limit := len(name) / 2
	if limit < 1 {
		limit = 1
	}
	best := ""
	bestDist := limit + 1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein(lower, strings.ToLower(c), bestDist)
		if d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

// levenshtein returns the edit distance between x and y. If the distance
// exceeds max, the result may be an approximation that is still > max.
func levenshtein(x, y string, max int) int {
	// Strip any common prefix and suffix; they contribute nothing.
	for len(x) > 0 && len(y) > 0 && x[0] == y[0] {
		x, y = x[1:], y[1:]
	}
	for len(x) > 0 && len(y) > 0 && x[len(x)-1] == y[len(y)-1] {
		x, y = x[:len(x)-1], y[:len(y)-1]
	}
	if x == "" {
		return len(y)
	}
	if y == "" {
		return len(x)
	}

	// One-row dynamic programming with an early exit once every cell in a
	// row exceeds max.
	row := make([]int, len(y)+1)
	for i := range row {
		row[i] = i
	}
	for i := 1; i <= len(x); i++ {
		row[0] = i
		best := i
		prev := i - 1
		for j := 1; j <= len(y); j++ {
			sub := prev
			if x[i-1] != y[j-1] {
				sub++
			}
			k := min(sub, min(row[j-1]+1, row[j]+1))
			prev, row[j] = row[j], k
			best = min(best, k)
		}
		if best > max {
			return best
		}
	}
	return row[len(y)]
}
