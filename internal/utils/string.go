package utils

import (
	"context"
)

// FindClosestString returns the candidate with the smallest edit distance to s, candidates farther
// than maxDifferences are ignored. ok is false if no candidate is close enough or if ctx is done.
func FindClosestString(ctx context.Context, candidates []string, s string, maxDifferences int) (closest string, distance int, ok bool) {
	distance = maxDifferences + 1

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			return "", 0, false
		default:
		}

		d := levenshtein([]rune(candidate), []rune(s))
		if d < distance {
			closest = candidate
			distance = d
			ok = true
		}
	}

	if !ok {
		return "", 0, false
	}
	return
}

func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
