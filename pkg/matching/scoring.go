package matching

import (
	"math"
	"strings"
)

// Scorer provides the string and value comparisons used by the matcher
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// ExactMatch returns 1.0 for exact match, 0.0 otherwise
func (s *Scorer) ExactMatch(a, b string, caseSensitive bool) float64 {
	if !caseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// Ratio returns the Ratcliff/Obershelp similarity 2*M/T, where M is the number of
// characters in the matching blocks found by recursively taking the longest common
// substring and T is the total number of characters in both strings. Two empty strings
// score 1.0.
//
// Ties between equally long blocks go to the earliest block in the first string, then
// the earliest in the second. The pair is put in a canonical order before scoring so
// that Ratio(a, b) == Ratio(b, a).
func (s *Scorer) Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if a > b {
		ra, rb = rb, ra
	}
	matched := matchingCharacters(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// RelativeDifference returns |a-b| / max(a, b). Both values are expected to be positive.
func (s *Scorer) RelativeDifference(a, b float64) float64 {
	if a == b {
		return 0.0
	}
	denominator := math.Max(a, b)
	if denominator <= 0 {
		return math.Inf(1)
	}
	return math.Abs(a-b) / denominator
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchingCharacters sums the sizes of all matching blocks between a and b
func matchingCharacters(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	total := 0
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		sp := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, sp)
		if k == 0 {
			continue
		}
		total += k
		if sp.alo < i && sp.blo < j {
			queue = append(queue, span{sp.alo, i, sp.blo, j})
		}
		if i+k < sp.ahi && j+k < sp.bhi {
			queue = append(queue, span{i + k, sp.ahi, j + k, sp.bhi})
		}
	}
	return total
}

// longestMatch finds the longest common block a[i:i+k] == b[j:j+k] inside the span
func longestMatch(a []rune, b2j map[rune][]int, sp span) (int, int, int) {
	besti, bestj, bestsize := sp.alo, sp.blo, 0
	j2len := map[int]int{}
	for i := sp.alo; i < sp.ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < sp.blo {
				continue
			}
			if j >= sp.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return besti, bestj, bestsize
}
