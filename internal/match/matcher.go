package match

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// DefaultThreshold is the minimum acceptable similarity for city matching.
const DefaultThreshold = 0.85

// Match is the best candidate for a query.
type Match struct {
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact"`
}

// Similarity returns the Levenshtein-derived similarity of two already
// normalized strings: (maxLen - distance) / maxLen over runes. Two empty
// strings are defined as identical (1.0). Symmetric in its arguments.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := levenshtein.Distance(a, b, levenshtein.NewParams())
	return float64(maxLen-dist) / float64(maxLen)
}

// FindMatch returns the best candidate for query among names, in three
// tiers over normalized strings:
//
//	1. exact equality — similarity 1.0, short-circuits
//	2. containment either way (e.g. "BOGOTA" vs "BOGOTA DC") — always a
//	   match, reported with its edit-distance score
//	3. edit-distance similarity, gated by threshold
//
// A containment hit wins regardless of threshold: "BOGOTA" inside
// "BOGOTA DC" is a real reference to that city even though the raw edit
// score (6/9) sits below the default threshold. Ties break
// deterministically to the first occurrence in input order. A false
// second return means no match: the caller should create a new entity
// rather than treat it as an error.
func FindMatch(query string, names []string, threshold float64) (Match, bool) {
	q := Normalize(query)

	contained := Match{Index: -1, Similarity: -1}
	fuzzy := Match{Index: -1, Similarity: -1}
	for i, name := range names {
		n := Normalize(name)

		if n == q {
			return Match{Index: i, Similarity: 1.0, Exact: true}, true
		}

		sim := Similarity(q, n)
		if strings.Contains(n, q) || strings.Contains(q, n) {
			if sim > contained.Similarity {
				contained = Match{Index: i, Similarity: sim}
			}
			continue
		}

		if sim > fuzzy.Similarity {
			fuzzy = Match{Index: i, Similarity: sim}
		}
	}

	if contained.Index >= 0 {
		return contained, true
	}
	if fuzzy.Index < 0 || fuzzy.Similarity < threshold {
		return Match{}, false
	}
	return fuzzy, true
}

// Match type tags returned by RankSimilar.
const (
	TypeExact      = "exact"
	TypeStartsWith = "starts-with"
	TypeContains   = "contains"
	TypeFuzzy      = "fuzzy"
)

// Fixed scores for the non-exact prefix and substring tiers.
const (
	startsWithScore = 0.95
	containsScore   = 0.85
)

// Ranked is one scored candidate from RankSimilar.
type Ranked struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
	Type  string  `json:"type"`
}

// RankSimilar scores every candidate against the query and returns the
// ones at or above threshold, sorted by descending score and truncated
// to maxResults. Unlike FindMatch it produces a ranked list for human
// review instead of auto-selecting a single winner.
func RankSimilar(query string, names []string, threshold float64, maxResults int) []Ranked {
	q := Normalize(query)

	var out []Ranked
	for i, name := range names {
		n := Normalize(name)

		var r Ranked
		switch {
		case n == q:
			r = Ranked{Index: i, Score: 1.0, Type: TypeExact}
		case strings.HasPrefix(n, q):
			r = Ranked{Index: i, Score: startsWithScore, Type: TypeStartsWith}
		case strings.Contains(n, q):
			r = Ranked{Index: i, Score: containsScore, Type: TypeContains}
		default:
			r = Ranked{Index: i, Score: Similarity(q, n), Type: TypeFuzzy}
		}

		if r.Score >= threshold {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out
}
