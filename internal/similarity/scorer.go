// Package similarity scores how closely two free-text category labels resemble each other.
package similarity

import (
	"math"
	"regexp"
	"strings"
)

// Weights for the combined score
const (
	tokenWeight   = 2.5
	jaccardWeight = 30.0
	trigramWeight = 30.0
	countWeight   = 5.0

	exactTokenPoints   = 3
	partialTokenPoints = 1

	// MaxScore is the upper bound of Score.
	MaxScore = 100
)

var (
	tokenSplitter = regexp.MustCompile(`[^a-z0-9]+`)
	nonWordChars  = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Tokenize lower-cases s and splits it on runs of non-alphanumeric characters.
func Tokenize(s string) []string {
	parts := tokenSplitter.Split(strings.ToLower(s), -1)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// TokenScore awards 3 points for every token of a found verbatim in b, and 1 point
// when it only overlaps a token of b as a substring (either direction).
//
// The score is intentionally asymmetric: it iterates the tokens of a only, so
// TokenScore(a, b) and TokenScore(b, a) differ when the labels have different
// token counts. Matching always passes the program as a and the job label as b.
func TokenScore(a, b string) int {
	at := tokenSet(a)
	bt := Tokenize(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	bset := make(map[string]bool, len(bt))
	for _, t := range bt {
		bset[t] = true
	}

	score := 0
	for _, t := range at {
		if bset[t] {
			score += exactTokenPoints
			continue
		}
		for _, x := range bt {
			if strings.Contains(x, t) || strings.Contains(t, x) {
				score += partialTokenPoints
				break
			}
		}
	}
	return score
}

// JaccardTokens returns |A∩B| / |A∪B| over the token sets of a and b.
func JaccardTokens(a, b string) float64 {
	return jaccard(tokenSet(a), tokenSet(b))
}

// TrigramSimilarity returns the Jaccard overlap of the character trigram sets of a and b.
func TrigramSimilarity(a, b string) float64 {
	return jaccard(Trigrams(a), Trigrams(b))
}

// Trigrams returns the distinct 3-character substrings of the normalized form of s.
func Trigrams(s string) []string {
	n := []rune(Normalize(s))
	seen := make(map[string]bool)
	out := make([]string, 0, len(n))
	for i := 0; i+3 <= len(n); i++ {
		g := string(n[i : i+3])
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}

// Normalize lower-cases s, strips punctuation and collapses whitespace to single spaces.
func Normalize(s string) string {
	s = nonWordChars.ReplaceAllString(strings.ToLower(s), "")
	s = strings.TrimSpace(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}

// CountFactor returns ln(1 + max(0, count)).
func CountFactor(count int) float64 {
	return math.Log1p(float64(max(0, count)))
}

// Components holds the individual sub-scores behind a combined Score.
type Components struct {
	Token   int     `json:"token"`
	Jaccard float64 `json:"jaccard"`
	Trigram float64 `json:"trigram"`
	Count   float64 `json:"count"`
}

// Raw returns the unclamped weighted sum of the components.
func (c Components) Raw() float64 {
	return float64(c.Token)*tokenWeight +
		c.Jaccard*jaccardWeight +
		c.Trigram*trigramWeight +
		c.Count*countWeight
}

// Score returns the combined score clamped to [0, 100] and rounded.
func (c Components) Score() int {
	raw := math.Max(0, math.Min(MaxScore, c.Raw()))
	return int(math.Round(raw))
}

// Explain computes the sub-scores for a (program) against b (job label) with
// observedCount responses falling in b.
func Explain(a, b string, observedCount int) Components {
	return Components{
		Token:   TokenScore(a, b),
		Jaccard: JaccardTokens(a, b),
		Trigram: TrigramSimilarity(a, b),
		Count:   CountFactor(observedCount),
	}
}

// Score returns the 0–100 confidence that label a corresponds to label b.
func Score(a, b string, observedCount int) int {
	return Explain(a, b, observedCount).Score()
}

// tokenSet returns the distinct tokens of s in first-seen order.
func tokenSet(s string) []string {
	tokens := Tokenize(s)
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	union := make(map[string]bool, len(a)+len(b))
	for _, x := range a {
		union[x] = true
	}
	inter := 0
	for _, x := range b {
		if union[x] {
			inter++
		} else {
			union[x] = true
		}
	}
	return float64(inter) / float64(len(union))
}
