package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleLabels = []string{
	"",
	"!!!",
	"BS Computer Science",
	"Software Developer",
	"Teacher",
	"Bachelor of Elementary Education",
	"Elementary Teacher",
	"BS Nursing",
	"Staff Nurse",
	"data science",
	"science data",
	"Ñandú & Co. — Ltd",
	"a",
	"   ",
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"bs", "computer", "science"}, Tokenize("BS Computer-Science!"))
	assert.Equal(t, []string{"c", "programmer"}, Tokenize("C++ Programmer"))
	assert.Empty(t, Tokenize("!!! ---"))
	assert.Empty(t, Tokenize(""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "bs computer science", Normalize("  BS   Computer-Science!  "))
	assert.Equal(t, "", Normalize("?!"))
}

func TestTrigrams(t *testing.T) {
	assert.Equal(t, []string{"nur", "urs", "rse"}, Trigrams("Nurse"))
	assert.Empty(t, Trigrams("ab"))
	assert.Empty(t, Trigrams(""))
}

func TestTokenScore(t *testing.T) {
	assert.Equal(t, 3, TokenScore("Computer Science", "Computer Programmer"))
	assert.Equal(t, 1, TokenScore("Engineering", "Engineer Manager"))
	assert.Equal(t, 0, TokenScore("", "Teacher"))
	assert.Equal(t, 0, TokenScore("Teacher", "???"))
}

func TestTokenScore_IsAsymmetric(t *testing.T) {
	a, b := "Information Tech", "Information Technology Tech"

	assert.Equal(t, 6, TokenScore(a, b))
	assert.Equal(t, 7, TokenScore(b, a))
}

func TestJaccardAndTrigram_AreSymmetric(t *testing.T) {
	for _, a := range sampleLabels {
		for _, b := range sampleLabels {
			assert.Equal(t, JaccardTokens(a, b), JaccardTokens(b, a), "jaccard(%q,%q)", a, b)
			assert.Equal(t, TrigramSimilarity(a, b), TrigramSimilarity(b, a), "trigram(%q,%q)", a, b)
		}
	}
}

func TestJaccardTokens(t *testing.T) {
	assert.InDelta(t, 1.0/3.0, JaccardTokens("Computer Science", "Computer Programmer"), 1e-9)
	assert.InDelta(t, 1.0, JaccardTokens("data science", "science data"), 1e-9)
	assert.Equal(t, 0.0, JaccardTokens("", "science"))
}

func TestCountFactor(t *testing.T) {
	assert.Equal(t, 0.0, CountFactor(0))
	assert.Equal(t, 0.0, CountFactor(-5))
	assert.InDelta(t, math.Log(41), CountFactor(40), 1e-12)
}

func TestScore_KnownValues(t *testing.T) {
	tests := []struct {
		a, b  string
		count int
		want  int
	}{
		{"Computer Science", "Computer Programmer", 0, 26},
		{"data science", "science data", 0, 61},
		{"Bachelor of Elementary Education", "Elementary Teacher", 3, 30},
		{"BS Computer Science", "Software Developer", 40, 19},
		{"BS Computer Science", "Teacher", 2, 5},
		{"!!!", "???", 10, 12},
		{"", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.a, tt.b, tt.count))
		})
	}
}

func TestScore_AlwaysWithinBounds(t *testing.T) {
	counts := []int{-10, 0, 1, 50, 1_000_000}
	for _, a := range sampleLabels {
		for _, b := range sampleLabels {
			for _, c := range counts {
				s := Score(a, b, c)
				assert.GreaterOrEqual(t, s, 0)
				assert.LessOrEqual(t, s, MaxScore)
			}
		}
	}

	assert.Equal(t, MaxScore, Score("software engineering data science", "software engineering data science", 1_000_000))
}

func TestScore_NonDecreasingInCount(t *testing.T) {
	for _, a := range sampleLabels {
		for _, b := range sampleLabels {
			prev := Score(a, b, 0)
			for c := 1; c <= 500; c += 7 {
				cur := Score(a, b, c)
				assert.GreaterOrEqual(t, cur, prev, "score(%q,%q,%d)", a, b, c)
				prev = cur
			}
		}
	}
}

func TestScore_ProgramPrefersRelatedJob(t *testing.T) {
	program := "BS Computer Science"

	dev := Score(program, "Software Developer", 40)
	teacher := Score(program, "Teacher", 2)

	assert.Greater(t, dev, teacher)
}

func TestExplain_RawMatchesScore(t *testing.T) {
	c := Explain("Bachelor of Elementary Education", "Elementary Teacher", 3)

	assert.Equal(t, 3, c.Token)
	assert.InDelta(t, 0.2, c.Jaccard, 1e-9)
	assert.InDelta(t, 29.86, c.Raw(), 0.01)
	assert.Equal(t, 30, c.Score())
}
