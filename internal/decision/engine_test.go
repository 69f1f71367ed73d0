package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	en, err := NewEngine(nil)
	require.NoError(t, err)
	return en
}

func TestEvaluate_EmploymentClassification(t *testing.T) {
	tests := []struct {
		name    string
		in      types.EmployedWithin
		rule    string
		outcome string
		rec     string
	}{
		{"high", types.EmployedWithin{Yes: 8, No: 2}, "employedWithin% >= 80 (80%)", OutcomeHighEmployment, RecHighlightPlacement},
		{"moderate", types.EmployedWithin{Yes: 6, No: 4}, "50 <= employedWithin% < 80 (60%)", OutcomeModerateEmployment, RecTargetedWorkshops},
		{"moderate lower bound", types.EmployedWithin{Yes: 1, No: 1}, "50 <= employedWithin% < 80 (50%)", OutcomeModerateEmployment, RecTargetedWorkshops},
		{"low", types.EmployedWithin{Yes: 3, No: 7}, "employedWithin% < 50 (30%)", OutcomeLowEmployment, RecCurriculumReview},
		{"insufficient", types.EmployedWithin{}, RuleInsufficientData, OutcomeUndetermined, RecCollectMore},
	}

	en := newTestEngine(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := en.Evaluate(types.AggregateSnapshot{EmployedWithin: tt.in})

			require.Len(t, res.Nodes, 1)
			assert.Equal(t, tt.rule, res.Nodes[0].Rule)
			assert.Equal(t, tt.outcome, res.Nodes[0].Outcome)
			assert.Equal(t, []string{tt.rec}, res.Recommendations)
		})
	}
}

func TestEvaluate_RoundedPercentDecidesBranch(t *testing.T) {
	en := newTestEngine(t)

	// 79.5% rounds up to 80.
	res := en.Evaluate(types.AggregateSnapshot{EmployedWithin: types.EmployedWithin{Yes: 159, No: 41}})

	assert.Equal(t, OutcomeHighEmployment, res.Nodes[0].Outcome)
}

func TestEvaluate_ConditionalRecommendationsInOrder(t *testing.T) {
	en := newTestEngine(t)
	snap := types.AggregateSnapshot{
		EmployedWithin: types.EmployedWithin{Yes: 8, No: 2},
		Performance: types.NewCountMap(
			types.Entry{Label: "Below Average", Count: 6},
			types.Entry{Label: "Excellent", Count: 2},
		),
		Promoted:       types.NewCountMap(types.Entry{Label: "yes", Count: 3}),
		SelfEmployment: types.NewCountMap(types.Entry{Label: "Yes", Count: 1}),
	}

	res := en.Evaluate(snap)

	require.Len(t, res.Nodes, 1)
	assert.Equal(t, []string{
		RecHighlightPlacement,
		RecUpskilling,
		RecPromotionStories,
		RecEntrepreneurship,
	}, res.Recommendations)
}

func TestEvaluate_PerformanceTieUsesFirstSeen(t *testing.T) {
	en := newTestEngine(t)

	good := en.Evaluate(types.AggregateSnapshot{Performance: types.NewCountMap(
		types.Entry{Label: "Good", Count: 4},
		types.Entry{Label: "Poor", Count: 4},
	)})
	poor := en.Evaluate(types.AggregateSnapshot{Performance: types.NewCountMap(
		types.Entry{Label: "POOR", Count: 4},
		types.Entry{Label: "Good", Count: 4},
	)})

	assert.NotContains(t, good.Recommendations, RecUpskilling)
	assert.Contains(t, poor.Recommendations, RecUpskilling)
}

func TestEvaluate_EmptySnapshotStillProducesNode(t *testing.T) {
	res := newTestEngine(t).Evaluate(types.AggregateSnapshot{})

	require.Len(t, res.Nodes, 1)
	assert.Equal(t, types.DecisionNode{Rule: RuleInsufficientData, Outcome: OutcomeUndetermined}, res.Nodes[0])
	assert.Equal(t, []string{RecCollectMore}, res.Recommendations)
}

func TestEvaluate_ZeroPromotionsSkipsRule(t *testing.T) {
	res := newTestEngine(t).Evaluate(types.AggregateSnapshot{
		EmployedWithin: types.EmployedWithin{Yes: 1},
		Promoted:       types.NewCountMap(types.Entry{Label: "yes", Count: 0}, types.Entry{Label: "no", Count: 5}),
	})

	assert.NotContains(t, res.Recommendations, RecPromotionStories)
}

func TestNewEngineWithRuleset_RejectsBadConditions(t *testing.T) {
	_, err := NewEngineWithRuleset(nil, Ruleset{Recommendations: []Recommendation{
		{ID: "broken", Condition: "employed_pct >", Text: "x"},
	}})
	assert.Error(t, err)

	_, err = NewEngineWithRuleset(nil, Ruleset{Recommendations: []Recommendation{
		{ID: "not-bool", Condition: "employed_pct + 1", Text: "x"},
	}})
	assert.Error(t, err)

	_, err = NewEngineWithRuleset(nil, Ruleset{Recommendations: []Recommendation{
		{ID: "unknown-fact", Condition: "salary > 0", Text: "x"},
	}})
	assert.Error(t, err)
}

func TestEvaluate_RuntimeErrorIsLoggedAndSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	rs := DefaultRuleset()
	rs.Employment = []Branch{{
		ID:         "divides",
		Condition:  "100 / (employed_pct - employed_pct) > 0",
		RuleFormat: "never",
		Outcome:    "never",
	}}

	en, err := NewEngineWithRuleset(zap.New(core), rs)
	require.NoError(t, err)

	res := en.Evaluate(types.AggregateSnapshot{EmployedWithin: types.EmployedWithin{Yes: 1, No: 1}})

	require.Len(t, res.Nodes, 1)
	assert.Equal(t, OutcomeUndetermined, res.Nodes[0].Outcome)
	require.Equal(t, 1, logs.FilterMessage("rule evaluation failed").Len())
	assert.Equal(t, "divides", logs.All()[0].ContextMap()["rule"])
}

func TestFacts(t *testing.T) {
	facts := Facts(types.AggregateSnapshot{
		EmployedWithin: types.EmployedWithin{Yes: 2, No: 1},
		Performance:    types.NewCountMap(types.Entry{Label: "Very Good", Count: 1}),
	})

	assert.Equal(t, true, facts[FactHasEmployment])
	assert.Equal(t, int64(67), facts[FactEmployedPct])
	assert.Equal(t, "very good", facts[FactTopPerformance])
	assert.Equal(t, int64(0), facts[FactPromotedYes])
}
