// Package insights combines matching, decision rules and narrative analysis
// into a single report for one aggregate snapshot.
package insights

import (
	"fmt"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/decision"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/matching"
	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Analyzer derives Insights from snapshots. It is safe for concurrent use.
type Analyzer struct {
	engine      *decision.Engine
	topPrograms int
}

// NewAnalyzer creates an Analyzer backed by engine.
func NewAnalyzer(engine *decision.Engine) *Analyzer {
	return &Analyzer{engine: engine, topPrograms: matching.DefaultTopPrograms}
}

// Analyze runs every analysis over snapshot. It never fails: missing data only
// narrows which bullets, rules and matches appear.
func (a *Analyzer) Analyze(snapshot types.AggregateSnapshot) types.Insights {
	matches := matching.MatchWithLimit(snapshot, a.topPrograms)
	result := a.engine.Evaluate(snapshot)

	return types.Insights{
		Filter:          snapshot.Filter,
		ResponseCount:   snapshot.ResponseCount,
		Analysis:        Narrative(snapshot, len(matches) > 0),
		Matches:         matches,
		Nodes:           result.Nodes,
		Recommendations: result.Recommendations,
	}
}

// Narrative returns the human-readable analysis bullets for snapshot.
func Narrative(snapshot types.AggregateSnapshot, hasMatches bool) []string {
	var out []string

	if pct, ok := snapshot.EmployedWithin.Percent(); ok {
		out = append(out, fmt.Sprintf("Approximately %d%% employed within 6 months (based on %d responses).",
			pct, snapshot.EmployedWithin.Total()))
	} else {
		out = append(out, "Not enough data to estimate employment timing.")
	}

	if top, ok := snapshot.Performance.Top(); ok {
		out = append(out, fmt.Sprintf("Most common work performance: %s (%d responses).", top.Label, top.Count))
	}

	if n := snapshot.Promoted.Lookup("yes"); n > 0 {
		out = append(out, fmt.Sprintf("%d respondents reported promotions in their current job.", n))
	}
	if n := snapshot.SelfEmployment.Lookup("yes"); n > 0 {
		out = append(out, fmt.Sprintf("%d respondents reported self-employment / running a business.", n))
	}

	if programs := snapshot.Programs.SortedByCount(); len(programs) > 0 {
		total := max(snapshot.Programs.Total(), 1)
		top := programs[0]
		share := (200*top.Count + total) / (2 * total)
		out = append(out, fmt.Sprintf("Top program: %s — %d responses (%d%% of program responses).", top.Label, top.Count, share))
	}

	if hasMatches {
		out = append(out, "Generated program→job match suggestions (with confidence scores).")
	}
	return out
}
