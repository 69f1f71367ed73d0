package types

// ProgramJobMatch pairs a program with the job category whose label it resembles most.
type ProgramJobMatch struct {
	Program      string `json:"program"`
	ProgramCount int    `json:"program_count"`
	// MatchedJob is nil when no job category scored above zero.
	MatchedJob    *string `json:"matched_job"`
	Confidence    int     `json:"confidence"`
	MatchJobCount int     `json:"match_job_count"`
}

// JobLabel returns the matched job or the given placeholder.
func (m ProgramJobMatch) JobLabel(placeholder string) string {
	if m.MatchedJob == nil {
		return placeholder
	}
	return *m.MatchedJob
}

// DecisionNode is one fired rule expressed as a condition/outcome pair.
type DecisionNode struct {
	Rule    string `json:"rule"`
	Outcome string `json:"outcome"`
}

// String renders the node as "rule => outcome".
func (n DecisionNode) String() string {
	return n.Rule + " => " + n.Outcome
}

// TrendDirection is the qualitative sign of a fitted trend slope.
type TrendDirection string

// Trend directions
const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendFlat             TrendDirection = "flat"
	TrendInsufficientData TrendDirection = "insufficient-data"
)

// YearOrder selects how trend years are displayed.
type YearOrder string

// Year orders
const (
	OldestFirst YearOrder = "asc"
	NewestFirst YearOrder = "desc"
)

// ParseYearOrder maps user input onto a YearOrder, defaulting to NewestFirst.
func ParseYearOrder(s string) YearOrder {
	switch s {
	case "asc", "oldest", "oldest-first", "chronological":
		return OldestFirst
	default:
		return NewestFirst
	}
}

// TrendSeries is a per-year employment rate series with a fitted direction.
// Years and Values are aligned; a nil value marks a year without data.
type TrendSeries struct {
	Years     []string       `json:"years"`
	Values    []*int         `json:"values"`
	Direction TrendDirection `json:"direction"`
	Slope     *float64       `json:"slope"`
	Order     YearOrder      `json:"order"`
	Program   string         `json:"program,omitempty"`
}

// Insights bundles everything derived from a single snapshot.
type Insights struct {
	Filter          Filter            `json:"filter"`
	ResponseCount   int               `json:"response_count"`
	Analysis        []string          `json:"analysis"`
	Matches         []ProgramJobMatch `json:"matches"`
	Nodes           []DecisionNode    `json:"decision_nodes"`
	Recommendations []string          `json:"recommendations"`
}
