package decision

// Recommendation texts produced by the default ruleset.
const (
	RecCollectMore        = "Collect more survey responses to enable reliable analysis."
	RecHighlightPlacement = "Highlight successful placement practices and continue employer engagement."
	RecTargetedWorkshops  = "Consider targeted career workshops for lower-performing programs to improve placement."
	RecCurriculumReview   = "Recommend a review of curriculum relevance and employer outreach; prioritize professional development and internship pipelines."
	RecUpskilling         = "Work performance ratings are low — consider soft-skills and technical upskilling programs."
	RecPromotionStories   = "Promotion data suggests career progression for some alumni; capture employer success stories for outreach."
	RecEntrepreneurship   = "Self-employment presence — consider entrepreneurship support and incubation linkages."
)

// Employment outcomes.
const (
	RuleInsufficientData      = "insufficient data"
	OutcomeUndetermined       = "unable to determine employment level"
	OutcomeHighEmployment     = "high employment"
	OutcomeModerateEmployment = "moderate employment"
	OutcomeLowEmployment      = "low employment"
)

// Branch is one arm of the employment classification. Branches are tried in order
// and the first whose Condition evaluates to true produces the decision node.
type Branch struct {
	ID        string
	Condition string
	// RuleFormat is formatted with the employment percentage.
	RuleFormat     string
	Outcome        string
	Recommendation string
}

// Recommendation is a conditional recommendation that adds no decision node.
type Recommendation struct {
	ID        string
	Condition string
	Text      string
}

// Ruleset is the full set of rules an Engine evaluates.
type Ruleset struct {
	Employment      []Branch
	Recommendations []Recommendation
}

// DefaultRuleset returns the employment classification and the performance,
// promotion and self-employment recommendations.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Employment: []Branch{
			{
				ID:             "employment.insufficient",
				Condition:      "!has_employment",
				RuleFormat:     RuleInsufficientData,
				Outcome:        OutcomeUndetermined,
				Recommendation: RecCollectMore,
			},
			{
				ID:             "employment.high",
				Condition:      "has_employment && employed_pct >= 80",
				RuleFormat:     "employedWithin%% >= 80 (%d%%)",
				Outcome:        OutcomeHighEmployment,
				Recommendation: RecHighlightPlacement,
			},
			{
				ID:             "employment.moderate",
				Condition:      "has_employment && employed_pct >= 50 && employed_pct < 80",
				RuleFormat:     "50 <= employedWithin%% < 80 (%d%%)",
				Outcome:        OutcomeModerateEmployment,
				Recommendation: RecTargetedWorkshops,
			},
			{
				ID:             "employment.low",
				Condition:      "has_employment && employed_pct < 50",
				RuleFormat:     "employedWithin%% < 50 (%d%%)",
				Outcome:        OutcomeLowEmployment,
				Recommendation: RecCurriculumReview,
			},
		},
		Recommendations: []Recommendation{
			{
				ID:        "performance.low",
				Condition: `top_performance.contains("poor") || top_performance.contains("below")`,
				Text:      RecUpskilling,
			},
			{
				ID:        "promotion.present",
				Condition: "promoted_yes > 0",
				Text:      RecPromotionStories,
			},
			{
				ID:        "self_employment.present",
				Condition: "self_employed_yes > 0",
				Text:      RecEntrepreneurship,
			},
		},
	}
}
