// Package decision classifies a survey snapshot with threshold rules and derives
// recommendations from the rules that fire.
package decision

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"go.uber.org/zap"

	"github.com/Mikexdrop/Dorsu-Alumni-Tracer-sub000/internal/types"
)

// Fact names available to rule conditions.
const (
	FactHasEmployment   = "has_employment"
	FactEmployedPct     = "employed_pct"
	FactTopPerformance  = "top_performance"
	FactPromotedYes     = "promoted_yes"
	FactSelfEmployedYes = "self_employed_yes"
)

// costLimit bounds the work a single condition may do.
const costLimit = 1000000

// Result is the outcome of evaluating a snapshot.
type Result struct {
	Nodes           []types.DecisionNode `json:"decision_nodes"`
	Recommendations []string             `json:"recommendations"`
}

type compiledBranch struct {
	Branch
	prog cel.Program
}

type compiledRecommendation struct {
	Recommendation
	prog cel.Program
}

// Engine evaluates a compiled Ruleset. It holds no mutable state after
// construction and is safe for concurrent use.
type Engine struct {
	employment      []compiledBranch
	recommendations []compiledRecommendation
	logger          *zap.Logger
}

// NewEngine compiles the default ruleset. A nil logger disables logging.
func NewEngine(logger *zap.Logger) (*Engine, error) {
	return NewEngineWithRuleset(logger, DefaultRuleset())
}

// NewEngineWithRuleset compiles rs against the fact environment. Any condition
// that fails to compile or is not boolean is an error.
func NewEngineWithRuleset(logger *zap.Logger, rs Ruleset) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	env, err := newEnv()
	if err != nil {
		return nil, err
	}

	en := &Engine{logger: logger}
	for _, b := range rs.Employment {
		prog, err := compile(env, b.Condition)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", b.ID, err)
		}
		en.employment = append(en.employment, compiledBranch{Branch: b, prog: prog})
	}
	for _, r := range rs.Recommendations {
		prog, err := compile(env, r.Condition)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule %s: %w", r.ID, err)
		}
		en.recommendations = append(en.recommendations, compiledRecommendation{Recommendation: r, prog: prog})
	}
	return en, nil
}

func newEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable(FactHasEmployment, cel.BoolType),
		cel.Variable(FactEmployedPct, cel.IntType),
		cel.Variable(FactTopPerformance, cel.StringType),
		cel.Variable(FactPromotedYes, cel.IntType),
		cel.Variable(FactSelfEmployedYes, cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

func compile(env *cel.Env, expression string) (cel.Program, error) {
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("condition %q must be boolean, got %s", expression, ast.OutputType())
	}

	prog, err := env.Program(ast, cel.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}
	return prog, nil
}

// Facts extracts the rule inputs from a snapshot.
func Facts(snapshot types.AggregateSnapshot) map[string]any {
	pct, ok := snapshot.EmployedWithin.Percent()

	topPerformance := ""
	if top, found := snapshot.Performance.Top(); found {
		topPerformance = strings.ToLower(top.Label)
	}

	return map[string]any{
		FactHasEmployment:   ok,
		FactEmployedPct:     int64(pct),
		FactTopPerformance:  topPerformance,
		FactPromotedYes:     int64(snapshot.Promoted.Lookup("yes")),
		FactSelfEmployedYes: int64(snapshot.SelfEmployment.Lookup("yes")),
	}
}

// Evaluate runs every rule against the snapshot. It always returns exactly one
// employment node first; recommendation rules add text only. Conditions that
// fail to evaluate are logged and treated as not firing.
func (en *Engine) Evaluate(snapshot types.AggregateSnapshot) Result {
	facts := Facts(snapshot)
	pct, _ := facts[FactEmployedPct].(int64)

	res := Result{
		Nodes:           make([]types.DecisionNode, 0, 1),
		Recommendations: []string{},
	}

	fired := false
	for _, b := range en.employment {
		if !en.fires(b.ID, b.prog, facts) {
			continue
		}
		res.Nodes = append(res.Nodes, types.DecisionNode{
			Rule:    formatRule(b.RuleFormat, pct),
			Outcome: b.Outcome,
		})
		if b.Recommendation != "" {
			res.Recommendations = append(res.Recommendations, b.Recommendation)
		}
		fired = true
		break
	}
	if !fired {
		res.Nodes = append(res.Nodes, types.DecisionNode{Rule: RuleInsufficientData, Outcome: OutcomeUndetermined})
		res.Recommendations = append(res.Recommendations, RecCollectMore)
	}

	for _, r := range en.recommendations {
		if en.fires(r.ID, r.prog, facts) {
			res.Recommendations = append(res.Recommendations, r.Text)
		}
	}
	return res
}

func (en *Engine) fires(id string, prog cel.Program, facts map[string]any) bool {
	out, _, err := prog.Eval(facts)
	if err != nil {
		en.logger.Warn("rule evaluation failed", zap.String("rule", id), zap.Error(err))
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

func formatRule(format string, pct int64) string {
	if !strings.Contains(format, "%d") {
		return format
	}
	return fmt.Sprintf(format, pct)
}
