package simple

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
	"github.com/cognicore/rulekit/pkg/rulekit/inference/resolve"
	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
	"github.com/cognicore/rulekit/pkg/rulekit/trace"
)

// DefaultMaxSteps bounds a forward-chaining run when no bound is given.
const DefaultMaxSteps = 100

// Engine is a forward/backward chaining engine over a fact base and an
// ordered rule set. It is not safe for concurrent use.
type Engine struct {
	facts    *facts.Base
	rules    *inference.RuleSet
	log      *trace.Log
	resolver inference.Resolver
	logger   *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolver replaces the first-applicable conflict resolution.
func WithResolver(r inference.Resolver) Option {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. Nil fact base or rule set start empty.
func New(fb *facts.Base, rules *inference.RuleSet, opts ...Option) *Engine {
	if fb == nil {
		fb = facts.New()
	}
	if rules == nil {
		rules = inference.NewRuleSet()
	}
	e := &Engine{
		facts:    fb,
		rules:    rules,
		log:      &trace.Log{},
		resolver: resolve.FirstApplicable{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Facts() *facts.Base { return e.facts }
func (e *Engine) Rules() *inference.RuleSet { return e.rules }
func (e *Engine) Log() *trace.Log { return e.log }

// AddFact adds a normalized fact.
func (e *Engine) AddFact(text string) {
	e.facts.Add(text)
}

// AddRule appends a rule; conditions with no operator default to AND.
func (e *Engine) AddRule(conditions []inference.Condition, conclusion string, confidence float64) inference.Rule {
	return e.rules.Add(conditions, conclusion, confidence)
}

// Result summarizes a forward-chaining run.
type Result struct {
	Steps     int
	Fired     []inference.Rule
	Converged bool // false when the step bound stopped the run
}

// Run forward chains until no rule fires or maxSteps steps have run.
// At most one rule fires per step. A non-positive maxSteps uses
// DefaultMaxSteps. Non-convergence is reported in the log, never as an error.
func (e *Engine) Run(maxSteps int) Result {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	e.log.Reset()

	var res Result
	fired := true
	for fired && res.Steps < maxSteps {
		fired = false
		res.Steps++
		e.log.Append(trace.StepEntry(res.Steps, e.facts.Sorted()))
		e.logger.Debug("inference step",
			zap.String("run", e.log.RunID()),
			zap.Int("step", res.Steps),
			zap.Int("facts", e.facts.Len()))

		rules := e.rules.Rules()
		i, ok := e.resolver.Select(rules, e.facts)
		if !ok || i < 0 || i >= len(rules) {
			continue
		}
		r := rules[i]
		if !e.facts.Add(r.Conclusion) {
			e.logger.Warn("resolver selected a rule whose conclusion is known",
				zap.String("conclusion", r.Conclusion))
			continue
		}
		e.log.Append(trace.FiredEntry(r))
		e.log.Append(trace.NewFactEntry(r.Conclusion))
		e.logger.Debug("rule fired",
			zap.Int("step", res.Steps),
			zap.String("conclusion", r.Conclusion),
			zap.Float64("confidence", r.Confidence))
		res.Fired = append(res.Fired, r)
		fired = true
	}

	res.Converged = !fired
	if res.Converged {
		e.log.Append(trace.CompleteEntry)
		e.logger.Info("inference complete",
			zap.String("run", e.log.RunID()),
			zap.Int("steps", res.Steps),
			zap.Int("fired", len(res.Fired)))
	} else {
		e.log.Append(trace.MaxStepsEntry)
		e.logger.Warn("inference stopped at max steps",
			zap.String("run", e.log.RunID()),
			zap.Int("max_steps", maxSteps))
	}
	return res
}

// Prove checks whether goal is known or derivable by a single rule whose
// conditions hold right now. Unmet conditions are not proven recursively.
// The explanation is also appended to the log.
func (e *Engine) Prove(goal string) (bool, []string) {
	goal = facts.Normalize(goal)
	ok, steps := e.proveShallow(goal)
	e.record(goal, ok, steps)
	return ok, steps
}

func (e *Engine) proveShallow(goal string) (bool, []string) {
	if e.facts.Contains(goal) {
		return true, []string{trace.GoalKnownEntry(goal)}
	}
	for _, r := range e.rules.Rules() {
		if r.Conclusion == goal && inference.Evaluate(r, e.facts) {
			return true, []string{trace.GoalDerivedEntry(goal, r)}
		}
	}
	return false, []string{trace.GoalUnprovenEntry(goal)}
}

// ProveDeep is Prove with recursive resolution of unmet conditions through
// other rules. Goals already on the current path count as unproven, which
// breaks cycles. The fact base is not modified.
func (e *Engine) ProveDeep(goal string) (bool, []string) {
	goal = facts.Normalize(goal)
	p := &prover{facts: e.facts, rules: e.rules.Rules(), visiting: make(map[string]bool)}
	ok, steps := p.prove(goal, 0)
	if !ok {
		steps = []string{trace.GoalUnprovenEntry(goal)}
	}
	e.record(goal, ok, steps)
	return ok, steps
}

func (e *Engine) record(goal string, ok bool, steps []string) {
	for _, s := range steps {
		e.log.Append(s)
	}
	e.logger.Debug("goal checked", zap.String("goal", goal), zap.Bool("proven", ok))
}

type prover struct {
	facts    *facts.Base
	rules    []inference.Rule
	visiting map[string]bool
}

func (p *prover) prove(goal string, depth int) (bool, []string) {
	indent := strings.Repeat("  ", depth)
	if p.facts.Contains(goal) {
		return true, []string{indent + trace.GoalKnownEntry(goal)}
	}
	if p.visiting[goal] {
		return false, nil // cycle
	}
	p.visiting[goal] = true
	defer delete(p.visiting, goal)

	for _, r := range p.rules {
		if r.Conclusion != goal {
			continue
		}
		o := &oracle{p: p, depth: depth + 1}
		if inference.Evaluate(r, o) {
			return true, append(o.steps, indent+trace.GoalDerivedEntry(goal, r))
		}
	}
	return false, nil
}

// oracle answers membership by attempting a sub-proof.
type oracle struct {
	p     *prover
	depth int
	steps []string
}

func (o *oracle) Contains(fact string) bool {
	ok, steps := o.p.prove(facts.Normalize(fact), o.depth)
	if ok {
		o.steps = append(o.steps, steps...)
	}
	return ok
}

// LoadRules appends rules from text, one per line.
// Format:
//
//	fever AND cough -> flu (0.9)
//	rash OR fever -> allergy (0.7)
//	OR sneeze AND itch -> hay_fever
//	# comments
//
// Each operator applies to the fact after it; a leading fact without an
// operator is AND. The confidence suffix is optional.
func (e *Engine) LoadRules(rules string) error {
	scanner := bufio.NewScanner(strings.NewReader(rules))
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		r, err := ParseRule(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNum, err)
		}
		e.rules.Append(r)
	}

	return scanner.Err()
}

// ParseRule parses a single rule line.
func ParseRule(line string) (inference.Rule, error) {
	lhs, rhs, ok := strings.Cut(line, "->")
	if !ok {
		return inference.Rule{}, fmt.Errorf("%w: missing '->': %s", internalerr.ErrInvalidRule, line)
	}

	conclusion := strings.TrimSpace(rhs)
	confidence := inference.DefaultConfidence
	if open := strings.Index(conclusion, "("); open != -1 {
		closeParen := strings.Index(conclusion, ")")
		if closeParen < open {
			return inference.Rule{}, fmt.Errorf("%w: missing ')': %s", internalerr.ErrInvalidRule, line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(conclusion[open+1:closeParen]), 64)
		if err != nil {
			return inference.Rule{}, fmt.Errorf("%w: bad confidence: %s", internalerr.ErrInvalidRule, line)
		}
		if rest := strings.TrimSpace(conclusion[closeParen+1:]); rest != "" {
			return inference.Rule{}, fmt.Errorf("%w: unexpected text after confidence %q: %s", internalerr.ErrInvalidRule, rest, line)
		}
		confidence = v
		conclusion = strings.TrimSpace(conclusion[:open])
	}
	if conclusion == "" || strings.ContainsAny(conclusion, " \t") {
		return inference.Rule{}, fmt.Errorf("%w: expected one conclusion: %s", internalerr.ErrInvalidRule, line)
	}

	var conds []inference.Condition
	op := inference.And
	expectFact := true
	pendingOp := false
	for _, tok := range strings.Fields(lhs) {
		upper := strings.ToUpper(tok)
		if upper == string(inference.And) || upper == string(inference.Or) {
			if pendingOp {
				return inference.Rule{}, fmt.Errorf("%w: repeated operator %q: %s", internalerr.ErrInvalidRule, tok, line)
			}
			op = inference.Operator(upper)
			pendingOp = true
			expectFact = true
			continue
		}
		if !expectFact {
			return inference.Rule{}, fmt.Errorf("%w: missing operator before %q: %s", internalerr.ErrInvalidRule, tok, line)
		}
		conds = append(conds, inference.Condition{Fact: tok, Op: op})
		op = inference.And
		pendingOp = false
		expectFact = false
	}
	if pendingOp {
		return inference.Rule{}, fmt.Errorf("%w: dangling operator: %s", internalerr.ErrInvalidRule, line)
	}

	return inference.NewRule(conds, conclusion, confidence), nil
}
