package rulekit

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/cognicore/rulekit/pkg/rulekit/export"
	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
	"github.com/cognicore/rulekit/pkg/rulekit/inference/simple"
	"github.com/cognicore/rulekit/pkg/rulekit/trace"
)

// DefaultMaxSteps is the forward-chaining bound used when none is given.
const DefaultMaxSteps = simple.DefaultMaxSteps

// System is the expert system facade: a fact base, a rule set and the
// reasoning trace of the last run. It is owned by one caller at a time.
type System struct {
	engine *simple.Engine
}

// Options configures a System instance
type Options struct {
	Facts    *facts.Base
	Rules    *inference.RuleSet
	Resolver inference.Resolver
	Logger   *zap.Logger
}

// New creates a System with the given dependencies
func New(opts Options) *System {
	return &System{
		engine: simple.New(opts.Facts, opts.Rules,
			simple.WithResolver(opts.Resolver),
			simple.WithLogger(opts.Logger)),
	}
}

// AddFact adds a symptom or other known fact.
func (s *System) AddFact(text string) {
	s.engine.AddFact(text)
}

// AddRule appends a rule. Conditions without an operator are AND.
func (s *System) AddRule(conditions []inference.Condition, conclusion string, confidence float64) inference.Rule {
	return s.engine.AddRule(conditions, conclusion, confidence)
}

// Facts returns the known facts, sorted.
func (s *System) Facts() []string {
	return s.engine.Facts().Sorted()
}

// Rules returns the rules in firing-priority order.
func (s *System) Rules() []inference.Rule {
	return s.engine.Rules().Rules()
}

// ForwardChain runs forward chaining; see simple.Engine.Run.
func (s *System) ForwardChain(maxSteps int) simple.Result {
	return s.engine.Run(maxSteps)
}

// BackwardChain checks a goal against current facts and one rule level.
func (s *System) BackwardChain(goal string) (bool, []string) {
	return s.engine.Prove(goal)
}

// BackwardChainDeep checks a goal, proving unmet conditions recursively.
func (s *System) BackwardChainDeep(goal string) (bool, []string) {
	return s.engine.ProveDeep(goal)
}

// Log is the reasoning trace of the last forward-chaining run plus any goal
// checks made since.
func (s *System) Log() *trace.Log {
	return s.engine.Log()
}

// PrintLog writes the reasoning path to w.
func (s *System) PrintLog(w io.Writer) error {
	return s.engine.Log().Print(w)
}

// ExportLog writes the trace to w, replacing its previous content.
func (s *System) ExportLog(ctx context.Context, w export.TraceWriter) error {
	exporter := export.Exporter{Writer: w}
	return exporter.Export(ctx, s.engine.Log())
}

// MedicalSystem returns a System loaded with the sample diagnosis rules.
func MedicalSystem(opts Options) *System {
	s := New(opts)
	and := func(f string) inference.Condition { return inference.Condition{Fact: f, Op: inference.And} }
	or := func(f string) inference.Condition { return inference.Condition{Fact: f, Op: inference.Or} }

	s.AddRule([]inference.Condition{and("fever"), and("cough")}, "flu", 0.9)
	s.AddRule([]inference.Condition{and("flu"), and("headache")}, "severe_flu", 0.8)
	s.AddRule([]inference.Condition{and("rash"), or("fever")}, "allergy", 0.7)
	s.AddRule([]inference.Condition{and("sore_throat"), and("cough")}, "cold", 0.85)
	return s
}
