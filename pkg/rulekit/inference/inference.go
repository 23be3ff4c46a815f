package inference

import (
	"fmt"
	"strings"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
)

// DefaultConfidence is applied when a rule is declared without one.
const DefaultConfidence = 1.0

// Operator joins a condition to the scan. Only AND and OR are recognized;
// anything else, including the zero value, behaves as AND.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// ParseOperator maps text to an Operator, defaulting to AND.
func ParseOperator(s string) Operator {
	if strings.EqualFold(strings.TrimSpace(s), string(Or)) {
		return Or
	}
	return And
}

func (o Operator) String() string {
	if o == Or {
		return string(Or)
	}
	return string(And)
}

// Condition references a fact and the operator applied to it.
type Condition struct {
	Fact string
	Op   Operator
}

// Cond builds a condition with a normalized fact.
func Cond(fact string, op Operator) Condition {
	return Condition{Fact: facts.Normalize(fact), Op: ParseOperator(string(op))}
}

// Rule is an implication from ordered conditions to a single conclusion.
// Confidence is carried for display only; nothing combines or compares it.
type Rule struct {
	Name       string
	Conditions []Condition
	Conclusion string
	Confidence float64
}

// NewRule normalizes the conditions and conclusion and copies the condition
// slice so later changes by the caller do not leak into the rule.
func NewRule(conditions []Condition, conclusion string, confidence float64) Rule {
	conds := make([]Condition, len(conditions))
	for i, c := range conditions {
		conds[i] = Cond(c.Fact, c.Op)
	}
	return Rule{
		Conditions: conds,
		Conclusion: facts.Normalize(conclusion),
		Confidence: confidence,
	}
}

// String renders "conditions -> conclusion" in Go slice notation.
func (r Rule) String() string {
	return fmt.Sprintf("%v -> %s", r.Conditions, r.Conclusion)
}

// Facts is the read side of a fact base.
type Facts interface {
	Contains(fact string) bool
}

// Evaluate scans the conditions left to right. A missing AND fact fails and
// stops the scan. A present OR fact succeeds and stops the scan. A missing OR
// fact marks the rule unsatisfied but the scan continues, so a later AND can
// never turn the result back to true. A rule with no conditions is satisfied.
func Evaluate(r Rule, fb Facts) bool {
	satisfied := true
	for _, c := range r.Conditions {
		if c.Op == Or {
			if fb.Contains(c.Fact) {
				return true
			}
			satisfied = false
			continue
		}
		if !fb.Contains(c.Fact) {
			return false
		}
	}
	return satisfied
}

// Eligible reports whether the rule may fire: its conclusion is not yet known
// and its conditions evaluate true.
func Eligible(r Rule, fb Facts) bool {
	return !fb.Contains(r.Conclusion) && Evaluate(r, fb)
}

// RuleSet is an ordered collection of rules. Order decides which rule fires
// when several are eligible.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds a rule set from rules in order.
func NewRuleSet(rules ...Rule) *RuleSet {
	s := &RuleSet{}
	for _, r := range rules {
		s.Append(r)
	}
	return s
}

// Add creates a rule and appends it.
func (s *RuleSet) Add(conditions []Condition, conclusion string, confidence float64) Rule {
	r := NewRule(conditions, conclusion, confidence)
	s.rules = append(s.rules, r)
	return r
}

// Append adds an already built rule, normalizing it first.
func (s *RuleSet) Append(r Rule) {
	n := NewRule(r.Conditions, r.Conclusion, r.Confidence)
	n.Name = r.Name
	s.rules = append(s.rules, n)
}

// Rules returns copies of the rules in order. Changing a returned rule,
// including its conditions, does not affect the set.
func (s *RuleSet) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	for i, r := range s.rules {
		r.Conditions = append([]Condition(nil), r.Conditions...)
		out[i] = r
	}
	return out
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Resolver picks the single rule that fires in a forward-chaining step.
// Select returns the index of the chosen rule, or false when none is eligible.
// Implementations must not mutate fb.
type Resolver interface {
	Select(rules []Rule, fb Facts) (int, bool)
}
