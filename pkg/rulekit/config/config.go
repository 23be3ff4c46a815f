package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
)

// KnowledgeBase is the YAML form of seed facts and an ordered rule list.
type KnowledgeBase struct {
	Facts []string   `yaml:"facts"`
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule. A missing confidence means 1.0.
type RuleSpec struct {
	Name       string          `yaml:"name"`
	If         []ConditionSpec `yaml:"if"`
	Then       string          `yaml:"then"`
	Confidence *float64        `yaml:"confidence"`
}

// ConditionSpec is one condition. A missing or unknown op means AND.
type ConditionSpec struct {
	Fact string `yaml:"fact"`
	Op   string `yaml:"op"`
}

// LoadKnowledgeBase loads a knowledge base from a YAML file
func LoadKnowledgeBase(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseKnowledgeBase(data)
}

// ParseKnowledgeBase decodes and validates YAML.
func ParseKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var kb KnowledgeBase
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}

	for i, r := range kb.Rules {
		if facts.Normalize(r.Then) == "" {
			return nil, fmt.Errorf("rule %d: %w: empty conclusion", i+1, internalerr.ErrInvalidRule)
		}
		for j, c := range r.If {
			if facts.Normalize(c.Fact) == "" {
				return nil, fmt.Errorf("rule %d condition %d: %w: empty fact", i+1, j+1, internalerr.ErrInvalidRule)
			}
		}
	}

	return &kb, nil
}

// FactBase seeds a fact base with the declared facts.
func (kb *KnowledgeBase) FactBase() *facts.Base {
	return facts.New(kb.Facts...)
}

// AppendTo adds the declared rules, in order, to s.
func (kb *KnowledgeBase) AppendTo(s *inference.RuleSet) {
	for _, spec := range kb.Rules {
		conds := make([]inference.Condition, len(spec.If))
		for i, c := range spec.If {
			conds[i] = inference.Condition{Fact: c.Fact, Op: inference.ParseOperator(c.Op)}
		}
		confidence := inference.DefaultConfidence
		if spec.Confidence != nil {
			confidence = *spec.Confidence
		}
		r := inference.NewRule(conds, spec.Then, confidence)
		r.Name = spec.Name
		s.Append(r)
	}
}
