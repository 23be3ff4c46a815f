package config

import (
	"fmt"
	"os"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
	"github.com/cognicore/rulekit/pkg/rulekit/inference/simple"
)

// Loader loads knowledge files and constructs the fact base and rule set
type Loader struct {
	KnowledgePath string // YAML knowledge base
	RulesPath     string // text rules, one per line
}

// Components holds the loaded fact base and rule set
type Components struct {
	Facts *facts.Base
	Rules *inference.RuleSet
}

// Load reads the YAML knowledge base first, then appends text rules.
func (l *Loader) Load() (*Components, error) {
	comp := &Components{
		Facts: facts.New(),
		Rules: inference.NewRuleSet(),
	}

	if l.KnowledgePath != "" {
		kb, err := LoadKnowledgeBase(l.KnowledgePath)
		if err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
		comp.Facts = kb.FactBase()
		kb.AppendTo(comp.Rules)
	}

	if l.RulesPath != "" {
		data, err := os.ReadFile(l.RulesPath)
		if err != nil {
			return nil, fmt.Errorf("read rules: %w", err)
		}
		if err := simple.New(comp.Facts, comp.Rules).LoadRules(string(data)); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	return comp, nil
}
