// Package resolve provides conflict-resolution strategies for forward chaining.
package resolve

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
)

// FirstApplicable selects the first eligible rule in rule-set order.
type FirstApplicable struct{}

func (FirstApplicable) Select(rules []inference.Rule, fb inference.Facts) (int, bool) {
	for i, r := range rules {
		if inference.Eligible(r, fb) {
			return i, true
		}
	}
	return 0, false
}

// ParallelScan evaluates eligibility concurrently against a frozen snapshot
// and returns the lowest eligible index, so the outcome matches FirstApplicable.
type ParallelScan struct {
	// Workers bounds concurrent evaluations. Zero means one per rule.
	Workers int
}

func (p ParallelScan) Select(rules []inference.Rule, fb inference.Facts) (int, bool) {
	if len(rules) == 0 {
		return 0, false
	}

	snapshot := fb
	if b, ok := fb.(*facts.Base); ok {
		snapshot = b.Clone()
	}

	eligible := make([]bool, len(rules))
	var lowest atomic.Int64
	lowest.Store(int64(len(rules)))

	var g errgroup.Group
	if p.Workers > 0 {
		g.SetLimit(p.Workers)
	}
	for i := range rules {
		i := i
		g.Go(func() error {
			// A lower index already won; this rule cannot be selected.
			if int64(i) > lowest.Load() {
				return nil
			}
			if inference.Eligible(rules[i], snapshot) {
				eligible[i] = true
				for {
					cur := lowest.Load()
					if int64(i) >= cur || lowest.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
			}
			return nil
		})
	}
	g.Wait() // workers never fail

	for i, ok := range eligible {
		if ok {
			return i, true
		}
	}
	return 0, false
}
