package resolve

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/cognicore/rulekit/pkg/rulekit/facts"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
)

func rule(cond, conclusion string) inference.Rule {
	return inference.NewRule([]inference.Condition{{Fact: cond, Op: inference.And}}, conclusion, 1)
}

func TestFirstApplicable(t *testing.T) {
	rules := []inference.Rule{
		rule("missing", "a"),
		rule("fever", "known"),
		rule("fever", "b"),
		rule("fever", "c"),
	}
	fb := facts.New("fever", "known")

	idx, ok := FirstApplicable{}.Select(rules, fb)
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestFirstApplicableNone(t *testing.T) {
	_, ok := FirstApplicable{}.Select(nil, facts.New())
	assert.False(t, ok)

	_, ok = FirstApplicable{}.Select([]inference.Rule{rule("x", "y")}, facts.New())
	assert.False(t, ok)
}

func TestParallelScanMatchesFirstApplicable(t *testing.T) {
	defer goleak.VerifyNone(t)

	var rules []inference.Rule
	for i := 0; i < 64; i++ {
		rules = append(rules, rule(fmt.Sprintf("f%d", i%7), fmt.Sprintf("c%d", i)))
	}
	fb := facts.New("f3", "f5", "c3")

	for _, workers := range []int{0, 1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			wantIdx, wantOK := FirstApplicable{}.Select(rules, fb)
			gotIdx, gotOK := ParallelScan{Workers: workers}.Select(rules, fb)

			assert.Equal(t, wantOK, gotOK)
			assert.Equal(t, wantIdx, gotIdx)
		})
	}
}

func TestParallelScanEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, ok := ParallelScan{}.Select(nil, facts.New("a"))
	assert.False(t, ok)

	_, ok = ParallelScan{Workers: 2}.Select([]inference.Rule{rule("x", "y")}, facts.New())
	assert.False(t, ok)
}

func TestParallelScanDoesNotMutate(t *testing.T) {
	fb := facts.New("a")
	_, ok := ParallelScan{}.Select([]inference.Rule{rule("a", "b")}, fb)

	assert.True(t, ok)
	assert.False(t, fb.Contains("b"))
}
