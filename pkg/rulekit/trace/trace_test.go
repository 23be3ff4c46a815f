package trace

import (
	"bytes"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/rulekit/pkg/rulekit/inference"
)

func TestAppendKeepsOrder(t *testing.T) {
	var l Log
	l.Append("one")
	l.Append("two")

	assert.Equal(t, []string{"one", "two"}, l.Entries())
	assert.Equal(t, "one\ntwo", l.String())
	assert.Equal(t, 2, l.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	var l Log
	l.Append("one")
	e := l.Entries()
	e[0] = "mutated"

	assert.Equal(t, "one", l.Entries()[0])
}

func TestResetAssignsRunID(t *testing.T) {
	var l Log
	assert.Empty(t, l.RunID())

	l.Append("stale")
	l.Reset()
	first := l.RunID()
	l.Reset()

	assert.Zero(t, l.Len())
	_, err := ulid.Parse(first)
	require.NoError(t, err)
	assert.NotEqual(t, first, l.RunID())
}

func TestPrint(t *testing.T) {
	var l Log
	l.Append("Step 1: Current facts: []")
	l.Append(CompleteEntry)

	var buf bytes.Buffer
	require.NoError(t, l.Print(&buf))
	assert.Equal(t, "\nInference Reasoning Path:\nStep 1: Current facts: []\n"+CompleteEntry+"\n", buf.String())
}

func TestFormatters(t *testing.T) {
	r := inference.NewRule([]inference.Condition{{Fact: "fever", Op: inference.And}, {Fact: "cough", Op: inference.Or}}, "flu", 0.9)

	assert.Equal(t, "Step 2: Current facts: [cough fever]", StepEntry(2, []string{"cough", "fever"}))
	assert.Equal(t, "Step 1: Current facts: []", StepEntry(1, []string{}))
	assert.Equal(t, "  Rule fired: [{fever AND} {cough OR}] -> flu (confidence: 0.9)", FiredEntry(r))
	assert.Equal(t, "  New fact added: flu", NewFactEntry("flu"))
	assert.Equal(t, "Goal 'flu' directly in facts.", GoalKnownEntry("flu"))
	assert.Equal(t, "Goal 'flu' derived via rule: [{fever AND} {cough OR}] -> flu", GoalDerivedEntry("flu", r))
	assert.Equal(t, "Goal 'flu' cannot be proven.", GoalUnprovenEntry("flu"))
}

func TestFiredEntryConfidenceVerbatim(t *testing.T) {
	r := inference.NewRule(nil, "x", 1)
	assert.Equal(t, "  Rule fired: [] -> x (confidence: 1)", FiredEntry(r))

	r = inference.NewRule(nil, "x", 1.75)
	assert.Equal(t, "  Rule fired: [] -> x (confidence: 1.75)", FiredEntry(r))
}
