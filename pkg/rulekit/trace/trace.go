// Package trace records the reasoning path of an inference run as ordered,
// human-readable entries.
package trace

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/rulekit/pkg/rulekit/inference"
)

// Log is an append-only sequence of entries. Reset starts a new run and
// stamps it with a fresh ULID.
type Log struct {
	entries []string
	runID   string
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func newRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}

// Reset drops all entries and assigns a new run ID.
func (l *Log) Reset() {
	l.entries = nil
	l.runID = newRunID()
}

// RunID identifies the current run. Empty until the first Reset.
func (l *Log) RunID() string {
	return l.runID
}

// Append adds an entry at the end.
func (l *Log) Append(entry string) {
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the entries in order.
func (l *Log) Entries() []string {
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Len() int {
	return len(l.entries)
}

// String joins the entries with newlines, the export format.
func (l *Log) String() string {
	return strings.Join(l.entries, "\n")
}

// Print writes the header and one entry per line.
func (l *Log) Print(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "\nInference Reasoning Path:"); err != nil {
		return err
	}
	for _, e := range l.entries {
		if _, err := fmt.Fprintln(w, e); err != nil {
			return err
		}
	}
	return nil
}

// Entry formatters. The text of these lines is the export contract.

func StepEntry(step int, sorted []string) string {
	return fmt.Sprintf("Step %d: Current facts: %v", step, sorted)
}

func FiredEntry(r inference.Rule) string {
	return fmt.Sprintf("  Rule fired: %s (confidence: %v)", r, r.Confidence)
}

func NewFactEntry(fact string) string {
	return "  New fact added: " + fact
}

const (
	CompleteEntry = "Inference complete: No more rules can fire."
	MaxStepsEntry = "Inference stopped: Max steps reached (possible loop)."
)

func GoalKnownEntry(goal string) string {
	return fmt.Sprintf("Goal '%s' directly in facts.", goal)
}

func GoalDerivedEntry(goal string, r inference.Rule) string {
	return fmt.Sprintf("Goal '%s' derived via rule: %s", goal, r)
}

func GoalUnprovenEntry(goal string) string {
	return fmt.Sprintf("Goal '%s' cannot be proven.", goal)
}
