package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cognicore/rulekit/pkg/rulekit"
	"github.com/cognicore/rulekit/pkg/rulekit/config"
	"github.com/cognicore/rulekit/pkg/rulekit/export"
	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
)

func setup(t *testing.T) string {
	t.Helper()
	logger = zap.NewNop()
	out := filepath.Join(t.TempDir(), "inference_log.txt")
	settings = config.Settings{MaxSteps: 100, LogPath: out, Sink: config.SinkFile, DBPath: filepath.Join(t.TempDir(), "rulekit.db")}
	kbPath, rulesPath = "", ""
	runFacts, runGoal, deep = nil, "", false
	t.Cleanup(func() {
		kbPath, rulesPath = "", ""
		runFacts, runGoal, deep = nil, "", false
	})
	return out
}

func TestInteractiveSession(t *testing.T) {
	logPath := setup(t)

	in := strings.NewReader("Fever\ncough\n\nheadache\nDONE\nsevere_flu\n")
	var out bytes.Buffer

	err := runSession(context.Background(), rulekit.MedicalSystem(rulekit.Options{Logger: logger}), in, &out)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "Enter symptoms (one per line, type 'done' to finish):")
	assert.Contains(t, got, "Initial facts: [cough fever headache]")
	assert.Contains(t, got, "Inference Reasoning Path:")
	assert.Contains(t, got, "  New fact added: severe_flu")
	assert.Contains(t, got, "Backward Chaining for 'severe_flu': Proven")
	assert.Contains(t, got, "  Goal 'severe_flu' directly in facts.")
	assert.Contains(t, got, "Log exported to "+logPath)

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	assert.Equal(t, "Step 1: Current facts: [cough fever headache]", lines[0])
	assert.Equal(t, "Goal 'severe_flu' directly in facts.", lines[len(lines)-1])
}

func TestInteractiveSessionSkipGoalAndEOF(t *testing.T) {
	logPath := setup(t)

	var out bytes.Buffer
	err := runSession(context.Background(), rulekit.MedicalSystem(rulekit.Options{}), strings.NewReader("rash\n"), &out)
	require.NoError(t, err)

	assert.NotContains(t, out.String(), "Backward Chaining")
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "Step 1: Current facts: [rash]\nInference complete: No more rules can fire.", string(data))
}

func TestInteractiveSessionExportError(t *testing.T) {
	setup(t)
	settings.LogPath = filepath.Join(t.TempDir(), "missing", "log.txt")

	err := runSession(context.Background(), rulekit.MedicalSystem(rulekit.Options{}), strings.NewReader("done\n\n"), &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunCommandWithGoal(t *testing.T) {
	logPath := setup(t)
	runFacts = []string{"fever", "cough"}
	runGoal = "flu"

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runOnce(cmd, nil))
	assert.Contains(t, out.String(), "Backward Chaining for 'flu': Proven")

	_, err := os.Stat(logPath)
	assert.NoError(t, err)
}

func TestRunCommandDeepGoal(t *testing.T) {
	setup(t)
	runFacts = []string{"fever", "cough", "headache"}
	settings.MaxSteps = 1
	runGoal = "severe_flu"
	deep = true

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runOnce(cmd, nil))
	assert.Contains(t, out.String(), "Inference stopped: Max steps reached (possible loop).")
	assert.Contains(t, out.String(), "Backward Chaining for 'severe_flu': Proven")
}

func TestRunCommandSQLiteSink(t *testing.T) {
	setup(t)
	settings.Sink = config.SinkSQLite
	runFacts = []string{"fever", "cough"}

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, runOnce(cmd, nil))

	ctx := context.Background()
	w, err := export.OpenSQLite(ctx, settings.DBPath, "rulekit")
	require.NoError(t, err)
	defer w.Close()

	body, runID, ok, err := w.ReadTrace(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, runID)
	assert.Contains(t, body, "  New fact added: flu")
}

func TestRunCommandHTMLSink(t *testing.T) {
	setup(t)
	settings.Sink = config.SinkHTML
	settings.LogPath = filepath.Join(t.TempDir(), "trace.html")

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	require.NoError(t, runOnce(cmd, nil))

	data, err := os.ReadFile(settings.LogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<pre")
}

func TestProveCommandShallowDoesNotChain(t *testing.T) {
	logPath := setup(t)
	runFacts = []string{"fever", "cough", "headache"}
	runGoal = "severe_flu"

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, proveGoal(cmd, nil))
	assert.Contains(t, out.String(), "Known facts: [cough fever headache]")
	assert.Contains(t, out.String(), "Backward Chaining for 'severe_flu': Not Proven")
	assert.Contains(t, out.String(), "  Goal 'severe_flu' cannot be proven.")
	assert.NotContains(t, out.String(), "Rule fired")

	_, err := os.Stat(logPath)
	assert.True(t, os.IsNotExist(err))
}

func TestProveCommandDeep(t *testing.T) {
	setup(t)
	runFacts = []string{"fever", "cough", "headache"}
	runGoal = "Severe_Flu"
	deep = true

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, proveGoal(cmd, nil))
	assert.Contains(t, out.String(), "Backward Chaining for 'severe_flu': Proven")
	assert.Contains(t, out.String(), "Goal 'flu' derived via rule: [{fever AND} {cough AND}] -> flu")
}

func TestProveCommandRequiresGoal(t *testing.T) {
	setup(t)

	err := proveGoal(&cobra.Command{}, nil)
	assert.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestProveCommandRegistered(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"prove"})
	require.NoError(t, err)
	assert.Equal(t, "prove", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("goal"))
	assert.NotNil(t, cmd.Flags().Lookup("fact"))
}

func TestListRulesFromFixtures(t *testing.T) {
	setup(t)
	rulesPath = "../../testdata/medical.rules"

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, listRules(cmd, nil))
	assert.Contains(t, out.String(), "1. [-] [{fever AND} {cough AND}] -> flu (confidence: 0.9)")
	assert.Contains(t, out.String(), "4. [-] [{sore_throat AND} {cough AND}] -> cold (confidence: 0.85)")
}

func TestBuildSystemFromKnowledgeBase(t *testing.T) {
	setup(t)
	kbPath = "../../testdata/medical.yaml"
	settings.Parallel = true

	sys, err := buildSystem()
	require.NoError(t, err)
	assert.Len(t, sys.Rules(), 4)
	assert.Equal(t, "flu", sys.Rules()[0].Name)
}

func TestBuildSystemMissingFile(t *testing.T) {
	setup(t)
	kbPath = filepath.Join(t.TempDir(), "nope.yaml")

	_, err := buildSystem()
	assert.Error(t, err)
}
