package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/rulekit/pkg/rulekit"
	"github.com/cognicore/rulekit/pkg/rulekit/internalerr"
)

// runSession reads symptoms until "done", forward chains, prints the
// reasoning path, optionally checks a goal and exports the log.
func runSession(ctx context.Context, sys *rulekit.System, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "Enter symptoms (one per line, type 'done' to finish):")
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		symptom := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(symptom, "done") {
			break
		}
		if symptom == "" {
			continue
		}
		sys.AddFact(symptom)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read symptoms: %w", err)
	}

	fmt.Fprintf(out, "Initial facts: %v\n", sys.Facts())

	if err := chain(sys, out); err != nil {
		return err
	}

	fmt.Fprint(out, "Enter a goal to check (e.g., 'flu'), or press Enter to skip: ")
	goal := ""
	if scanner.Scan() {
		goal = strings.ToLower(strings.TrimSpace(scanner.Text()))
	} else {
		fmt.Fprintln(out)
	}
	if goal != "" {
		checkGoal(sys, goal, out)
	}

	return writeLog(ctx, sys, out)
}

func runOnce(cmd *cobra.Command, args []string) error {
	sys, err := buildSystem()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	for _, f := range runFacts {
		sys.AddFact(f)
	}
	fmt.Fprintf(out, "Initial facts: %v\n", sys.Facts())

	if err := chain(sys, out); err != nil {
		return err
	}
	if runGoal != "" {
		checkGoal(sys, runGoal, out)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return writeLog(ctx, sys, out)
}

func proveGoal(cmd *cobra.Command, args []string) error {
	if strings.TrimSpace(runGoal) == "" {
		return fmt.Errorf("prove: %w: --goal is required", internalerr.ErrInvalidInput)
	}
	sys, err := buildSystem()
	if err != nil {
		return err
	}
	for _, f := range runFacts {
		sys.AddFact(f)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Known facts: %v\n", sys.Facts())
	checkGoal(sys, runGoal, out)
	return nil
}

func listRules(cmd *cobra.Command, args []string) error {
	sys, err := buildSystem()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, r := range sys.Rules() {
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(out, "%d. [%s] %s (confidence: %v)\n", i+1, name, r, r.Confidence)
	}
	return nil
}

func chain(sys *rulekit.System, out io.Writer) error {
	res := sys.ForwardChain(settings.MaxSteps)
	if !res.Converged {
		logger.Warn("Forward chaining did not converge", zap.Int("steps", res.Steps))
	}
	return sys.PrintLog(out)
}

func checkGoal(sys *rulekit.System, goal string, out io.Writer) {
	prove := sys.BackwardChain
	if deep {
		prove = sys.BackwardChainDeep
	}
	proven, path := prove(goal)

	verdict := "Not Proven"
	if proven {
		verdict = "Proven"
	}
	fmt.Fprintf(out, "Backward Chaining for '%s': %s\n", strings.ToLower(strings.TrimSpace(goal)), verdict)
	for _, step := range path {
		fmt.Fprintf(out, "  %s\n", step)
	}
}

func writeLog(ctx context.Context, sys *rulekit.System, out io.Writer) error {
	dest, err := exportLog(ctx, sys)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Log exported to %s\n", dest)
	return nil
}
