package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/rulekit/pkg/rulekit"
	"github.com/cognicore/rulekit/pkg/rulekit/config"
	"github.com/cognicore/rulekit/pkg/rulekit/export"
	"github.com/cognicore/rulekit/pkg/rulekit/inference"
	"github.com/cognicore/rulekit/pkg/rulekit/inference/resolve"
)

var (
	// Global flags
	verbose   bool
	kbPath    string
	rulesPath string
	maxSteps  int
	outPath   string
	sinkName  string
	dbPath    string
	parallel  bool
	deep      bool

	// run flags
	runFacts []string
	runGoal  string

	settings config.Settings
	logger   *zap.Logger
)

// rootCmd starts an interactive diagnosis session
var rootCmd = &cobra.Command{
	Use:   "rulekit",
	Short: "Rule-based expert system with forward and backward chaining",
	Long: `rulekit seeds a fact base, forward chains over an ordered rule set until
no rule fires, prints the reasoning path and exports it.

Without --kb or --rules the sample medical diagnosis rules are loaded.

Run without arguments to enter symptoms interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		settings, err = config.LoadSettings()
		if err != nil {
			return err
		}
		applyFlagOverrides(cmd)
		return settings.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		sys, err := buildSystem()
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), sys, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

// runCmd forward chains over facts given as flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Forward chain over the given facts and export the log",
	Long: `Seeds the fact base from --fact flags, forward chains, prints the
reasoning path, optionally checks --goal, and exports the log.

Example:
  rulekit run --fact fever --fact cough --fact headache --goal severe_flu`,
	RunE: runOnce,
}

// proveCmd checks a goal against the given facts without forward chaining
var proveCmd = &cobra.Command{
	Use:   "prove",
	Short: "Check a goal by backward chaining over the given facts",
	Long: `Seeds the fact base from --fact flags and checks --goal by backward
chaining only. No rule fires and nothing is exported. With --deep unmet
conditions are proven through other rules.

Example:
  rulekit prove --deep --fact fever --fact cough --fact headache --goal severe_flu`,
	RunE: proveGoal,
}

// rulesCmd lists the loaded rules
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the loaded rules in firing-priority order",
	RunE:  listRules,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&kbPath, "kb", "", "YAML knowledge base (facts and rules)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Text rules file, one rule per line")
	rootCmd.PersistentFlags().IntVar(&maxSteps, "max-steps", rulekit.DefaultMaxSteps, "Forward chaining step bound (env RULEKIT_MAX_STEPS)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "inference_log.txt", "Export path for file and html sinks (env RULEKIT_LOG_PATH)")
	rootCmd.PersistentFlags().StringVar(&sinkName, "sink", config.SinkFile, "Export sink: file, html or sqlite (env RULEKIT_SINK)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "rulekit.db", "SQLite database for the sqlite sink (env RULEKIT_DB)")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "Evaluate rule eligibility concurrently (env RULEKIT_PARALLEL)")
	rootCmd.PersistentFlags().BoolVar(&deep, "deep", false, "Prove goals recursively instead of one rule level")

	runCmd.Flags().StringArrayVarP(&runFacts, "fact", "f", nil, "Initial fact (repeatable)")
	runCmd.Flags().StringVarP(&runGoal, "goal", "g", "", "Goal to check by backward chaining")

	proveCmd.Flags().StringArrayVarP(&runFacts, "fact", "f", nil, "Known fact (repeatable)")
	proveCmd.Flags().StringVarP(&runGoal, "goal", "g", "", "Goal to check")
	_ = proveCmd.MarkFlagRequired("goal")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(proveCmd)
	rootCmd.AddCommand(rulesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlagOverrides lets explicitly set flags win over the environment.
func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("max-steps") {
		settings.MaxSteps = maxSteps
	}
	if flags.Changed("out") {
		settings.LogPath = outPath
	}
	if flags.Changed("sink") {
		settings.Sink = sinkName
	}
	if flags.Changed("db") {
		settings.DBPath = dbPath
	}
	if flags.Changed("parallel") {
		settings.Parallel = parallel
	}
}

func buildSystem() (*rulekit.System, error) {
	var resolver inference.Resolver
	if settings.Parallel {
		resolver = resolve.ParallelScan{}
	}
	opts := rulekit.Options{Resolver: resolver, Logger: logger}

	if kbPath == "" && rulesPath == "" {
		logger.Debug("Loading sample medical rules")
		return rulekit.MedicalSystem(opts), nil
	}

	loader := config.Loader{KnowledgePath: kbPath, RulesPath: rulesPath}
	comp, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Debug("Knowledge loaded",
		zap.Int("facts", comp.Facts.Len()),
		zap.Int("rules", comp.Rules.Len()))

	opts.Facts = comp.Facts
	opts.Rules = comp.Rules
	return rulekit.New(opts), nil
}

// openSink returns the configured trace writer and its cleanup.
func openSink(ctx context.Context) (export.TraceWriter, string, func(), error) {
	switch settings.Sink {
	case config.SinkSQLite:
		w, err := export.OpenSQLite(ctx, settings.DBPath, "rulekit")
		if err != nil {
			return nil, "", nil, fmt.Errorf("open sqlite sink: %w", err)
		}
		return w, settings.DBPath, func() { w.Close() }, nil
	case config.SinkHTML:
		return export.HTMLWriter{Path: settings.LogPath}, settings.LogPath, func() {}, nil
	default:
		return export.FileWriter{Path: settings.LogPath}, settings.LogPath, func() {}, nil
	}
}

func exportLog(ctx context.Context, sys *rulekit.System) (string, error) {
	w, dest, cleanup, err := openSink(ctx)
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := sys.ExportLog(ctx, w); err != nil {
		return "", err
	}
	logger.Info("Log exported",
		zap.String("sink", settings.Sink),
		zap.String("dest", dest),
		zap.String("run", sys.Log().RunID()))
	return dest, nil
}
