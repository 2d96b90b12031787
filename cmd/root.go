package cmd

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vecsim/vecsim/sim"
	"github.com/vecsim/vecsim/sim/scenario"
	"github.com/vecsim/vecsim/sim/store"
	"github.com/vecsim/vecsim/sim/trace"
)

var (
	configPath string   // Scenario YAML; empty uses the built-in scenario
	seed       int64    // Master seed shared by every run of the sweep
	logLevel   string   // Log verbosity level
	policies   []string // Overrides simulation.policies
	devices    []int    // Overrides the min..max device sweep
	outputDir  string   // Directory for AI_TRAINER datasets
	runDBPath  string   // SQLite file receiving run summaries; empty disables persistence
	traceLevel string   // Decision trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "vecsim",
	Short: "Discrete-event simulator for vehicular edge task offloading",
}

// setLogLevel applies --log, exiting on an unknown level.
func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// runCmd executes a (devices x policies) sweep over a scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a scenario sweep",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		s, err := loadScenario(configPath)
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		if len(policies) > 0 {
			s.Simulation.Policies = policies
			if err := s.Validate(); err != nil {
				logrus.Fatalf("Invalid --policies: %v", err)
			}
		}
		for _, n := range devices {
			if n <= 0 {
				logrus.Fatalf("Invalid --devices entry %d: must be positive", n)
			}
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid --trace level %q (want none or decisions)", traceLevel)
		}

		var repo *store.Repository
		if runDBPath != "" {
			st, err := store.Open(runDBPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			defer st.Close()
			repo = st.Repository()
		}

		logrus.Infof("Starting sweep: devices=%v policies=%v seed=%d", sweepDevices(s), s.Simulation.Policies, seed)
		startTime := time.Now()
		cfg := scenario.SweepConfig{
			Seed:       seed,
			Devices:    devices,
			OutputDir:  outputDir,
			TraceLevel: trace.TraceLevel(traceLevel),
		}
		if err := scenario.Sweep(s, cfg, func(res *scenario.Result) error {
			return report(res, repo)
		}); err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		logrus.Infof("Sweep complete in %s", time.Since(startTime).Round(time.Millisecond))
	},
}

func sweepDevices(s *sim.Scenario) []int {
	if len(devices) > 0 {
		return devices
	}
	return s.DeviceCounts()
}

// report prints one run's metrics and trace summary and persists it when repo is set.
func report(res *scenario.Result, repo *store.Repository) error {
	res.Metrics.Print(res.Devices, res.Policy)
	if res.Trace != nil {
		printTraceSummary(trace.Summarize(res.Trace))
	}
	if res.DatasetPath != "" {
		logrus.Infof("Training dataset written to %s", res.DatasetPath)
	}
	if repo == nil {
		return nil
	}
	rec := store.NewRunRecord(res.Devices, res.Policy, res.Seed, res.Metrics)
	if err := repo.Save(rec); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	logrus.Infof("Run stored as %s", rec.ID)
	return nil
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Printf("=== Decision Trace ===\n")
	fmt.Printf("Decisions            : %d (delivered=%d failed=%d)\n", s.TotalDecisions, s.DeliveredCount, s.FailedCount)
	fmt.Printf("Mean Service Time    : %.4f s\n", s.MeanServiceTime)
	tiers := make([]string, 0, len(s.TierDistribution))
	for t := range s.TierDistribution {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, t := range tiers {
		fmt.Printf("  %-14s %d\n", t, s.TierDistribution[t])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (default: built-in vehicular scenario)")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Master seed for workload, mobility and policy draws")
	runCmd.Flags().StringSliceVar(&policies, "policies", nil, "Comma-separated orchestrator policies (default: scenario policies)")
	runCmd.Flags().IntSliceVar(&devices, "devices", nil, "Comma-separated device counts (default: scenario sweep)")
	runCmd.Flags().StringVar(&outputDir, "output-dir", ".", "Directory for AI_TRAINER datasets")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "SQLite file to store run summaries in (disabled when empty)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
