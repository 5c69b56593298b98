package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/ddos-sim/ddos-sim/sim"
	"github.com/ddos-sim/ddos-sim/sim/trace"
)

var (
	// CLI flags for the scenario
	configPath           string   // Optional YAML/TOML scenario file; explicit flags override it
	goodUsers            int      // Number of benign users
	attackers            int      // Number of attackers
	numBuckets           int      // Number of service buckets per manager
	threshold            float64  // Detection threshold (carried in config, unused by policies)
	managers             []string // Managers to compare
	numRounds            int      // Rounds to simulate
	seed                 int64    // Seed for population layout, attacker activity and tie-breaking
	attackerStrategy     string   // Attacker strategy name
	bucketCapacity       int      // Maximum users per bucket
	boundedBudget        int      // Sieve passes allowed to the bounded manager
	eliminationThreshold float64  // Suspicion at which protag eliminates a user
	logLevel             string   // Log verbosity level

	// CLI flags for outputs
	traceOut   string // Write per-round snapshots as JSON to this path
	metricsOut string // Write Prometheus text-format metrics to this path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ddos-sim",
	Short: "Round-based simulator of DDoS mitigation by user-to-bucket allocation",
}

// runCmd executes a single simulation using parameters from the scenario file and CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print the utility of every manager",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", cfg.LogLevel)
		}
		logrus.SetLevel(level)

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("unable to build simulator: %v", err)
		}
		logrus.Infof("Starting run %s: %d rounds, managers=%v", s.RunID, cfg.Rounds, cfg.Managers)
		startTime := time.Now()

		utilities, err := s.Run(cfg.Rounds, traceOut != "")
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		printUtilities(cmd.OutOrStdout(), cfg.Managers, utilities)

		if traceOut != "" {
			if err := writeTraces(traceOut, s); err != nil {
				logrus.Fatalf("writing trace: %v", err)
			}
			for _, m := range s.Managers() {
				sum := trace.Summarize(s.Trace(m.Name()))
				logrus.Infof("%s: eliminated attackers=%d benign=%d, max suspicion %.2f",
					m.Name(), sum.EliminatedAttacker, sum.EliminatedBenign, sum.MaxSuspicion)
			}
		}
		if metricsOut != "" {
			if err := s.Metrics().WriteTextfile(metricsOut); err != nil {
				logrus.Fatalf("writing metrics: %v", err)
			}
		}
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// managersCmd lists the canonical manager names
var managersCmd = &cobra.Command{
	Use:   "managers",
	Short: "List available managers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range sim.ManagerNames() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

// buildConfig starts from the scenario file (or defaults) and applies every
// flag the user set explicitly.
func buildConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *loaded
	}
	flags := cmd.Flags()
	if configPath == "" || flags.Changed("good-users") {
		cfg.GoodUsers = goodUsers
	}
	if configPath == "" || flags.Changed("attackers") {
		cfg.Attackers = attackers
	}
	if configPath == "" || flags.Changed("buckets") {
		cfg.NumBuckets = numBuckets
	}
	if configPath == "" || flags.Changed("threshold") {
		cfg.Threshold = threshold
	}
	if configPath == "" || flags.Changed("managers") {
		cfg.Managers = managers
	}
	if configPath == "" || flags.Changed("rounds") {
		cfg.Rounds = numRounds
	}
	if configPath == "" || flags.Changed("seed") {
		cfg.Seed = seed
	}
	if configPath == "" || flags.Changed("attacker") {
		cfg.Attacker = attackerStrategy
	}
	if configPath == "" || flags.Changed("bucket-capacity") {
		cfg.BucketCapacity = bucketCapacity
	}
	if configPath == "" || flags.Changed("bounded-budget") {
		cfg.BoundedBudget = boundedBudget
	}
	if configPath == "" || flags.Changed("elimination-threshold") {
		cfg.EliminationThreshold = eliminationThreshold
	}
	if configPath == "" || flags.Changed("log") {
		cfg.LogLevel = logLevel
	}
	return cfg, cfg.Validate()
}

func printUtilities(w io.Writer, order []string, utilities map[string]float64) {
	names := append([]string(nil), order...)
	sort.SliceStable(names, func(i, j int) bool { return utilities[names[i]] > utilities[names[j]] })
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	fmt.Fprintf(w, "%-*s  %s\n", width, "MANAGER", "UTILITY")
	for _, n := range names {
		fmt.Fprintf(w, "%-*s  %.0f\n", width, n, utilities[n])
	}
}

func writeTraces(path string, s *sim.Simulator) error {
	recs := make([]*trace.Recorder, 0, len(s.Managers()))
	for _, m := range s.Managers() {
		recs = append(recs, s.Trace(m.Name()))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(map[string]any{"run_id": s.RunID, "managers": recs}); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	def := sim.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "Scenario file (.yaml, .yml or .toml); explicit flags override it")
	runCmd.Flags().IntVar(&goodUsers, "good-users", def.GoodUsers, "Number of benign users")
	runCmd.Flags().IntVar(&attackers, "attackers", def.Attackers, "Number of attackers")
	runCmd.Flags().IntVar(&numBuckets, "buckets", def.NumBuckets, "Number of buckets per manager")
	runCmd.Flags().Float64Var(&threshold, "threshold", def.Threshold, "Detection threshold (reserved)")
	runCmd.Flags().StringSliceVar(&managers, "managers", def.Managers,
		"Comma-separated managers to compare ("+strings.Join(sim.ManagerNames(), ", ")+")")
	runCmd.Flags().IntVar(&numRounds, "rounds", def.Rounds, "Number of rounds")
	runCmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for population layout, attacker activity and tie-breaking")
	runCmd.Flags().StringVar(&attackerStrategy, "attacker", def.Attacker, "Attacker strategy ("+strings.Join(sim.AttackerNames, ", ")+")")
	runCmd.Flags().IntVar(&bucketCapacity, "bucket-capacity", def.BucketCapacity, "Maximum users per bucket")
	runCmd.Flags().IntVar(&boundedBudget, "bounded-budget", def.BoundedBudget, "Sieve passes allowed to the bounded manager")
	runCmd.Flags().Float64Var(&eliminationThreshold, "elimination-threshold", def.EliminationThreshold, "Suspicion at which protag eliminates a user (0 disables)")
	runCmd.Flags().StringVar(&logLevel, "log", def.LogLevel, "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write per-round snapshots as JSON to this file")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus text-format metrics to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(managersCmd)
}
