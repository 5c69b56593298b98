package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ddos-sim/ddos-sim/sim/sweep"
)

var (
	// CLI flags for sweeps
	sweepBuckets        int      // Buckets per simulation
	sweepUsersPerBucket int      // Users per bucket; population = buckets * users per bucket
	sweepRounds         int      // Rounds per simulation
	sweepTrials         int      // Trials per data point
	sweepManagers       []string // Managers to compare
	sweepAttackers      []string // Attacker strategies to sweep
	sweepSeed           int64    // Base seed; trial i uses seed+i
	sweepWorkers        int      // Parallel simulations (0 = NumCPU)
	sweepOut            string   // JSON report path ("" = stdout)
	sweepLogLevel       string   // Log verbosity level
)

// sweepCmd compares managers across attacker ratios 1%..49%
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Compare managers across attacker percentages and trials",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(sweepLogLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", sweepLogLevel)
		}
		logrus.SetLevel(level)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := sweep.Run(ctx, sweep.Params{
			NumBuckets:     sweepBuckets,
			UsersPerBucket: sweepUsersPerBucket,
			Rounds:         sweepRounds,
			Trials:         sweepTrials,
			Managers:       sweepManagers,
			Attackers:      sweepAttackers,
			Seed:           sweepSeed,
			Workers:        sweepWorkers,
		})
		if err != nil {
			logrus.Fatalf("sweep failed: %v", err)
		}

		out := cmd.OutOrStdout()
		if sweepOut != "" {
			f, err := os.Create(sweepOut)
			if err != nil {
				logrus.Fatalf("creating %s: %v", sweepOut, err)
			}
			defer f.Close()
			out = f
		}
		if err := report.WriteJSON(out); err != nil {
			logrus.Fatalf("writing report: %v", err)
		}
		logrus.Infof("sweep %s complete", report.ID)
	},
}

func init() {
	sweepCmd.Flags().IntVar(&sweepBuckets, "buckets", 10, "Buckets per simulation")
	sweepCmd.Flags().IntVar(&sweepUsersPerBucket, "users-per-bucket", 10, "Users per bucket")
	sweepCmd.Flags().IntVar(&sweepRounds, "rounds", 10, "Rounds per simulation")
	sweepCmd.Flags().IntVar(&sweepTrials, "trials", 100, "Trials per data point")
	sweepCmd.Flags().StringSliceVar(&sweepManagers, "managers", []string{"sieve-v0-s0", "protag", "kpo", "bounded"}, "Managers to compare")
	sweepCmd.Flags().StringSliceVar(&sweepAttackers, "attackers", []string{"basic"}, "Attacker strategies to sweep")
	sweepCmd.Flags().Int64Var(&sweepSeed, "seed", 42, "Base seed; trial i uses seed+i")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Parallel simulations (0 = NumCPU)")
	sweepCmd.Flags().StringVar(&sweepOut, "out", "", "Write the JSON report to this file instead of stdout")
	sweepCmd.Flags().StringVar(&sweepLogLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(sweepCmd)
}
