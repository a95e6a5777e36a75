// cmd/root.go
//
// Cobra CLI entry point: run, replicate, and validate subcommands over a
// QueueSystemConfig YAML file.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/queuesim/queuesim/sim"
	"github.com/queuesim/queuesim/sim/replicate"
	"github.com/queuesim/queuesim/sim/stats"
)

var (
	configPath string
	logLevel   string
	seed       uint64
	numEvents  int64
	warmup     int64

	nReplications int
	nThreads      int
	confidence    float64
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "queuesim",
	Short: "Discrete-event simulator for open queueing networks",
}

// runCmd executes a single measurement run and prints a summary.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single simulation and print E[N]/E[T]",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := LoadQueueSystemConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		q, err := cfg.Build()
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		opts := sim.SimOptions{NumEvents: numEvents, Seed: seed, Warmup: warmup}
		if opts.NumEvents == 0 {
			opts.NumEvents = cfg.Replication.NumEvents
		}
		if opts.NumEvents == 0 {
			opts.NumEvents = 1_000_000
		}
		if opts.Warmup == 0 {
			opts.Warmup = cfg.Replication.Warmup
		}
		if seed == 0 {
			opts.Seed = cfg.Replication.BaseSeed
		}
		if opts.Seed == 0 {
			opts.Seed = sim.RandomSeed()
			logrus.Debugf("no seed given, drew a random one: %d", opts.Seed)
		}

		result, err := q.Sim(opts)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		fmt.Printf("mean_N=%.6f mean_T=%.6f\n", result.MeanN, result.MeanT)
		for i, s := range q.Servers() {
			loss := stats.LossProbability(s.NumRejected(), s.NumArrivals())
			fmt.Printf("server[%d] completions=%d arrivals=%d rejected=%d loss=%.6f\n",
				i, s.NumCompletions(), s.NumArrivals(), s.NumRejected(), loss)
		}
		logrus.Info("run complete")
	},
}

// replicateCmd runs many independent replications and prints mean/CI.
var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Run independent replications and print mean/CI for E[N], E[T]",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := LoadQueueSystemConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		base, err := cfg.Build()
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		n := nReplications
		if n == 0 {
			n = cfg.Replication.NReplications
		}
		if n == 0 {
			n = 30
		}
		events := numEvents
		if events == 0 {
			events = cfg.Replication.NumEvents
		}
		if events == 0 {
			events = 1_000_000
		}
		baseSeed := seed
		if baseSeed == 0 {
			baseSeed = cfg.Replication.BaseSeed
		}
		if baseSeed == 0 {
			baseSeed = sim.RandomSeed()
			logrus.Debugf("no base seed given, drew a random one: %d", baseSeed)
		}
		threads := nThreads
		if threads == 0 {
			threads = cfg.Replication.NThreads
		}
		warm := warmup
		if warm == 0 {
			warm = cfg.Replication.Warmup
		}

		result, err := replicate.Run(base.Clone, replicate.Options{
			NReplications: n,
			NumEvents:     events,
			Seed:          baseSeed,
			Warmup:        warm,
			WorkerCount:   threads,
		})
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		summaryN, err := stats.Summarize(result.RawN, confidence)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		summaryT, err := stats.Summarize(result.RawT, confidence)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		lowN, highN := summaryN.CI()
		lowT, highT := summaryT.CI()
		fmt.Printf("E[N] = %.6f  %.0f%% CI [%.6f, %.6f]\n", summaryN.Mean, confidence*100, lowN, highN)
		fmt.Printf("E[T] = %.6f  %.0f%% CI [%.6f, %.6f]\n", summaryT.Mean, confidence*100, lowT, highT)
		logrus.Infof("replicate complete: n=%d threads=%d", n, threads)
	},
}

// validateCmd constructs the network and reports config errors without
// simulating, for use in CI.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config without running a simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		cfg, err := LoadQueueSystemConfig(configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if _, err := cfg.Build(); err != nil {
			logrus.Fatalf("%v", err)
		}
		fmt.Println("config OK")
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// Execute runs the CLI root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a QueueSystemConfig YAML file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	_ = rootCmd.MarkPersistentFlagRequired("config")

	runCmd.Flags().Uint64Var(&seed, "seed", 0, "base seed (0 = use config's base_seed)")
	runCmd.Flags().Int64Var(&numEvents, "num-events", 0, "number of events (0 = use config or 10^6)")
	runCmd.Flags().Int64Var(&warmup, "warmup", 0, "warmup events before measurement")

	replicateCmd.Flags().Uint64Var(&seed, "seed", 0, "base seed (0 = use config's base_seed)")
	replicateCmd.Flags().Int64Var(&numEvents, "num-events", 0, "number of events per replication")
	replicateCmd.Flags().Int64Var(&warmup, "warmup", 0, "warmup events before measurement")
	replicateCmd.Flags().IntVar(&nReplications, "n", 0, "number of replications (0 = use config or 30)")
	replicateCmd.Flags().IntVar(&nThreads, "threads", 0, "worker count (0 = auto)")
	replicateCmd.Flags().Float64Var(&confidence, "confidence", 0.95, "confidence level for the interval")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(replicateCmd)
	rootCmd.AddCommand(validateCmd)
}
