package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// flags holds command line values that are not part of Config.
type flags struct {
	configFile string
	logLevel   string
	cpuprofile string
	memprofile string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		f   flags
		cfg = defaultConfig()
	)
	cmd := &cobra.Command{
		Use:   "true_barcodes [flags] [fastq ...]",
		Short: "Cluster candidate barcodes and report the true barcode of each cluster",
		Long: `Extracts candidate barcodes from anchored reads, groups candidates that
differ by at most one base, and reports the most frequent member of the
largest groups with a confidence score.

Examples:
  true_barcodes --in reads.fastq.gz --cells 1570
  true_barcodes --config run.yaml --report barcodes.tsv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(f.logLevel)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			logger = logger.With(slog.String("run_id", uuid.NewString()))

			config, err := loadConfig(cmd, f.configFile, cfg, args)
			if err != nil {
				logger.Error("config", slog.Any("error", err))
				return err
			}
			if err := execute(cmd.Context(), config, f, logger); err != nil {
				logger.Error("run failed", slog.Any("error", err))
				return err
			}
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configFile, "config", "", "read configuration from `file` (.json or .yaml)")
	fl.StringVar(&f.logLevel, "log-level", "info", "debug | info | warn | error")
	fl.StringVar(&f.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	fl.StringVar(&f.memprofile, "memprofile", "", "write memory profile to `file`")

	fl.StringSliceVar(&cfg.Inputs, "in", nil, "FASTQ/FASTA `file`s to read (repeatable)")
	fl.IntVar(&cfg.Cells, "cells", cfg.Cells, "expected number of true barcodes (cells sequenced)")
	fl.StringVar(&cfg.Anchor, "anchor", cfg.Anchor, "known anchor sequence")
	fl.IntVar(&cfg.AnchorOffset, "anchor-offset", cfg.AnchorOffset, "read position of the anchor")
	fl.IntVar(&cfg.AnchorMismatches, "anchor-mismatches", cfg.AnchorMismatches, "substitutions tolerated in the anchor")
	fl.IntVar(&cfg.PrefixLength, "prefix-length", cfg.PrefixLength, "barcode length taken from the read start")
	fl.IntVar(&cfg.Threads, "threads", cfg.Threads, "neighbor search workers (0 = all CPUs)")
	fl.StringVar(&cfg.Mode, "mode", cfg.Mode, "parallel | sequential")
	fl.StringVar(&cfg.Output, "out", cfg.Output, "write true barcodes to `file` ('-' for stdout)")
	fl.StringVar(&cfg.Report, "report", "", "write a TSV report to `file`")
	fl.StringVar(&cfg.MetricsFile, "metrics-file", "", "write Prometheus metrics to `file`")
	return cmd
}

// loadConfig starts from the config file when given and lets explicitly set
// flags win. Positional arguments are appended to the inputs.
func loadConfig(cmd *cobra.Command, configFile string, fromFlags *Config, args []string) (*Config, error) {
	config := fromFlags
	if configFile != "" {
		fileConfig, err := readConfigFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		fl := cmd.Flags()
		override := func(name string, apply func()) {
			if fl.Changed(name) {
				apply()
			}
		}
		override("in", func() { fileConfig.Inputs = fromFlags.Inputs })
		override("cells", func() { fileConfig.Cells = fromFlags.Cells })
		override("anchor", func() { fileConfig.Anchor = fromFlags.Anchor })
		override("anchor-offset", func() { fileConfig.AnchorOffset = fromFlags.AnchorOffset })
		override("anchor-mismatches", func() { fileConfig.AnchorMismatches = fromFlags.AnchorMismatches })
		override("prefix-length", func() { fileConfig.PrefixLength = fromFlags.PrefixLength })
		override("threads", func() { fileConfig.Threads = fromFlags.Threads })
		override("mode", func() { fileConfig.Mode = fromFlags.Mode })
		override("out", func() { fileConfig.Output = fromFlags.Output })
		override("report", func() { fileConfig.Report = fromFlags.Report })
		override("metrics-file", func() { fileConfig.MetricsFile = fromFlags.MetricsFile })
		config = fileConfig
	}
	config.Inputs = append(config.Inputs, args...)
	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func execute(ctx context.Context, config *Config, f flags, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if f.cpuprofile != "" {
		fh, err := os.Create(f.cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer fh.Close()
		if err := pprof.StartCPUProfile(fh); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	logger.Info("starting", slog.String("mode", config.Mode), slog.Int("cells", config.Cells))
	sum, err := run(ctx, config, logger)
	if err != nil {
		return err
	}
	logger.Info("done",
		slog.Int("candidates", sum.Candidates),
		slog.Int("clusters", sum.Clusters),
		slog.Int("true_barcodes", len(sum.Results)),
		slog.String("output", config.Output),
	)

	if f.memprofile != "" {
		fh, err := os.Create(f.memprofile)
		if err != nil {
			return fmt.Errorf("could not create memory profile: %w", err)
		}
		defer fh.Close()
		runtime.GC() // get up-to-date statistics
		if err := pprof.WriteHeapProfile(fh); err != nil {
			return fmt.Errorf("could not write memory profile: %w", err)
		}
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
