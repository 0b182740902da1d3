package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/cluster"
	"github.com/Altius/stampipes/programs/true_barcodes/internal/consensus"
	"github.com/Altius/stampipes/programs/true_barcodes/internal/tally"
)

// summary is what one run found.
type summary struct {
	Stats      readStats
	Candidates int
	Distinct   int
	Clusters   int
	Results    []consensus.Result
}

// run reads candidates, clusters them and writes the true barcodes.
// Output files appear only once every one of them has been written.
func run(ctx context.Context, config *Config, logger *slog.Logger) (*summary, error) {
	m := newAnchorMatcher(config.Anchor, config.AnchorOffset, config.AnchorMismatches)
	logger.Info("reading candidates",
		slog.Int("files", len(config.Inputs)),
		slog.String("anchor", config.Anchor),
		slog.Int("anchor_variants", m.variants()),
	)
	candidates, stats, err := readCandidates(ctx, config.Inputs, m, config.PrefixLength, logger)
	if err != nil {
		return nil, err
	}
	logger.Info(fmt.Sprintf("analyzing %d potential barcodes", len(candidates)),
		slog.Int("records", stats.Records),
		slog.Int("anchored", stats.Anchored),
		slog.Int("too_short", stats.TooShort),
	)

	sum, err := findTrueBarcodes(ctx, candidates, config, logger)
	if err != nil {
		return nil, err
	}
	sum.Stats = stats

	logger.Info(fmt.Sprintf("%d true barcodes", len(sum.Results)))
	for _, r := range sum.Results {
		logger.Info("true barcode",
			slog.String("barcode", r.Barcode),
			slog.Int("count", r.Count),
			slog.String("confidence", r.FormatConfidence()),
		)
	}

	var outputs outputSet
	err = outputs.stage(config.Output, func(path string) error {
		return writeBarcodes(path, sum.Results)
	})
	if err == nil && config.Report != "" {
		err = outputs.stage(config.Report, func(path string) error {
			return writeReport(path, sum.Results)
		})
	}
	if err == nil && config.MetricsFile != "" {
		err = outputs.stage(config.MetricsFile, func(path string) error {
			return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
		})
	}
	if err != nil {
		outputs.discard()
		return nil, err
	}
	if err := outputs.commit(); err != nil {
		return nil, err
	}
	return sum, nil
}

// findTrueBarcodes is the in-memory core: cluster, tally, select.
func findTrueBarcodes(ctx context.Context, candidates []string, config *Config, logger *slog.Logger) (*summary, error) {
	var (
		clusters []cluster.Cluster
		err      error
	)
	b := cluster.New(
		cluster.WithWorkers(config.Threads),
		cluster.WithLogger(logger),
	)
	switch config.Mode {
	case modeSequential:
		clusters, err = b.Sequential(ctx, candidates)
	default:
		clusters, err = b.Build(ctx, candidates)
	}
	if err != nil {
		return nil, err
	}

	t := tally.New(candidates)
	logger.Info(fmt.Sprintf("there are %d potentially true barcodes", len(clusters)),
		slog.Int("distinct", t.Distinct()),
	)
	return &summary{
		Candidates: t.Len(),
		Distinct:   t.Distinct(),
		Clusters:   len(clusters),
		Results:    consensus.TrueBarcodes(clusters, t, config.Cells),
	}, nil
}
