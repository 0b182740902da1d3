package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/shenwei356/bio/seqio/fastx"
)

const (
	readBufSize   = 10
	readChunkSize = 1000
)

// readStats counts what happened to the records of one run.
type readStats struct {
	Records  int // records read
	Anchored int // records carrying the anchor
	TooShort int // anchored records shorter than the prefix
}

// readCandidates extracts the barcode prefix of every anchored record in
// files. Duplicates are kept: they are the evidence the tally counts.
func readCandidates(ctx context.Context, files []string, m *anchorMatcher, prefixLen int, logger *slog.Logger) ([]string, readStats, error) {
	var (
		candidates []string
		stats      readStats
	)
	for _, filename := range files {
		before := len(candidates)
		var err error
		candidates, err = readFile(ctx, filename, m, prefixLen, candidates, &stats)
		if err != nil {
			return nil, stats, fmt.Errorf("read %s: %w", filename, err)
		}
		logger.Debug("read input",
			slog.String("file", filename),
			slog.Int("candidates", len(candidates)-before),
		)
	}
	return candidates, stats, nil
}

func readFile(ctx context.Context, filename string, m *anchorMatcher, prefixLen int, candidates []string, stats *readStats) ([]string, error) {
	fq, err := fastx.NewDefaultReader(filename)
	if err != nil {
		return nil, err
	}
	chunks := fq.ChunkChan(readBufSize, readChunkSize)
	// The producer goroutine owns fq until it closes chunks. Drain it when
	// we stop early and only then release the file.
	defer func() {
		go func() {
			for range chunks {
			}
			fq.Close()
		}()
	}()

	for chunk := range chunks {
		if chunk.Err != nil {
			return nil, chunk.Err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, record := range chunk.Data {
			stats.Records++
			seq := bytes.ToUpper(record.Seq.Seq)
			if !m.match(seq) {
				continue
			}
			stats.Anchored++
			if len(seq) < prefixLen {
				stats.TooShort++
				continue
			}
			candidates = append(candidates, string(seq[:prefixLen]))
		}
	}
	return candidates, nil
}
