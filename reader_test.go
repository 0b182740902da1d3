package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// anchoredRead builds a read whose barcode prefix is followed by filler up
// to the default anchor offset, the anchor, and a short tail.
func anchoredRead(barcode, anchor string) string {
	filler := strings.Repeat("T", defaultAnchorOffset-len(barcode))
	return barcode + filler + anchor + "ACGTACGT"
}

func fastq(reads ...string) string {
	var b strings.Builder
	for i, r := range reads {
		fmt.Fprintf(&b, "@read%d\n%s\n+\n%s\n", i, r, strings.Repeat("I", len(r)))
	}
	return b.String()
}

func barcode(c byte) string {
	return strings.Repeat(string(c), defaultPrefixLength)
}

func TestReadCandidates(t *testing.T) {
	dir := t.TempDir()
	bcA, bcC := barcode('A'), barcode('C')
	offByOne := defaultAnchor[:5] + "A" + defaultAnchor[6:]
	path := writeFile(t, dir, "reads.fastq", fastq(
		anchoredRead(bcA, defaultAnchor),
		anchoredRead(bcA, defaultAnchor),
		strings.ToLower(anchoredRead(bcC, defaultAnchor)),
		anchoredRead(bcC, offByOne),
		"ACGTACGTACGT",
	))

	m := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 0)
	got, stats, err := readCandidates(context.Background(), []string{path}, m, defaultPrefixLength, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{bcA, bcA, bcC}, got)
	assert.Equal(t, readStats{Records: 5, Anchored: 3}, stats)

	loose := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 1)
	got, stats, err = readCandidates(context.Background(), []string{path}, loose, defaultPrefixLength, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{bcA, bcA, bcC, bcC}, got)
	assert.Equal(t, 4, stats.Anchored)
}

func TestReadCandidates_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.fastq", fastq(anchoredRead(barcode('G'), defaultAnchor)))
	second := writeFile(t, dir, "b.fastq", fastq(anchoredRead(barcode('T'), defaultAnchor)))

	m := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 0)
	got, stats, err := readCandidates(context.Background(), []string{first, second}, m, defaultPrefixLength, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{barcode('G'), barcode('T')}, got)
	assert.Equal(t, 2, stats.Records)
}

func TestReadCandidates_TooShort(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "reads.fastq", fastq(anchoredRead(barcode('A'), defaultAnchor)))

	m := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 0)
	got, stats, err := readCandidates(context.Background(), []string{path}, m, 200, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, stats.TooShort)
}

func TestReadCandidates_MissingFile(t *testing.T) {
	m := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 0)
	_, _, err := readCandidates(context.Background(), []string{filepath.Join(t.TempDir(), "nope.fq")}, m, 30, discardLogger())
	assert.ErrorContains(t, err, "nope.fq")
}

func TestReadCandidates_CancelledMidFile(t *testing.T) {
	dir := t.TempDir()
	// More records than the chunk channel buffers, so the producer is
	// still reading when we stop.
	n := (readBufSize + 2) * readChunkSize * 2
	path := writeFile(t, dir, "big.fastq", strings.Repeat(fastq(anchoredRead(barcode('A'), defaultAnchor)), n))

	m := newAnchorMatcher(defaultAnchor, defaultAnchorOffset, 0)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		got, _, err := readCandidates(ctx, []string{path}, m, defaultPrefixLength, discardLogger())
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, got)
	}
}
