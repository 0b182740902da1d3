package consensus

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Altius/stampipes/programs/true_barcodes/internal/cluster"
	"github.com/Altius/stampipes/programs/true_barcodes/internal/tally"
)

func run(t *testing.T, in []string, limit int) ([]Group, []Result) {
	t.Helper()
	clusters, err := cluster.New(cluster.WithWorkers(2)).Build(context.Background(), in)
	require.NoError(t, err)
	groups := Score(clusters, tally.New(in))
	return groups, Select(groups, limit)
}

func TestScenarioA(t *testing.T) {
	groups, results := run(t, []string{"AAA", "AAA", "AAT", "TTT"}, 2)

	require.Len(t, groups, 2)
	assert.Equal(t, []Member{{"AAA", 2}, {"AAT", 1}}, groups[0].Members)
	assert.Equal(t, 3, groups[0].Total)
	assert.Equal(t, []Member{{"TTT", 1}}, groups[1].Members)

	require.Len(t, results, 2)
	// TTT is alone in its cluster, so it outranks AAA on confidence.
	assert.Equal(t, "TTT", results[0].Barcode)
	assert.Equal(t, 1.0, results[0].Confidence)
	assert.Equal(t, "AAA", results[1].Barcode)
	assert.Equal(t, 2, results[1].Count)
	assert.Equal(t, 3, results[1].Total)
	assert.InDelta(t, 2.0/3.0, results[1].Confidence, 1e-9)
	assert.Equal(t, "0.67", results[1].FormatConfidence())
}

func TestScenarioA_TopEvidenceOnly(t *testing.T) {
	_, results := run(t, []string{"AAA", "AAA", "AAT", "TTT"}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "AAA", results[0].Barcode)
	assert.Equal(t, 2, results[0].Variants)
}

func TestScenarioB(t *testing.T) {
	_, results := run(t, []string{"GGG", "GGG", "GGG", "GGG", "GGG"}, 100)
	require.Len(t, results, 1)
	assert.Equal(t, "GGG", results[0].Barcode)
	assert.Equal(t, 5, results[0].Count)
	assert.Equal(t, "1.00", results[0].FormatConfidence())
}

func TestScenarioC(t *testing.T) {
	groups, results := run(t, []string{"AAA", "ATT"}, 10)
	assert.Len(t, groups, 2)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, 1.0, r.Confidence)
	}
}

func TestScenarioD(t *testing.T) {
	groups, results := run(t, nil, 10)
	assert.Empty(t, groups)
	assert.Empty(t, results)
}

func TestSelect_NumericConfidenceOrder(t *testing.T) {
	// 9/10 must rank above 1/10 even though "0.10" > "0.9" as text.
	groups := []Group{
		{Pivot: "AAAA", Members: []Member{{"AAAA", 1}, {"AAAT", 1}, {"AATA", 1}, {"ATAA", 1}, {"TAAA", 1}, {"AAAC", 1}, {"AACA", 1}, {"ACAA", 1}, {"CAAA", 1}, {"AAAG", 1}}, Total: 10},
		{Pivot: "CCCC", Members: []Member{{"CCCC", 9}, {"CCCA", 1}}, Total: 10},
	}
	results := Select(groups, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "CCCC", results[0].Barcode)
	assert.Equal(t, "0.90", results[0].FormatConfidence())
	assert.Equal(t, "0.10", results[1].FormatConfidence())
}

func TestSelect_DefaultLimit(t *testing.T) {
	var groups []Group
	for i := 0; i < DefaultExpected+20; i++ {
		groups = append(groups, Group{Members: []Member{{Barcode: "A", Count: 1}}, Total: 1})
	}
	assert.Len(t, Select(groups, 0), DefaultExpected)
	assert.Len(t, Select(groups, -3), DefaultExpected)
	assert.Len(t, Select(groups, 5), 5)
}

func TestScore_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	const alphabet = "ACGT"
	var in []string
	for i := 0; i < 4000; i++ {
		b := make([]byte, 8)
		for j := range b {
			b[j] = alphabet[r.Intn(2)] // small alphabet forces collisions
		}
		in = append(in, string(b))
	}
	groups, results := run(t, in, 50)

	sum := 0
	for i, g := range groups {
		sum += g.Total
		if i > 0 {
			assert.GreaterOrEqual(t, groups[i-1].Total, g.Total, "evidence must not increase")
		}
		for j := 1; j < len(g.Members); j++ {
			assert.GreaterOrEqual(t, g.Members[j-1].Count, g.Members[j].Count)
		}
		for _, m := range g.Members {
			assert.GreaterOrEqual(t, m.Count, 1)
		}
	}
	assert.Equal(t, len(in), sum)

	require.LessOrEqual(t, len(results), 50)
	for i, res := range results {
		assert.Greater(t, res.Confidence, 0.0)
		assert.LessOrEqual(t, res.Confidence, 1.0)
		if res.Variants == 1 {
			assert.Equal(t, 1.0, res.Confidence)
		} else {
			assert.Less(t, res.Confidence, 1.0)
		}
		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Confidence, res.Confidence)
		}
	}
}

func TestTrueBarcodes(t *testing.T) {
	in := []string{"ACGT", "ACGT", "ACGT", "ACGA", "TTTT", "TTTT"}
	clusters, err := cluster.New().Sequential(context.Background(), in)
	require.NoError(t, err)
	results := TrueBarcodes(clusters, tally.New(in), 0)
	require.Len(t, results, 2)
	assert.Equal(t, "TTTT", results[0].Barcode)
	assert.Equal(t, "ACGT", results[1].Barcode)
	assert.Equal(t, "0.75", results[1].FormatConfidence())
}
