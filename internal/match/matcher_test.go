package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "BOGOTA", "BOGOTA", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "BOGOTA", "", 0.0},
		{"one edit", "BOGOTA", "BOGOTE", 5.0 / 6.0},
		{"disjoint", "XKCD", "BOGOTA", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"BOGOTA", "BOGOTA DC"},
		{"MEDELLIN", "MANIZALES"},
		{"CALI", "CARTAGENA"},
		{"", "PEREIRA"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "%s vs %s", p[0], p[1])
	}
}

func TestFindMatch_ExactShortCircuits(t *testing.T) {
	// Near-duplicates before and after must not displace the exact hit.
	names := []string{"BOGOTA D", "BOGOTA", "BOGOTA DC", "BOGOTAA"}

	m, ok := FindMatch("bogota", names, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.Equal(t, 1.0, m.Similarity)
	assert.True(t, m.Exact)
}

func TestFindMatch_DiacriticExact(t *testing.T) {
	m, ok := FindMatch("MEDELLIN", []string{"MEDELLÍN", "MANIZALES"}, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
	assert.Equal(t, 1.0, m.Similarity)
	assert.True(t, m.Exact)
}

func TestFindMatch_Containment(t *testing.T) {
	m, ok := FindMatch("BOGOTA", []string{"BOGOTA DC"}, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
	assert.False(t, m.Exact)
	// Containment is scored with the edit-distance formula: 6/9.
	assert.InDelta(t, 6.0/9.0, m.Similarity, 1e-9)
}

func TestFindMatch_ContainmentBeatsThreshold(t *testing.T) {
	// The edit score 6/9 sits under the gate, but "BOGOTA" is a real
	// reference to "BOGOTA DC" and must still resolve.
	m, ok := FindMatch("BOGOTA", []string{"MEDELLIN", "BOGOTA DC"}, 0.99)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
	assert.False(t, m.Exact)
	assert.InDelta(t, 6.0/9.0, m.Similarity, 1e-9)
}

func TestFindMatch_BestContainmentWins(t *testing.T) {
	// Both candidates contain the query; the higher edit score wins.
	m, ok := FindMatch("BOGOTA", []string{"NORTE DE BOGOTA", "BOGOTA DC"}, DefaultThreshold)
	require.True(t, ok)
	assert.Equal(t, 1, m.Index)
}

func TestFindMatch_NoMatch(t *testing.T) {
	_, ok := FindMatch("XKCD", []string{"BOGOTA"}, DefaultThreshold)
	assert.False(t, ok)

	_, ok = FindMatch("BOGOTA", nil, DefaultThreshold)
	assert.False(t, ok)
}

func TestFindMatch_TieBreaksToFirst(t *testing.T) {
	// Two candidates at the same edit distance from the query.
	m, ok := FindMatch("CARTAGO", []string{"CARTAGOS", "CARTAGOX"}, 0.8)
	require.True(t, ok)
	assert.Equal(t, 0, m.Index)
}

func TestFindMatch_ThresholdGate(t *testing.T) {
	// One edit over eight runes: similarity 0.875.
	names := []string{"MONTERIA"}

	m, ok := FindMatch("MONTERIE", names, 0.85)
	require.True(t, ok)
	assert.InDelta(t, 0.875, m.Similarity, 1e-9)

	_, ok = FindMatch("MONTERIE", names, 0.9)
	assert.False(t, ok)
}

func TestRankSimilar(t *testing.T) {
	names := []string{"BOGOTA", "BOGOTA DC", "NORTE DE BOGOTA", "MEDELLIN", "BOGOTE"}

	ranked := RankSimilar("bogota", names, 0.8, 0)
	require.Len(t, ranked, 4)

	assert.Equal(t, Ranked{Index: 0, Score: 1.0, Type: TypeExact}, ranked[0])
	assert.Equal(t, Ranked{Index: 1, Score: 0.95, Type: TypeStartsWith}, ranked[1])
	assert.Equal(t, Ranked{Index: 2, Score: 0.85, Type: TypeContains}, ranked[2])
	assert.Equal(t, TypeFuzzy, ranked[3].Type)
	assert.Equal(t, 4, ranked[3].Index)
	assert.InDelta(t, 5.0/6.0, ranked[3].Score, 1e-9)
}

func TestRankSimilar_Truncates(t *testing.T) {
	names := []string{"BOGOTA", "BOGOTA DC", "BOGOTA NORTE"}
	ranked := RankSimilar("BOGOTA", names, 0.5, 2)
	assert.Len(t, ranked, 2)
	assert.Equal(t, 0, ranked[0].Index)
}

func TestRankSimilar_FiltersBelowThreshold(t *testing.T) {
	ranked := RankSimilar("XKCD", []string{"BOGOTA", "MEDELLIN"}, 0.85, 0)
	assert.Empty(t, ranked)
}
