package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scholar-scope/models"
)

// bruteForceHIndex prüft jedes Kandidaten-h direkt gegen die Definition.
func bruteForceHIndex(citations []int) int {
	best := 0
	for h := 1; h <= len(citations); h++ {
		count := 0
		for _, c := range citations {
			if c >= h {
				count++
			}
		}
		if count >= h {
			best = h
		}
	}
	return best
}

func TestHIndexKnownValues(t *testing.T) {
	assert.Equal(t, 0, HIndex(nil))
	assert.Equal(t, 0, HIndex([]int{0, 0, 0}))
	assert.Equal(t, 1, HIndex([]int{1}))
	assert.Equal(t, 3, HIndex([]int{10, 8, 5, 4, 3}))
	assert.Equal(t, 4, HIndex([]int{25, 8, 5, 4, 3}))
	assert.Equal(t, 2, HIndex([]int{100, 2}))
}

func TestHIndexAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := rng.Intn(501)
		citations := make([]int, n)
		for j := range citations {
			citations[j] = rng.Intn(501)
		}
		assert.Equal(t, bruteForceHIndex(citations), HIndex(citations))
	}
}

func TestI10Index(t *testing.T) {
	assert.Equal(t, 0, I10Index(nil))
	assert.Equal(t, 2, I10Index([]int{10, 9, 11, 0}))
}

func TestComputeOverview(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pubs := []models.Publication{
		{Title: "A", Authors: "J Smith, A Lee", Year: 2018, CitationCount: 30},
		{Title: "B", Authors: "J Smith", Year: 2020, CitationCount: 12},
		{Title: "C", Authors: "J Smith, B Chen", Year: 2020, CitationCount: 3},
		{Title: "D", Authors: "J Smith, C Diaz", Year: 2022, CitationCount: 0},
	}

	m := NewMetricsComputer().Compute(pubs, now)
	assert.Equal(t, 4, m.PublicationCount)
	assert.Equal(t, 45, m.TotalCitations)
	assert.Equal(t, 3, m.HIndex)
	assert.Equal(t, 2, m.I10Index)
	assert.Equal(t, 30, m.MaxCitations)
	assert.InDelta(t, 11.25, m.AvgCitations, 1e-9)
	assert.InDelta(t, 0.75, m.CollaborationScore, 1e-9)
	assert.Equal(t, 2018, m.FirstYear)
	assert.Equal(t, 2022, m.LastYear)
	assert.Equal(t, 5, m.YearsActive)
}

func TestYearlyBucketsContiguous(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pubs := []models.Publication{
		{Year: 2018, CitationCount: 5},
		{Year: 2021, CitationCount: 7},
		{Year: 2021, CitationCount: 1},
		// außerhalb des gültigen Fensters, fällt raus
		{Year: 1870, CitationCount: 99},
		{Year: 2090, CitationCount: 99},
		{Year: 0, CitationCount: 99},
	}

	buckets := YearlyBuckets(pubs, now)
	require.Len(t, buckets, 4)

	years := make([]int, len(buckets))
	for i, b := range buckets {
		years[i] = b.Year
	}
	assert.Equal(t, []int{2018, 2019, 2020, 2021}, years)

	assert.Equal(t, 1, buckets[0].Publications)
	assert.Equal(t, 5, buckets[0].Citations)
	assert.Equal(t, 0, buckets[1].Publications)
	assert.Equal(t, 0, buckets[1].Citations)
	assert.Equal(t, 2, buckets[3].Publications)
	assert.Equal(t, 8, buckets[3].Citations)
}

func TestComputeEmpty(t *testing.T) {
	m := NewMetricsComputer().Compute(nil, time.Now())
	assert.Zero(t, m.PublicationCount)
	assert.Zero(t, m.HIndex)
	assert.Empty(t, m.YearlyBuckets)
}
