package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scholar-scope/models"
)

func tagFor(results []TagResult, name string) *TagResult {
	for i := range results {
		if results[i].AreaName == name {
			return &results[i]
		}
	}
	return nil
}

func TestClassifyVenueAcronym(t *testing.T) {
	c := NewResearchAreaClassifier()
	results := c.Classify(&models.Publication{
		Title: "Scaling Laws for Something",
		Venue: "NeurIPS",
	})

	ml := tagFor(results, "Machine Learning")
	require.NotNil(t, ml)
	assert.InDelta(t, confidenceVenueAcronym, ml.Confidence, 1e-9)
	assert.Equal(t, "venue_acronym", ml.MatchKind)

	// Wurzel-Knoten wird mitgetaggt
	root := tagFor(results, "Computer Science & AI")
	require.NotNil(t, root)
	assert.InDelta(t, confidenceVenueAcronym, root.Confidence, 1e-9)
}

func TestClassifyVenueSubstring(t *testing.T) {
	c := NewResearchAreaClassifier()
	results := c.Classify(&models.Publication{
		Title: "On Some Estimators",
		Venue: "Journal of the American Statistical Association 112 (3)",
	})

	st := tagFor(results, "Statistical Theory")
	require.NotNil(t, st)
	assert.InDelta(t, confidenceVenue, st.Confidence, 1e-9)
	assert.Equal(t, "venue", st.MatchKind)
}

func TestClassifyKeywordFallback(t *testing.T) {
	c := NewResearchAreaClassifier()
	results := c.Classify(&models.Publication{
		Title: "Posterior sampling with MCMC for hierarchical models",
		Venue: "Some Obscure Workshop",
	})

	bayes := tagFor(results, "Bayesian Methods")
	require.NotNil(t, bayes)
	assert.InDelta(t, confidenceKeyword, bayes.Confidence, 1e-9)
	assert.Equal(t, "keyword", bayes.MatchKind)
}

func TestClassifyVenueBeatsKeyword(t *testing.T) {
	c := NewResearchAreaClassifier()
	// Acronym-Treffer auf ML, Keyword-Treffer ebenfalls auf ML:
	// der Acronym-Treffer gewinnt
	results := c.Classify(&models.Publication{
		Title: "Deep learning for everything",
		Venue: "ICML",
	})

	ml := tagFor(results, "Machine Learning")
	require.NotNil(t, ml)
	assert.InDelta(t, confidenceVenueAcronym, ml.Confidence, 1e-9)
}

func TestClassifyNoMatchIsValid(t *testing.T) {
	c := NewResearchAreaClassifier()
	results := c.Classify(&models.Publication{
		Title: "Untitled notes",
		Venue: "",
	})
	assert.Empty(t, results)
}

func TestClassifySortedByConfidence(t *testing.T) {
	c := NewResearchAreaClassifier()
	results := c.Classify(&models.Publication{
		Title: "Bayesian deep learning",
		Venue: "NeurIPS",
	})
	require.NotEmpty(t, results)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Confidence, results[i].Confidence)
	}
}

func TestSeedResearchAreasIdempotent(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ResearchArea{}))

	log := zap.NewNop()
	require.NoError(t, SeedResearchAreas(db, log))

	var count int64
	db.Model(&models.ResearchArea{}).Count(&count)
	assert.Equal(t, int64(len(defaultTaxonomy)), count)

	// zweiter Lauf legt nichts doppelt an
	require.NoError(t, SeedResearchAreas(db, log))
	var countAfter int64
	db.Model(&models.ResearchArea{}).Count(&countAfter)
	assert.Equal(t, count, countAfter)

	// Unterknoten hängen an ihrer Wurzel
	var sub models.ResearchArea
	require.NoError(t, db.Where("name = ?", "Machine Learning").First(&sub).Error)
	require.NotNil(t, sub.ParentID)
	var root models.ResearchArea
	require.NoError(t, db.First(&root, *sub.ParentID).Error)
	assert.Equal(t, "Computer Science & AI", root.Name)
	assert.Equal(t, 1, sub.Level)
}
