package services

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholar-scope/models"
)

// AnalysisCache memoisiert berechnete Analyse-Ergebnisse in der
// Datenbank. Abgelaufene Einträge gelten als abwesend und werden beim
// Lesen entfernt.
type AnalysisCache struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewAnalysisCache erstellt einen Cache auf der gegebenen Datenbank.
func NewAnalysisCache(db *gorm.DB, logger *zap.Logger) *AnalysisCache {
	return &AnalysisCache{db: db, logger: logger}
}

// Get liefert das gecachte Ergebnis für (profileID, analysisType),
// oder ok=false, wenn keines existiert oder es abgelaufen ist.
func (c *AnalysisCache) Get(profileID uint, analysisType string) (string, bool) {
	var entry models.CachedAnalysis
	err := c.db.Where("profile_id = ? AND analysis_type = ?", profileID, analysisType).
		First(&entry).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			c.logger.Warn("Cache-Lookup fehlgeschlagen", zap.Error(err))
		}
		return "", false
	}
	if entry.Expired(time.Now()) {
		c.db.Delete(&models.CachedAnalysis{}, entry.ID)
		return "", false
	}
	return entry.Payload, true
}

// Put schreibt ein Ergebnis mit der gegebenen Lebensdauer und erhöht
// die Version des Eintrags.
func (c *AnalysisCache) Put(profileID uint, analysisType, payload string, ttl time.Duration) error {
	now := time.Now()
	entry := models.CachedAnalysis{
		ProfileID:    profileID,
		AnalysisType: analysisType,
		Payload:      payload,
		ComputedAt:   now,
		ExpiresAt:    now.Add(ttl),
		Version:      1,
	}
	return c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "analysis_type"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payload":     entry.Payload,
			"computed_at": entry.ComputedAt,
			"expires_at":  entry.ExpiresAt,
			"version":     gorm.Expr("cached_analyses.version + 1"),
		}),
	}).Create(&entry).Error
}

// Invalidate entfernt alle gecachten Analysen eines Profils, z.B. nach
// einem Re-Import.
func (c *AnalysisCache) Invalidate(profileID uint) error {
	return c.db.Where("profile_id = ?", profileID).
		Delete(&models.CachedAnalysis{}).Error
}
