package models

import (
	"time"
)

// Analyse-Typen für den Ergebnis-Cache.
const (
	AnalysisOverview      = "overview"
	AnalysisAuthorship    = "authorship"
	AnalysisCollaboration = "collaboration"
	AnalysisComplete      = "complete"
	AnalysisPublications  = "publications"
)

// CachedAnalysis memoisiert ein berechnetes Analyse-Ergebnis pro
// (profile, analysis_type). Abgelaufene Einträge gelten als abwesend.
type CachedAnalysis struct {
	ID uint `json:"id" gorm:"primaryKey"`

	ProfileID    uint   `json:"profile_id" gorm:"uniqueIndex:idx_cache_identity;not null"`
	AnalysisType string `json:"analysis_type" gorm:"uniqueIndex:idx_cache_identity;not null"`

	// JSON-serialisiertes Ergebnis
	Payload string `json:"payload" gorm:"type:text"`

	ComputedAt time.Time `json:"computed_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
	Version    int       `json:"version"`
}

// Expired meldet, ob der Eintrag zum Zeitpunkt now abgelaufen ist.
func (c *CachedAnalysis) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
