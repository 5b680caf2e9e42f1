package models

import (
	"time"
)

// ProfileMetricsSnapshot hält die aggregierten Kennzahlen eines Profils
// an einem Tag. Eindeutig pro (profile, date).
type ProfileMetricsSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	ProfileID uint      `json:"profile_id" gorm:"uniqueIndex:idx_metsnap_identity;not null"`
	Date      time.Time `json:"date" gorm:"uniqueIndex:idx_metsnap_identity;not null"`

	TotalCitations   int     `json:"total_citations"`
	HIndex           int     `json:"h_index"`
	I10Index         int     `json:"i10_index"`
	PublicationCount int     `json:"publication_count"`
	AvgCitations     float64 `json:"avg_citations"`
	// Anteil der Publikationen mit mindestens einem Co-Autor
	CollaborationScore float64 `json:"collaboration_score"`
}
