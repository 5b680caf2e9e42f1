package models

import (
	"time"
)

// CitationSnapshot ist eine append-only Beobachtung des Zitationsstands
// einer Publikation an einem Tag. Eindeutig pro (publication, date).
type CitationSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PublicationID uint `json:"publication_id" gorm:"uniqueIndex:idx_citsnap_identity;not null"`
	// Kalendertag der Beobachtung (UTC, auf Mitternacht gerundet)
	Date time.Time `json:"date" gorm:"uniqueIndex:idx_citsnap_identity;not null"`

	CitationCount int `json:"citation_count"`
}
