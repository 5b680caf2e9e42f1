package models

import (
	"time"
)

// Publication repräsentiert eine Veröffentlichung eines Profils.
// Die Quelle liefert keine stabile Publikations-ID; Identität ist
// deshalb das Tripel (profile_id, title, year).
type Publication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProfileID uint `json:"profile_id" gorm:"index;uniqueIndex:idx_pub_identity;not null"`

	Title string `json:"title" gorm:"uniqueIndex:idx_pub_identity;not null"`
	// Roh-Autorenstring, wie auf der Listing-Seite angezeigt
	Authors string `json:"authors,omitempty"`
	Venue   string `json:"venue,omitempty"`
	// 0 = Jahr unbekannt oder außerhalb des gültigen Fensters
	Year          int `json:"year,omitempty" gorm:"uniqueIndex:idx_pub_identity"`
	CitationCount int `json:"citation_count"`

	// Link auf die Detailseite der Quelle
	DetailURL string `json:"detail_url,omitempty"`

	DOI      string `json:"doi,omitempty"`
	Abstract string `json:"abstract,omitempty" gorm:"type:text"`
	Keywords string `json:"keywords,omitempty"`

	Roles []AuthorshipRole  `json:"roles,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Tags  []ResearchAreaTag `json:"tags,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
