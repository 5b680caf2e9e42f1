package models

import (
	"time"
)

// ResearchArea ist ein Knoten der hierarchischen Fachgebiets-Taxonomie.
type ResearchArea struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"uniqueIndex;not null"`
	ParentID *uint  `json:"parent_id,omitempty" gorm:"index"`
	// 0 = Wurzelebene
	Level int `json:"level"`
}

// ResearchAreaTag verknüpft eine Publikation mit einem Fachgebiet.
// Eine Publikation kann keines, eines oder mehrere Tags tragen.
type ResearchAreaTag struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	PublicationID  uint `json:"publication_id" gorm:"uniqueIndex:idx_tag_identity;not null"`
	ResearchAreaID uint `json:"research_area_id" gorm:"uniqueIndex:idx_tag_identity;index;not null"`

	ResearchArea ResearchArea `json:"research_area,omitempty"`

	// Sicherheit der Zuordnung in [0,1]
	Confidence float64 `json:"confidence"`
	// Wie der Treffer zustande kam: venue_acronym, venue, keyword
	MatchKind string `json:"match_kind,omitempty"`
}
