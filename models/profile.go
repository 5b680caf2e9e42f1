package models

import (
	"time"
)

// Profile repräsentiert ein importiertes Scholar-Profil.
type Profile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Externe Kennung der Quelle (z.B. Google-Scholar-User-ID)
	ScholarID string `json:"scholar_id" gorm:"uniqueIndex;not null"`

	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	// Forschungsinteressen in der Reihenfolge der Profilseite
	Interests StringList `json:"interests,omitempty" gorm:"type:text"`

	HIndex         int `json:"h_index"`
	I10Index       int `json:"i10_index"`
	TotalCitations int `json:"total_citations"`

	LastImportedAt *time.Time `json:"last_imported_at,omitempty"`

	Publications []Publication `json:"publications,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}
