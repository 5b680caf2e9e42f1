package models

import (
	"time"
)

// CollaboratorEdge aggregiert die Zusammenarbeit eines Profils mit einem
// Co-Autor. Die Identität des Co-Autors ist ausschließlich der
// normalisierte Namensstring; Namenskollisionen echter Personen sind
// eine akzeptierte Einschränkung der Quelle.
type CollaboratorEdge struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProfileID        uint   `json:"profile_id" gorm:"uniqueIndex:idx_edge_identity;not null"`
	CollaboratorName string `json:"collaborator_name" gorm:"uniqueIndex:idx_edge_identity;not null"`

	CollaborationCount int `json:"collaboration_count"`
	FirstYear          int `json:"first_year,omitempty"`
	LastYear           int `json:"last_year,omitempty"`

	// IDs der gemeinsamen Publikationen
	SharedPublicationIDs UintList `json:"shared_publication_ids,omitempty" gorm:"type:text"`

	// Normalisierte Stärke der Zusammenarbeit in [0,1]
	CollaborationStrength float64 `json:"collaboration_strength"`

	// Gesetzt, wenn der Name exakt auf ein weiteres importiertes Profil passt
	ResolvedProfileID *uint `json:"resolved_profile_id,omitempty"`
}
