package models

import (
	"time"
)

// Rollen-Tags für die Autorenschafts-Klassifikation.
const (
	RoleFirst         = "first"
	RoleCorresponding = "corresponding"
	RoleStudent       = "student"
	RoleMiddle        = "middle"
	RoleLast          = "last"
)

// AuthorshipRole hält die klassifizierte Rolle des Profilinhabers
// für genau eine Publikation. Eindeutig pro (publication, profile).
type AuthorshipRole struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicationID uint `json:"publication_id" gorm:"uniqueIndex:idx_role_identity;not null"`
	ProfileID     uint `json:"profile_id" gorm:"uniqueIndex:idx_role_identity;index;not null"`

	Role string `json:"role" gorm:"index"`
	// Position in der Autorenliste, 0-basiert
	AuthorPosition int  `json:"author_position"`
	IsPrimary      bool `json:"is_primary"`
	// Sicherheit der Klassifikation in [0,1]
	Confidence float64 `json:"confidence"`
}
