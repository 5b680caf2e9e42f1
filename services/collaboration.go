package services

import (
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"scholar-scope/models"
)

// Gewichtung der Kollaborations-Stärke: Häufigkeit dominiert, Aktualität
// hält jüngere Zusammenarbeit oben.
const (
	strengthCountWeight   = 0.7
	strengthRecencyWeight = 0.3
	recencyFreshYears     = 2
	recencyDecayYears     = 10
)

// CollaborationGraphBuilder baut aus den Autorenlisten eines Profils
// die aggregierten Co-Autor-Kanten.
type CollaborationGraphBuilder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewCollaborationGraphBuilder erstellt einen Builder. db dient nur der
// Auflösung von Co-Autor-Namen auf bereits importierte Profile.
func NewCollaborationGraphBuilder(db *gorm.DB, logger *zap.Logger) *CollaborationGraphBuilder {
	return &CollaborationGraphBuilder{db: db, logger: logger}
}

// Build aggregiert alle Co-Autoren der Publikationen zu Kanten,
// absteigend nach Stärke sortiert. Der Profilinhaber selbst wird über
// den normalisierten Namen ausgeschlossen.
func (b *CollaborationGraphBuilder) Build(profile *models.Profile, pubs []models.Publication, now time.Time) []models.CollaboratorEdge {
	owner := NormalizeName(profile.Name)

	type agg struct {
		displayName string
		count       int
		firstYear   int
		lastYear    int
		pubIDs      models.UintList
	}
	edges := make(map[string]*agg)

	for _, pub := range pubs {
		authors, _ := SplitAuthors(pub.Authors)
		seen := make(map[string]struct{}, len(authors))
		for _, author := range authors {
			name := stripCorrespondingMarker(author)
			key := NormalizeName(name)
			if key == "" || key == owner {
				continue
			}
			// Nachnamens-Match deckt Initialen-Schreibweisen des Inhabers ab
			if isOwnerVariant(owner, key) {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			e, ok := edges[key]
			if !ok {
				e = &agg{displayName: name}
				edges[key] = e
			}
			e.count++
			e.pubIDs = append(e.pubIDs, pub.ID)
			if pub.Year > 0 {
				if e.firstYear == 0 || pub.Year < e.firstYear {
					e.firstYear = pub.Year
				}
				if pub.Year > e.lastYear {
					e.lastYear = pub.Year
				}
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}

	maxCount := 0
	for _, e := range edges {
		if e.count > maxCount {
			maxCount = e.count
		}
	}

	result := make([]models.CollaboratorEdge, 0, len(edges))
	for key, e := range edges {
		edge := models.CollaboratorEdge{
			ProfileID:             profile.ID,
			CollaboratorName:      e.displayName,
			CollaborationCount:    e.count,
			FirstYear:             e.firstYear,
			LastYear:              e.lastYear,
			SharedPublicationIDs:  e.pubIDs,
			CollaborationStrength: collaborationStrength(e.count, maxCount, e.lastYear, now),
		}
		if id := b.resolveProfile(key, profile.ID); id != nil {
			edge.ResolvedProfileID = id
		}
		result = append(result, edge)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CollaborationStrength != result[j].CollaborationStrength {
			return result[i].CollaborationStrength > result[j].CollaborationStrength
		}
		return result[i].CollaboratorName < result[j].CollaboratorName
	})
	return result
}

// collaborationStrength kombiniert normalisierte Häufigkeit und
// Aktualität zu einem Wert in [0,1].
func collaborationStrength(count, maxCount, lastYear int, now time.Time) float64 {
	freq := 0.0
	if maxCount > 0 {
		freq = float64(count) / float64(maxCount)
	}

	recency := 0.0
	if lastYear > 0 {
		age := now.Year() - lastYear
		switch {
		case age <= recencyFreshYears:
			recency = 1.0
		case age >= recencyDecayYears:
			recency = 0.0
		default:
			recency = 1.0 - float64(age-recencyFreshYears)/float64(recencyDecayYears-recencyFreshYears)
		}
	}

	s := strengthCountWeight*freq + strengthRecencyWeight*recency
	if s > 1.0 {
		s = 1.0
	}
	return s
}

// isOwnerVariant erkennt Initialen-Schreibweisen des Inhabers
// ("j smith" vs. "jane smith"): gleicher Nachname, gleiche Initiale.
func isOwnerVariant(owner, candidate string) bool {
	op := splitNameParts(owner)
	cp := splitNameParts(candidate)
	if len(op) < 2 || len(cp) < 2 {
		return false
	}
	if op[len(op)-1] != cp[len(cp)-1] {
		return false
	}
	or, _ := utf8.DecodeRuneInString(op[0])
	cr, _ := utf8.DecodeRuneInString(cp[0])
	return or == cr
}

func splitNameParts(name string) []string {
	var parts []string
	start := -1
	for i, r := range name {
		if r == ' ' {
			if start >= 0 {
				parts = append(parts, name[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		parts = append(parts, name[start:])
	}
	return parts
}

// resolveProfile sucht ein bereits importiertes Profil mit exakt
// gleichem normalisiertem Namen. Kein Treffer ist der Normalfall.
func (b *CollaborationGraphBuilder) resolveProfile(normalizedName string, selfID uint) *uint {
	if b.db == nil {
		return nil
	}
	var profiles []models.Profile
	if err := b.db.Select("id", "name").Where("id <> ?", selfID).Find(&profiles).Error; err != nil {
		b.logger.Warn("Profil-Auflösung fehlgeschlagen", zap.Error(err))
		return nil
	}
	for _, p := range profiles {
		if NormalizeName(p.Name) == normalizedName {
			id := p.ID
			return &id
		}
	}
	return nil
}
