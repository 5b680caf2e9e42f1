package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"scholar-scope/config"
	"scholar-scope/models"
	"scholar-scope/scholar"
)

// ErrProfileUnknown meldet Zugriffe auf ein nie importiertes Profil.
var ErrProfileUnknown = errors.New("services: profile not imported")

// ImportService orchestriert Import und Analyse von Profilen: Scrapen,
// Klassifizieren, Persistieren und die gecachten Analyse-Abfragen.
type ImportService struct {
	Config       *config.Config
	DB           *gorm.DB
	Logger       *zap.Logger
	Orchestrator *scholar.Orchestrator

	Authorship *AuthorshipClassifier
	Areas      *ResearchAreaClassifier
	Metrics    *MetricsComputer
	Graph      *CollaborationGraphBuilder
	Cache      *AnalysisCache
}

// NewImportService verdrahtet alle Analyse-Komponenten.
func NewImportService(cfg *config.Config, db *gorm.DB, logger *zap.Logger, orch *scholar.Orchestrator) *ImportService {
	return &ImportService{
		Config:       cfg,
		DB:           db,
		Logger:       logger,
		Orchestrator: orch,
		Authorship:   NewAuthorshipClassifier(),
		Areas:        NewResearchAreaClassifier(),
		Metrics:      NewMetricsComputer(),
		Graph:        NewCollaborationGraphBuilder(db, logger),
		Cache:        NewAnalysisCache(db, logger),
	}
}

// ImportProfile importiert ein Profil anhand einer URL oder rohen ID:
// Kopfseite und alle Publikationsseiten holen, klassifizieren und
// idempotent persistieren. Re-Importe aktualisieren Zitationsstände
// statt Duplikate anzulegen.
func (s *ImportService) ImportProfile(ctx context.Context, ref string) (*models.Profile, error) {
	userID, err := scholar.ExtractUserID(ref)
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Starte Profil-Import", zap.String("scholar_id", userID))

	header, err := s.Orchestrator.FetchProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	records, err := s.Orchestrator.CollectPublications(ctx, userID, s.Config.MaxPublications)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	now := time.Now()
	today := now.UTC().Truncate(24 * time.Hour)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.upsertProfile(tx, &profile, header, now); err != nil {
			return err
		}

		pubs, err := s.upsertPublications(tx, &profile, records)
		if err != nil {
			return err
		}

		if err := s.classifyAndStore(tx, &profile, pubs); err != nil {
			return err
		}

		if err := s.snapshotCitations(tx, pubs, today); err != nil {
			return err
		}

		return s.snapshotMetrics(tx, &profile, pubs, today, now)
	})
	if err != nil {
		return nil, fmt.Errorf("import transaction: %w", err)
	}

	// Alte Analyse-Ergebnisse passen nicht mehr zum neuen Datenstand
	if err := s.Cache.Invalidate(profile.ID); err != nil {
		s.Logger.Warn("Cache-Invalidierung fehlgeschlagen", zap.Error(err))
	}

	s.Logger.Info("Profil-Import abgeschlossen",
		zap.String("scholar_id", userID),
		zap.String("name", profile.Name),
		zap.Int("publications", len(records)))
	return &profile, nil
}

// upsertProfile legt das Profil an oder aktualisiert die Kopf-Daten.
func (s *ImportService) upsertProfile(tx *gorm.DB, profile *models.Profile, header scholar.ProfileRecord, now time.Time) error {
	err := tx.Where("scholar_id = ?", header.ScholarID).First(profile).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}

	profile.ScholarID = header.ScholarID
	profile.Name = header.Name
	profile.Affiliation = header.Affiliation
	profile.Interests = models.StringList(header.Interests)
	profile.HIndex = header.HIndex
	profile.I10Index = header.I10Index
	profile.TotalCitations = header.TotalCitations
	profile.LastImportedAt = &now
	return tx.Save(profile).Error
}

// upsertPublications persistiert die gescrapten Datensätze. Identität
// ist (profile, title, year); bestehende Zeilen bekommen den neuen
// Zitationsstand, verschwundene Zeilen bleiben stehen.
func (s *ImportService) upsertPublications(tx *gorm.DB, profile *models.Profile, records []scholar.PublicationRecord) ([]models.Publication, error) {
	pubs := make([]models.Publication, 0, len(records))
	for _, rec := range records {
		pub := models.Publication{
			ProfileID: profile.ID,
			Title:     rec.Title,
			Year:      rec.Year,
		}
		err := tx.Where("profile_id = ? AND title = ? AND year = ?",
			profile.ID, rec.Title, rec.Year).First(&pub).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}

		pub.Authors = rec.Authors
		pub.Venue = rec.Venue
		pub.CitationCount = rec.CitationCount
		pub.DetailURL = rec.DetailURL
		if err := tx.Save(&pub).Error; err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, nil
}

// classifyAndStore ersetzt Rollen- und Fachgebiets-Zuordnungen der
// Publikationen durch frische Klassifikationen.
func (s *ImportService) classifyAndStore(tx *gorm.DB, profile *models.Profile, pubs []models.Publication) error {
	areaIDs, err := s.areaIDsByName(tx)
	if err != nil {
		return err
	}

	for i := range pubs {
		pub := &pubs[i]

		if err := tx.Where("publication_id = ?", pub.ID).Delete(&models.AuthorshipRole{}).Error; err != nil {
			return err
		}
		if role := s.Authorship.Classify(profile.Name, pub); role.Found {
			r := models.AuthorshipRole{
				PublicationID:  pub.ID,
				ProfileID:      profile.ID,
				Role:           role.Role,
				AuthorPosition: role.AuthorPosition,
				IsPrimary:      role.IsPrimary,
				Confidence:     role.Confidence,
			}
			if err := tx.Create(&r).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("publication_id = ?", pub.ID).Delete(&models.ResearchAreaTag{}).Error; err != nil {
			return err
		}
		for _, tag := range s.Areas.Classify(pub) {
			areaID, ok := areaIDs[tag.AreaName]
			if !ok {
				continue
			}
			t := models.ResearchAreaTag{
				PublicationID:  pub.ID,
				ResearchAreaID: areaID,
				Confidence:     tag.Confidence,
				MatchKind:      tag.MatchKind,
			}
			if err := tx.Create(&t).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ImportService) areaIDsByName(tx *gorm.DB) (map[string]uint, error) {
	var areas []models.ResearchArea
	if err := tx.Find(&areas).Error; err != nil {
		return nil, err
	}
	ids := make(map[string]uint, len(areas))
	for _, a := range areas {
		ids[a.Name] = a.ID
	}
	return ids, nil
}

// snapshotCitations hängt pro Publikation eine Tagesbeobachtung an.
// Ein zweiter Import am selben Tag überschreibt den Tageswert.
func (s *ImportService) snapshotCitations(tx *gorm.DB, pubs []models.Publication, date time.Time) error {
	for _, pub := range pubs {
		snap := models.CitationSnapshot{
			PublicationID: pub.ID,
			Date:          date,
			CitationCount: pub.CitationCount,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "publication_id"}, {Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"citation_count"}),
		}).Create(&snap).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// snapshotMetrics persistiert die aggregierten Tages-Kennzahlen.
func (s *ImportService) snapshotMetrics(tx *gorm.DB, profile *models.Profile, pubs []models.Publication, date, now time.Time) error {
	m := s.Metrics.Compute(pubs, now)
	snap := models.ProfileMetricsSnapshot{
		ProfileID:          profile.ID,
		Date:               date,
		TotalCitations:     m.TotalCitations,
		HIndex:             m.HIndex,
		I10Index:           m.I10Index,
		PublicationCount:   m.PublicationCount,
		AvgCitations:       m.AvgCitations,
		CollaborationScore: m.CollaborationScore,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_citations", "h_index", "i10_index",
			"publication_count", "avg_citations", "collaboration_score",
		}),
	}).Create(&snap).Error
}

// OverviewAnalysis sind Kennzahlen plus Profil-Kopf für den
// Overview-Endpunkt.
type OverviewAnalysis struct {
	Profile models.Profile  `json:"profile"`
	Metrics OverviewMetrics `json:"metrics"`
}

// AuthorshipAnalysis ist die Rollen-Verteilung eines Profils.
type AuthorshipAnalysis struct {
	Total         int                     `json:"total"`
	Classified    int                     `json:"classified"`
	RoleCounts    map[string]int          `json:"role_counts"`
	PrimaryShare  float64                 `json:"primary_share"`
	AvgConfidence float64                 `json:"avg_confidence"`
	Roles         []models.AuthorshipRole `json:"roles,omitempty"`
}

// CollaborationAnalysis sind die aggregierten Co-Autor-Kanten.
type CollaborationAnalysis struct {
	CollaboratorCount int                       `json:"collaborator_count"`
	Edges             []models.CollaboratorEdge `json:"edges,omitempty"`
}

// CompleteAnalysis bündelt alle Teil-Analysen in einer Antwort.
type CompleteAnalysis struct {
	Overview      OverviewAnalysis      `json:"overview"`
	Authorship    AuthorshipAnalysis    `json:"authorship"`
	Collaboration CollaborationAnalysis `json:"collaboration"`
}

// GetOverviewAnalysis liefert die Kennzahlen-Analyse, cache-first.
func (s *ImportService) GetOverviewAnalysis(profileID uint) (*OverviewAnalysis, error) {
	var result OverviewAnalysis
	ok, err := s.cached(profileID, models.AnalysisOverview, &result)
	if err != nil {
		return nil, err
	}
	if ok {
		return &result, nil
	}

	profile, pubs, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}
	result = OverviewAnalysis{
		Profile: *profile,
		Metrics: s.Metrics.Compute(pubs, time.Now()),
	}
	s.store(profileID, models.AnalysisOverview, &result)
	return &result, nil
}

// GetAuthorshipAnalysis liefert die Rollen-Verteilung, cache-first.
func (s *ImportService) GetAuthorshipAnalysis(profileID uint) (*AuthorshipAnalysis, error) {
	var result AuthorshipAnalysis
	ok, err := s.cached(profileID, models.AnalysisAuthorship, &result)
	if err != nil {
		return nil, err
	}
	if ok {
		return &result, nil
	}

	_, pubs, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}

	var roles []models.AuthorshipRole
	if err := s.DB.Where("profile_id = ?", profileID).Find(&roles).Error; err != nil {
		return nil, err
	}

	result = AuthorshipAnalysis{
		Total:      len(pubs),
		Classified: len(roles),
		RoleCounts: map[string]int{},
		Roles:      roles,
	}
	primary := 0
	confidenceSum := 0.0
	for _, r := range roles {
		result.RoleCounts[r.Role]++
		confidenceSum += r.Confidence
		if r.IsPrimary {
			primary++
		}
	}
	if len(roles) > 0 {
		result.PrimaryShare = float64(primary) / float64(len(roles))
		result.AvgConfidence = confidenceSum / float64(len(roles))
	}
	s.store(profileID, models.AnalysisAuthorship, &result)
	return &result, nil
}

// GetCollaborationAnalysis liefert den Kollaborations-Graphen,
// cache-first. Die Kanten werden bei jedem Cache-Miss frisch gebaut
// und persistiert.
func (s *ImportService) GetCollaborationAnalysis(profileID uint) (*CollaborationAnalysis, error) {
	var result CollaborationAnalysis
	ok, err := s.cached(profileID, models.AnalysisCollaboration, &result)
	if err != nil {
		return nil, err
	}
	if ok {
		return &result, nil
	}

	profile, pubs, err := s.loadProfile(profileID)
	if err != nil {
		return nil, err
	}

	edges := s.Graph.Build(profile, pubs, time.Now())
	if err := s.storeEdges(profileID, edges); err != nil {
		return nil, err
	}

	result = CollaborationAnalysis{
		CollaboratorCount: len(edges),
		Edges:             edges,
	}
	s.store(profileID, models.AnalysisCollaboration, &result)
	return &result, nil
}

// GetCompleteAnalysis bündelt alle Teil-Analysen. Die Teile bedienen
// sich aus ihren eigenen Caches; das Bündel wird zusätzlich gecacht.
func (s *ImportService) GetCompleteAnalysis(profileID uint) (*CompleteAnalysis, error) {
	var result CompleteAnalysis
	ok, err := s.cached(profileID, models.AnalysisComplete, &result)
	if err != nil {
		return nil, err
	}
	if ok {
		return &result, nil
	}

	overview, err := s.GetOverviewAnalysis(profileID)
	if err != nil {
		return nil, err
	}
	authorship, err := s.GetAuthorshipAnalysis(profileID)
	if err != nil {
		return nil, err
	}
	collaboration, err := s.GetCollaborationAnalysis(profileID)
	if err != nil {
		return nil, err
	}

	result = CompleteAnalysis{
		Overview:      *overview,
		Authorship:    *authorship,
		Collaboration: *collaboration,
	}
	s.store(profileID, models.AnalysisComplete, &result)
	return &result, nil
}

// GetPublications liefert die gespeicherten Publikationen des Profils
// samt Rollen und Fachgebiets-Tags, absteigend nach Zitationen und mit
// eigener, kürzerer Cache-Lebensdauer als die Analysen.
func (s *ImportService) GetPublications(profileID uint) ([]models.Publication, error) {
	var pubs []models.Publication
	ok, err := s.cached(profileID, models.AnalysisPublications, &pubs)
	if err != nil {
		return nil, err
	}
	if ok {
		return pubs, nil
	}

	var profile models.Profile
	if err := s.DB.First(&profile, profileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrProfileUnknown
		}
		return nil, err
	}

	err = s.DB.Where("profile_id = ?", profileID).
		Order("citation_count DESC").
		Preload("Roles").Preload("Tags.ResearchArea").
		Find(&pubs).Error
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(pubs)
	if err != nil {
		s.Logger.Warn("Publikationsliste nicht serialisierbar", zap.Error(err))
		return pubs, nil
	}
	if err := s.Cache.Put(profileID, models.AnalysisPublications, string(payload), s.Config.PublicationsCacheTTL); err != nil {
		s.Logger.Warn("Cache-Schreiben fehlgeschlagen", zap.Error(err))
	}
	return pubs, nil
}

// RefreshStaleProfiles importiert alle Profile neu, deren letzter
// Import länger als die konfigurierte Staleness zurückliegt. Für den
// Cron-Job gedacht; Fehler einzelner Profile stoppen den Lauf nicht.
func (s *ImportService) RefreshStaleProfiles(ctx context.Context) {
	cutoff := time.Now().Add(-s.Config.ProfileStaleness)

	var profiles []models.Profile
	err := s.DB.Where("last_imported_at IS NULL OR last_imported_at < ?", cutoff).
		Find(&profiles).Error
	if err != nil {
		s.Logger.Error("Staleness-Abfrage fehlgeschlagen", zap.Error(err))
		return
	}
	if len(profiles) == 0 {
		return
	}

	s.Logger.Info("Frische veraltete Profile auf", zap.Int("count", len(profiles)))
	for _, p := range profiles {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ImportProfile(ctx, p.ScholarID); err != nil {
			s.Logger.Warn("Auffrischen fehlgeschlagen",
				zap.String("scholar_id", p.ScholarID), zap.Error(err))
		}
	}
}

// loadProfile lädt Profil und Publikationen oder ErrProfileUnknown.
func (s *ImportService) loadProfile(profileID uint) (*models.Profile, []models.Publication, error) {
	var profile models.Profile
	if err := s.DB.First(&profile, profileID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, ErrProfileUnknown
		}
		return nil, nil, err
	}
	var pubs []models.Publication
	if err := s.DB.Where("profile_id = ?", profileID).Order("citation_count DESC").Find(&pubs).Error; err != nil {
		return nil, nil, err
	}
	return &profile, pubs, nil
}

// cached versucht, das Ergebnis aus dem Cache zu deserialisieren.
func (s *ImportService) cached(profileID uint, analysisType string, out interface{}) (bool, error) {
	payload, ok := s.Cache.Get(profileID, analysisType)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		s.Logger.Warn("Cache-Eintrag nicht deserialisierbar, wird verworfen",
			zap.Uint("profile_id", profileID), zap.String("type", analysisType), zap.Error(err))
		return false, nil
	}
	return true, nil
}

// store serialisiert das Ergebnis in den Cache. Cache-Fehler sind
// nicht fatal für die Antwort.
func (s *ImportService) store(profileID uint, analysisType string, result interface{}) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.Logger.Warn("Analyse nicht serialisierbar", zap.Error(err))
		return
	}
	if err := s.Cache.Put(profileID, analysisType, string(payload), s.Config.AnalysisCacheTTL); err != nil {
		s.Logger.Warn("Cache-Schreiben fehlgeschlagen", zap.Error(err))
	}
}

// storeEdges ersetzt die persistierten Kanten des Profils.
func (s *ImportService) storeEdges(profileID uint, edges []models.CollaboratorEdge) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", profileID).Delete(&models.CollaboratorEdge{}).Error; err != nil {
			return err
		}
		for i := range edges {
			if err := tx.Create(&edges[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
