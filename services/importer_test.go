package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"scholar-scope/config"
	"scholar-scope/models"
	"scholar-scope/scholar"
)

// fakeSource bedient Profil-Kopfseite und Listing-Seiten für ein
// synthetisches Profil mit total Publikationen.
type fakeSource struct {
	total     int
	citations func(i int) int
}

func (f *fakeSource) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("cstart") == "" && q.Get("pagesize") == "" {
			fmt.Fprint(w, `<html><body>
				<div id="gsc_prf_in">Jane Smith</div>
				<div class="gsc_prf_il">Example University</div>
				<div><a class="gsc_prf_inta" href="#">Machine Learning</a></div>
				<table id="gsc_rsb_st"><tbody>
					<tr><td>Citations</td><td>900</td><td>500</td></tr>
					<tr><td>h-index</td><td>14</td><td>10</td></tr>
					<tr><td>i10-index</td><td>20</td><td>15</td></tr>
				</tbody></table>
			</body></html>`)
			return
		}

		cstart, _ := strconv.Atoi(q.Get("cstart"))
		pagesize, _ := strconv.Atoi(q.Get("pagesize"))

		fmt.Fprint(w, "<html><body><table>")
		for i := cstart; i < cstart+pagesize && i < f.total; i++ {
			fmt.Fprintf(w, `<tr class="gsc_a_tr"><td class="gsc_a_t">`+
				`<a href="/detail/%d" class="gsc_a_at">Paper %04d</a>`+
				`<div class="gs_gray">J Smith, A Lee, B Chen</div>`+
				`<div class="gs_gray">NeurIPS<span class="gs_oph">, %d</span></div>`+
				`</td><td class="gsc_a_c"><a href="#" class="gsc_a_ac">%d</a></td></tr>`,
				i, i, 2015+i%10, f.citations(i))
		}
		fmt.Fprint(w, "</table></body></html>")
	}
}

func newTestImportService(t *testing.T, baseURL string) *ImportService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Publication{},
		&models.AuthorshipRole{},
		&models.ResearchArea{},
		&models.ResearchAreaTag{},
		&models.CitationSnapshot{},
		&models.ProfileMetricsSnapshot{},
		&models.CollaboratorEdge{},
		&models.CachedAnalysis{},
	))

	log := zap.NewNop()
	require.NoError(t, SeedResearchAreas(db, log))

	cfg := &config.Config{
		ScholarBaseURL:    baseURL,
		ScrapeConcurrency: 3,
		PageSize:          20,
		MaxPublications:   200,
		AnalysisCacheTTL:  time.Hour,
	}

	fetcher := scholar.NewFetcher(5*time.Second, log)
	limiter := scholar.NewLimiter(cfg.ScrapeConcurrency, 0)
	orch := scholar.NewOrchestrator(fetcher, limiter, baseURL, cfg.PageSize, log, nil)
	return NewImportService(cfg, db, log, orch)
}

func TestImportProfile(t *testing.T) {
	source := &fakeSource{total: 35, citations: func(i int) int { return 100 - i }}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)

	profile, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", profile.ScholarID)
	assert.Equal(t, "Jane Smith", profile.Name)
	assert.Equal(t, "Example University", profile.Affiliation)
	assert.Equal(t, 14, profile.HIndex)
	assert.Equal(t, 900, profile.TotalCitations)
	require.NotNil(t, profile.LastImportedAt)

	var pubCount int64
	svc.DB.Model(&models.Publication{}).Where("profile_id = ?", profile.ID).Count(&pubCount)
	assert.Equal(t, int64(35), pubCount)

	// Jede Publikation hat Rolle (Erstautorin) und Fachgebiets-Tags
	var roleCount int64
	svc.DB.Model(&models.AuthorshipRole{}).Where("profile_id = ? AND role = ?", profile.ID, models.RoleFirst).Count(&roleCount)
	assert.Equal(t, int64(35), roleCount)

	var tagCount int64
	svc.DB.Model(&models.ResearchAreaTag{}).Count(&tagCount)
	assert.Greater(t, tagCount, int64(0))

	var snapCount int64
	svc.DB.Model(&models.CitationSnapshot{}).Count(&snapCount)
	assert.Equal(t, int64(35), snapCount)

	var metsnapCount int64
	svc.DB.Model(&models.ProfileMetricsSnapshot{}).Where("profile_id = ?", profile.ID).Count(&metsnapCount)
	assert.Equal(t, int64(1), metsnapCount)
}

func TestImportProfileIdempotent(t *testing.T) {
	source := &fakeSource{total: 25, citations: func(i int) int { return 10 }}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)

	first, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)

	// Zitationsstände ändern sich, die Identitäten bleiben
	source.citations = func(i int) int { return 50 }

	second, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var pubCount int64
	svc.DB.Model(&models.Publication{}).Where("profile_id = ?", second.ID).Count(&pubCount)
	assert.Equal(t, int64(25), pubCount)

	var pub models.Publication
	require.NoError(t, svc.DB.Where("profile_id = ? AND title = ?", second.ID, "Paper 0000").First(&pub).Error)
	assert.Equal(t, 50, pub.CitationCount)

	// keine doppelten Rollen pro Publikation
	var roleCount int64
	svc.DB.Model(&models.AuthorshipRole{}).Where("profile_id = ?", second.ID).Count(&roleCount)
	assert.Equal(t, int64(25), roleCount)
}

func TestImportProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>no profile</p></body></html>")
	}))
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)
	_, err := svc.ImportProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, scholar.ErrProfileNotFound)
}

func TestGetOverviewAnalysisCacheFirst(t *testing.T) {
	source := &fakeSource{total: 10, citations: func(i int) int { return 20 }}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)
	profile, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)

	first, err := svc.GetOverviewAnalysis(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, first.Metrics.PublicationCount)

	// Daten hinter dem Cache ändern -> Antwort bleibt die gecachte
	require.NoError(t, svc.DB.Where("profile_id = ?", profile.ID).Delete(&models.Publication{}).Error)

	cached, err := svc.GetOverviewAnalysis(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Metrics.PublicationCount, cached.Metrics.PublicationCount)

	// nach Invalidierung wird frisch gerechnet
	require.NoError(t, svc.Cache.Invalidate(profile.ID))
	fresh, err := svc.GetOverviewAnalysis(profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.Metrics.PublicationCount)
}

func TestGetPublicationsCacheFirst(t *testing.T) {
	source := &fakeSource{total: 10, citations: func(i int) int { return 100 - i }}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)
	svc.Config.PublicationsCacheTTL = 30 * time.Minute

	profile, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)

	first, err := svc.GetPublications(profile.ID)
	require.NoError(t, err)
	require.Len(t, first, 10)
	// absteigend nach Zitationen, Rollen hängen dran
	assert.Equal(t, "Paper 0000", first[0].Title)
	assert.GreaterOrEqual(t, first[0].CitationCount, first[1].CitationCount)
	require.Len(t, first[0].Roles, 1)

	var entry models.CachedAnalysis
	require.NoError(t, svc.DB.Where("profile_id = ? AND analysis_type = ?",
		profile.ID, models.AnalysisPublications).First(&entry).Error)
	assert.WithinDuration(t, time.Now().Add(svc.Config.PublicationsCacheTTL), entry.ExpiresAt, time.Minute)

	// Daten hinter dem Cache ändern -> Antwort bleibt die gecachte
	require.NoError(t, svc.DB.Where("profile_id = ?", profile.ID).Delete(&models.Publication{}).Error)
	cached, err := svc.GetPublications(profile.ID)
	require.NoError(t, err)
	assert.Len(t, cached, 10)

	// Re-Import invalidiert auch die Publikationsliste
	_, err = svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)
	_, ok := svc.Cache.Get(profile.ID, models.AnalysisPublications)
	assert.False(t, ok)
}

func TestGetPublicationsUnknownProfile(t *testing.T) {
	svc := newTestImportService(t, "http://127.0.0.1:0")
	_, err := svc.GetPublications(9999)
	assert.ErrorIs(t, err, ErrProfileUnknown)
}

func TestGetAnalysisUnknownProfile(t *testing.T) {
	svc := newTestImportService(t, "http://127.0.0.1:0")
	_, err := svc.GetOverviewAnalysis(9999)
	assert.ErrorIs(t, err, ErrProfileUnknown)
}

func TestGetCompleteAnalysis(t *testing.T) {
	source := &fakeSource{total: 12, citations: func(i int) int { return 15 }}
	srv := httptest.NewServer(source.handler())
	defer srv.Close()

	svc := newTestImportService(t, srv.URL)
	profile, err := svc.ImportProfile(context.Background(), "abc123")
	require.NoError(t, err)

	complete, err := svc.GetCompleteAnalysis(profile.ID)
	require.NoError(t, err)

	assert.Equal(t, 12, complete.Overview.Metrics.PublicationCount)
	assert.Equal(t, 12, complete.Authorship.Total)
	assert.Equal(t, 12, complete.Authorship.RoleCounts[models.RoleFirst])
	assert.Equal(t, 2, complete.Collaboration.CollaboratorCount)

	// Kanten wurden persistiert
	var edgeCount int64
	svc.DB.Model(&models.CollaboratorEdge{}).Where("profile_id = ?", profile.ID).Count(&edgeCount)
	assert.Equal(t, int64(2), edgeCount)
}
