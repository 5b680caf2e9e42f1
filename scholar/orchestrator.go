package scholar

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ArchiveFunc sichert das rohe Markup einer abgerufenen Seite weg,
// z.B. nach S3. Fehler beim Archivieren brechen die Sammlung nicht ab.
type ArchiveFunc func(ctx context.Context, userID string, cstart int, html []byte)

// Orchestrator sammelt alle Publikationsseiten eines Profils ein.
// Standardstrategie ist parallel mit K Workern; schlägt irgendeine
// Seite fehl, wird einmal komplett sequentiell nachgefasst.
type Orchestrator struct {
	fetcher  *Fetcher
	limiter  *Limiter
	baseURL  string
	pageSize int
	logger   *zap.Logger
	archive  ArchiveFunc
}

// NewOrchestrator erstellt einen Orchestrator. archive darf nil sein.
func NewOrchestrator(fetcher *Fetcher, limiter *Limiter, baseURL string, pageSize int, logger *zap.Logger, archive ArchiveFunc) *Orchestrator {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Orchestrator{
		fetcher:  fetcher,
		limiter:  limiter,
		baseURL:  strings.TrimRight(baseURL, "/"),
		pageSize: pageSize,
		logger:   logger,
		archive:  archive,
	}
}

// pageURL baut die Listing-URL für einen Seiten-Offset.
func (o *Orchestrator) pageURL(userID string, cstart int) string {
	return fmt.Sprintf("%s/citations?user=%s&hl=en&cstart=%d&pagesize=%d",
		o.baseURL, url.QueryEscape(userID), cstart, o.pageSize)
}

// profileURL baut die URL der Profil-Kopfseite.
func (o *Orchestrator) profileURL(userID string) string {
	return fmt.Sprintf("%s/citations?user=%s&hl=en", o.baseURL, url.QueryEscape(userID))
}

// FetchProfile holt und parst die Profil-Kopfseite. Ein leerer Name im
// Ergebnis wird als nicht existierendes Profil gewertet.
func (o *Orchestrator) FetchProfile(ctx context.Context, userID string) (ProfileRecord, error) {
	if err := o.limiter.Acquire(ctx); err != nil {
		return ProfileRecord{}, err
	}
	html, err := o.fetcher.Fetch(ctx, o.profileURL(userID))
	o.limiter.Release()
	if err != nil {
		return ProfileRecord{}, err
	}

	rec, err := ParseProfilePage(html)
	if err != nil {
		return ProfileRecord{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	if rec.Name == "" {
		return ProfileRecord{}, fmt.Errorf("%w: %s", ErrProfileNotFound, userID)
	}
	rec.ScholarID = userID
	return rec, nil
}

// CollectPublications sammelt bis zu maxResults Publikationen. Erst
// parallel; scheitert dabei irgendeine Seite, wird einmal sequentiell
// neu gesammelt. ErrProfileNotFound ist fatal und wird nie wiederholt.
func (o *Orchestrator) CollectPublications(ctx context.Context, userID string, maxResults int) ([]PublicationRecord, error) {
	if maxResults <= 0 {
		maxResults = o.pageSize
	}
	pages := (maxResults + o.pageSize - 1) / o.pageSize

	records, err := o.collectConcurrent(ctx, userID, pages)
	if err == nil {
		return capRecords(records, maxResults), nil
	}
	// Toter Kontext kurzschließen: ein sequentieller Durchgang könnte
	// nichts mehr holen, der Aufrufer bekommt den Kontextfehler statt
	// ErrAllStrategiesFailed.
	if errors.Is(err, ErrProfileNotFound) || ctx.Err() != nil {
		return nil, err
	}

	o.logger.Warn("Parallele Sammlung fehlgeschlagen, falle auf sequentiell zurück",
		zap.String("user_id", userID), zap.Error(err))

	records, seqErr := o.collectSequential(ctx, userID, pages)
	if seqErr != nil {
		if errors.Is(seqErr, ErrProfileNotFound) {
			return nil, seqErr
		}
		return nil, fmt.Errorf("%w: concurrent: %v; sequential: %v", ErrAllStrategiesFailed, err, seqErr)
	}
	return capRecords(records, maxResults), nil
}

// collectConcurrent holt alle Seiten parallel und fügt sie in
// Seitenreihenfolge zusammen. Der erste Fehler gewinnt.
func (o *Orchestrator) collectConcurrent(ctx context.Context, userID string, pages int) ([]PublicationRecord, error) {
	results := make([][]PublicationRecord, pages)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < pages; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			recs, err := o.fetchPage(ctx, userID, page*o.pageSize)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results[page] = recs
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return mergePages(results, o.pageSize), nil
}

// collectSequential holt die Seiten nacheinander und stoppt bei der
// ersten kurzen Seite.
func (o *Orchestrator) collectSequential(ctx context.Context, userID string, pages int) ([]PublicationRecord, error) {
	results := make([][]PublicationRecord, 0, pages)
	for i := 0; i < pages; i++ {
		recs, err := o.fetchPage(ctx, userID, i*o.pageSize)
		if err != nil {
			return nil, err
		}
		results = append(results, recs)
		if len(recs) < o.pageSize {
			break
		}
	}
	return mergePages(results, o.pageSize), nil
}

// fetchPage holt und parst genau eine Listing-Seite (limiter-gesteuert).
func (o *Orchestrator) fetchPage(ctx context.Context, userID string, cstart int) ([]PublicationRecord, error) {
	if err := o.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	html, err := o.fetcher.Fetch(ctx, o.pageURL(userID, cstart))
	o.limiter.Release()
	if err != nil {
		return nil, err
	}
	if o.archive != nil {
		o.archive(ctx, userID, cstart, html)
	}
	recs, err := ParsePublicationsPage(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	o.logger.Debug("Seite eingesammelt",
		zap.String("user_id", userID), zap.Int("cstart", cstart), zap.Int("records", len(recs)))
	return recs, nil
}

// mergePages konkateniert die Seiten in Seitenreihenfolge, bricht nach
// der ersten kurzen Seite ab und entfernt Duplikate (Titel+Jahr).
func mergePages(pages [][]PublicationRecord, pageSize int) []PublicationRecord {
	type identity struct {
		title string
		year  int
	}
	seen := make(map[identity]struct{})

	var merged []PublicationRecord
	for _, page := range pages {
		for _, rec := range page {
			key := identity{title: strings.ToLower(strings.TrimSpace(rec.Title)), year: rec.Year}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, rec)
		}
		if len(page) < pageSize {
			break
		}
	}
	return merged
}

// capRecords schneidet die Ergebnisliste auf max Einträge zu.
func capRecords(records []PublicationRecord, max int) []PublicationRecord {
	if len(records) > max {
		return records[:max]
	}
	return records
}

// ExtractUserID akzeptiert eine Profil-URL oder eine rohe ID und gibt
// die Scholar-ID zurück.
func ExtractUserID(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty profile reference", ErrProfileNotFound)
	}
	if !strings.Contains(ref, "/") && !strings.Contains(ref, "=") {
		return ref, nil
	}
	u, err := url.Parse(ref)
	if err == nil {
		if id := u.Query().Get("user"); id != "" {
			return id, nil
		}
	}
	// Tolerant gegenüber nackten Query-Fragmenten wie "user=abc&hl=en"
	if vals, err := url.ParseQuery(strings.TrimPrefix(ref, "?")); err == nil {
		if id := vals.Get("user"); id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: no user id in %q", ErrProfileNotFound, ref)
}
