package services

import (
	"sort"
	"time"

	"scholar-scope/models"
)

// Gültiges Jahresfenster für die Jahres-Verteilung. Jahre außerhalb
// gelten als Parsing-Artefakte und fallen aus den Buckets heraus.
const minValidYear = 1990

// YearBucket ist ein Eintrag der lückenlosen Jahres-Verteilung.
type YearBucket struct {
	Year         int `json:"year"`
	Publications int `json:"publications"`
	Citations    int `json:"citations"`
}

// OverviewMetrics sind die aggregierten Kennzahlen eines Profils.
type OverviewMetrics struct {
	PublicationCount int          `json:"publication_count"`
	TotalCitations   int          `json:"total_citations"`
	HIndex           int          `json:"h_index"`
	I10Index         int          `json:"i10_index"`
	AvgCitations     float64      `json:"avg_citations"`
	MaxCitations     int          `json:"max_citations"`
	FirstYear        int          `json:"first_year,omitempty"`
	LastYear         int          `json:"last_year,omitempty"`
	YearsActive      int          `json:"years_active"`
	YearlyBuckets    []YearBucket `json:"yearly_buckets,omitempty"`
	// Anteil der Publikationen mit mindestens einem Co-Autor
	CollaborationScore float64 `json:"collaboration_score"`
}

// MetricsComputer berechnet Kennzahlen rein aus den gespeicherten
// Publikationen, ohne die Quelle erneut zu befragen.
type MetricsComputer struct{}

// NewMetricsComputer erstellt einen Computer ohne Zustand.
func NewMetricsComputer() *MetricsComputer {
	return &MetricsComputer{}
}

// Compute berechnet alle Kennzahlen für die gegebenen Publikationen.
func (m *MetricsComputer) Compute(pubs []models.Publication, now time.Time) OverviewMetrics {
	result := OverviewMetrics{PublicationCount: len(pubs)}
	if len(pubs) == 0 {
		return result
	}

	citations := make([]int, len(pubs))
	collaborated := 0
	for i, p := range pubs {
		citations[i] = p.CitationCount
		result.TotalCitations += p.CitationCount
		if p.CitationCount > result.MaxCitations {
			result.MaxCitations = p.CitationCount
		}
		if authors, _ := SplitAuthors(p.Authors); len(authors) > 1 {
			collaborated++
		}
	}

	result.HIndex = HIndex(citations)
	result.I10Index = I10Index(citations)
	result.AvgCitations = float64(result.TotalCitations) / float64(len(pubs))
	result.CollaborationScore = float64(collaborated) / float64(len(pubs))
	result.YearlyBuckets = YearlyBuckets(pubs, now)

	if len(result.YearlyBuckets) > 0 {
		result.FirstYear = result.YearlyBuckets[0].Year
		result.LastYear = result.YearlyBuckets[len(result.YearlyBuckets)-1].Year
		result.YearsActive = result.LastYear - result.FirstYear + 1
	}
	return result
}

// HIndex ist das größte h, für das mindestens h Publikationen je
// mindestens h Zitationen haben.
func HIndex(citations []int) int {
	sorted := make([]int, len(citations))
	copy(sorted, citations)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	h := 0
	for i, c := range sorted {
		if c >= i+1 {
			h = i + 1
		} else {
			break
		}
	}
	return h
}

// I10Index zählt Publikationen mit mindestens 10 Zitationen.
func I10Index(citations []int) int {
	n := 0
	for _, c := range citations {
		if c >= 10 {
			n++
		}
	}
	return n
}

// YearlyBuckets liefert die lückenlose Jahres-Verteilung vom ältesten
// bis zum jüngsten gültigen Publikationsjahr. Jahre ohne Publikationen
// erscheinen als Null-Buckets; ungültige Jahre werden ignoriert.
func YearlyBuckets(pubs []models.Publication, now time.Time) []YearBucket {
	maxValid := now.Year()

	first, last := 0, 0
	pubsByYear := make(map[int]int)
	citesByYear := make(map[int]int)
	for _, p := range pubs {
		if p.Year < minValidYear || p.Year > maxValid {
			continue
		}
		pubsByYear[p.Year]++
		citesByYear[p.Year] += p.CitationCount
		if first == 0 || p.Year < first {
			first = p.Year
		}
		if p.Year > last {
			last = p.Year
		}
	}
	if first == 0 {
		return nil
	}

	buckets := make([]YearBucket, 0, last-first+1)
	for y := first; y <= last; y++ {
		buckets = append(buckets, YearBucket{
			Year:         y,
			Publications: pubsByYear[y],
			Citations:    citesByYear[y],
		})
	}
	return buckets
}
