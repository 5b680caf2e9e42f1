package scholar

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// ParsePublicationsPage extrahiert alle Publikations-Zeilen aus einer
// Listing-Seite. Fehlerhafte Zeilen werden übersprungen, nie abgebrochen;
// eine Zeile ohne Titel zählt als fehlerhaft.
func ParsePublicationsPage(html []byte) ([]PublicationRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []PublicationRecord
	doc.Find(".gsc_a_tr").Each(func(_ int, row *goquery.Selection) {
		titleSel := row.Find("a.gsc_a_at")
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			return
		}

		rec := PublicationRecord{Title: title}
		if href, ok := titleSel.Attr("href"); ok {
			rec.DetailURL = href
		}

		gray := row.Find(".gs_gray")
		if gray.Length() > 0 {
			rec.Authors = strings.TrimSpace(gray.Eq(0).Text())
		}
		if gray.Length() > 1 {
			venue := gray.Eq(1)
			// Jahres-Span aus dem Venue-Text herauslösen
			yearText := strings.TrimSpace(venue.Find("span.gs_oph").Text())
			venue.Find("span.gs_oph").Remove()
			rec.Venue = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(venue.Text()), ","))
			if yearText != "" {
				rec.Year = extractYear(yearText)
			}
			if rec.Year == 0 {
				rec.Year = extractYear(rec.Venue)
			}
		}

		if rec.Year == 0 {
			yearCol := strings.TrimSpace(row.Find(".gsc_a_y").Text())
			rec.Year = extractYear(yearCol)
		}

		cites := strings.TrimSpace(row.Find("a.gsc_a_ac").Text())
		if n, err := strconv.Atoi(cites); err == nil {
			rec.CitationCount = n
		}

		records = append(records, rec)
	})

	return records, nil
}

// ParseProfilePage extrahiert die Kopf-Daten eines Profils: Name,
// Affiliation, Interessen, die Statistik-Tabelle und die Jahres-Balken
// des Zitations-Charts. Ein leerer Name bedeutet: Profil existiert nicht.
func ParseProfilePage(html []byte) (ProfileRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ProfileRecord{}, err
	}

	rec := ProfileRecord{
		Name:        strings.TrimSpace(doc.Find("#gsc_prf_in").Text()),
		Affiliation: strings.TrimSpace(doc.Find(".gsc_prf_il").First().Text()),
	}

	doc.Find("a.gsc_prf_inta").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			rec.Interests = append(rec.Interests, t)
		}
	})

	// Statistik-Tabelle: Zeilen Citations / h-index / i10-index,
	// erste Wert-Spalte ist "all time"
	doc.Find("#gsc_rsb_st tbody tr").Each(func(_ int, row *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(row.Find("td").First().Text()))
		value, err := strconv.Atoi(strings.TrimSpace(row.Find("td").Eq(1).Text()))
		if err != nil {
			return
		}
		switch {
		case strings.HasPrefix(label, "citation"), strings.HasPrefix(label, "zitat"):
			rec.TotalCitations = value
		case strings.HasPrefix(label, "h-index"):
			rec.HIndex = value
		case strings.HasPrefix(label, "i10-index"):
			rec.I10Index = value
		}
	})

	// Chart-Balken: Jahres-Labels und Werte laufen als parallele Spans
	var years []int
	doc.Find("span.gsc_g_t").Each(func(_ int, s *goquery.Selection) {
		if y, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil {
			years = append(years, y)
		}
	})
	var values []int
	doc.Find("a.gsc_g_a span.gsc_g_al").Each(func(_ int, s *goquery.Selection) {
		if v, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil {
			values = append(values, v)
		}
	})
	if len(values) == 0 {
		doc.Find("span.gsc_g_al").Each(func(_ int, s *goquery.Selection) {
			if v, err := strconv.Atoi(strings.TrimSpace(s.Text())); err == nil {
				values = append(values, v)
			}
		})
	}
	if len(years) > 0 && len(years) == len(values) {
		rec.YearlyCited = make(map[int]int, len(years))
		for i, y := range years {
			rec.YearlyCited[y] = values[i]
		}
	}

	return rec, nil
}

// extractYear nimmt das letzte vierstellige Jahr im Text (19xx/20xx).
// Das letzte Vorkommen gewinnt, weil Venue-Namen selbst Jahre enthalten
// können ("NeurIPS 2019 Workshop ... 2020").
func extractYear(text string) int {
	matches := yearPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0
	}
	year, _ := strconv.Atoi(matches[len(matches)-1])
	return year
}
