package scholar

// PublicationRecord ist das rohe Ergebnis einer geparsten Listing-Zeile.
// Fehlende Felder sind leere Strings bzw. 0, niemals fehlende Keys.
type PublicationRecord struct {
	Title         string `json:"title"`
	Authors       string `json:"authors"`
	Venue         string `json:"venue"`
	Year          int    `json:"year"`
	CitationCount int    `json:"citation_count"`
	DetailURL     string `json:"detail_url"`
}

// ProfileRecord ist das geparste Ergebnis der Profil-Kopfseite.
type ProfileRecord struct {
	ScholarID      string      `json:"scholar_id"`
	Name           string      `json:"name"`
	Affiliation    string      `json:"affiliation"`
	Interests      []string    `json:"interests"`
	HIndex         int         `json:"h_index"`
	I10Index       int         `json:"i10_index"`
	TotalCitations int         `json:"total_citations"`
	YearlyCited    map[int]int `json:"yearly_cited,omitempty"`
}
