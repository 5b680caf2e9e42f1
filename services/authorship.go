package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"scholar-scope/models"
)

// RoleResult ist das Ergebnis der Autorenschafts-Klassifikation für
// eine einzelne Publikation.
type RoleResult struct {
	Role           string
	AuthorPosition int
	IsPrimary      bool
	Confidence     float64
	Found          bool
}

// Markierungen für korrespondierende Autoren in der Rohliste.
var correspondingMarkers = []string{"*", "†"}

// Venue- und Keyword-Indikatoren, die auf studentische Arbeiten deuten.
var studentIndicators = []string{
	"student", "doctoral", "phd forum", "thesis", "dissertation",
	"undergraduate", "master's", "masters thesis", "doctoral consortium",
	"student paper", "student research",
}

var (
	honorificPrefix = regexp.MustCompile(`^(?i)(dr|prof|professor|mr|mrs|ms)\.?\s+`)
	honorificSuffix = regexp.MustCompile(`(?i),?\s+(jr|sr|ii|iii|iv)\.?$`)
	moreAuthors     = regexp.MustCompile(`(?i)\+\s*\d+\s*(more|weitere)`)
	etAlSuffix      = regexp.MustCompile(`(?i)[,\s]*\bet\.?\s*al\.?\s*$`)
)

// AuthorshipClassifier leitet die Rolle des Profilinhabers aus dem
// rohen Autorenstring einer Publikation ab.
type AuthorshipClassifier struct{}

// NewAuthorshipClassifier erstellt einen Classifier ohne Zustand.
func NewAuthorshipClassifier() *AuthorshipClassifier {
	return &AuthorshipClassifier{}
}

// Classify bestimmt die Rolle von ownerName im Autorenstring der
// Publikation. Wird der Inhaber nicht gefunden, ist Found false und
// die Publikation bleibt ohne Rollen-Datensatz.
func (c *AuthorshipClassifier) Classify(ownerName string, pub *models.Publication) RoleResult {
	authors, truncated := SplitAuthors(pub.Authors)
	if len(authors) == 0 {
		return RoleResult{}
	}

	positions := matchOwner(ownerName, authors)
	if len(positions) == 0 {
		return RoleResult{}
	}

	pos := positions[0]
	confidence := 1.0
	if len(positions) > 1 {
		confidence = 1.0 / float64(len(positions))
	}

	result := RoleResult{
		AuthorPosition: pos,
		Confidence:     confidence,
		Found:          true,
	}

	// Regel-Kaskade: korrespondierend schlägt alles, dann Position.
	switch {
	case hasCorrespondingMarker(authors[pos]):
		result.Role = models.RoleCorresponding
		result.IsPrimary = true
	case pos == 0:
		// Auch Einzelautoren zählen als Erstautor
		result.Role = models.RoleFirst
		result.IsPrimary = true
	case pos == len(authors)-1 && !truncated:
		result.Role = models.RoleLast
		result.IsPrimary = true
	case pos >= 2 && looksLikeStudentWork(pub):
		result.Role = models.RoleStudent
	default:
		result.Role = models.RoleMiddle
	}
	return result
}

// SplitAuthors zerlegt den rohen Autorenstring in einzelne Namen und
// meldet, ob die Liste abgeschnitten ist ("...", "et al", "+ N more").
// Ehrentitel und Suffixe werden entfernt.
func SplitAuthors(raw string) ([]string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}

	truncated := false
	if strings.Contains(raw, "...") || strings.Contains(raw, "…") {
		truncated = true
		raw = strings.ReplaceAll(raw, "...", ",")
		raw = strings.ReplaceAll(raw, "…", ",")
	}
	if moreAuthors.MatchString(raw) {
		truncated = true
		raw = moreAuthors.ReplaceAllString(raw, "")
	}
	if etAlSuffix.MatchString(raw) {
		truncated = true
		raw = etAlSuffix.ReplaceAllString(raw, "")
	}

	raw = strings.ReplaceAll(raw, ";", ",")
	raw = strings.ReplaceAll(raw, " and ", ",")
	raw = strings.ReplaceAll(raw, " und ", ",")
	raw = strings.ReplaceAll(raw, " & ", ",")

	var authors []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}
		lower := strings.ToLower(strings.Trim(name, ". "))
		if lower == "et al" || lower == "others" {
			truncated = true
			continue
		}
		name = honorificPrefix.ReplaceAllString(name, "")
		name = honorificSuffix.ReplaceAllString(name, "")
		name = strings.TrimSpace(name)
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors, truncated
}

// matchOwner liefert alle Positionen, an denen ownerName in der
// Autorenliste passt. Probiert vollen Namen, Initialen-Formen und
// als letzte Stufe den nackten Nachnamen.
func matchOwner(ownerName string, authors []string) []int {
	owner := NormalizeName(ownerName)
	if owner == "" {
		return nil
	}
	ownerParts := strings.Fields(owner)
	surname := ownerParts[len(ownerParts)-1]

	var variants []string
	variants = append(variants, owner)
	if len(ownerParts) >= 2 {
		// erste Rune, nicht erstes Byte: kyrillische und CJK-Namen
		// überleben die Normalisierung mehrbytig
		initial, _ := utf8.DecodeRuneInString(ownerParts[0])
		// "f last" deckt "F Last" und "F. Last" nach der Normalisierung ab
		variants = append(variants, string(initial)+" "+surname)
		variants = append(variants, surname+" "+string(initial))
	}

	var positions []int
	for i, author := range authors {
		a := NormalizeName(stripCorrespondingMarker(author))
		matched := false
		for _, v := range variants {
			if a == v {
				matched = true
				break
			}
		}
		if !matched {
			// Nachname als eigenständiges Wort
			for _, word := range strings.Fields(a) {
				if word == surname {
					matched = true
					break
				}
			}
		}
		if matched {
			positions = append(positions, i)
		}
	}
	return positions
}

// NormalizeName vereinheitlicht einen Autorennamen: Kleinschreibung,
// Diakritika weg, Interpunktion weg, Whitespace kollabiert.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func hasCorrespondingMarker(author string) bool {
	for _, m := range correspondingMarkers {
		if strings.HasSuffix(strings.TrimSpace(author), m) {
			return true
		}
	}
	return false
}

func stripCorrespondingMarker(author string) string {
	author = strings.TrimSpace(author)
	for _, m := range correspondingMarkers {
		author = strings.TrimSuffix(author, m)
	}
	return strings.TrimSpace(author)
}

// looksLikeStudentWork prüft Venue und Titel auf studentische Indikatoren.
func looksLikeStudentWork(pub *models.Publication) bool {
	haystack := strings.ToLower(pub.Venue + " " + pub.Title + " " + pub.Keywords)
	for _, ind := range studentIndicators {
		if strings.Contains(haystack, ind) {
			return true
		}
	}
	return false
}
