package scholar

import (
	"errors"
)

// Fehler-Taxonomie der Scrape-Schicht. Zeilen-Probleme beim Parsen werden
// lokal geschluckt; nur Sammel-Fehler erreichen den Aufrufer.
var (
	// ErrFetchTimeout: keine Antwort innerhalb des konfigurierten Timeouts.
	ErrFetchTimeout = errors.New("scholar: fetch timeout")

	// ErrFetchFailed: Transportfehler oder Nicht-Erfolgs-Status.
	ErrFetchFailed = errors.New("scholar: fetch failed")

	// ErrProfileNotFound: die Quelle kennt das Profil nicht. Fatal, kein Retry.
	ErrProfileNotFound = errors.New("scholar: profile not found")

	// ErrAllStrategiesFailed: parallele UND sequentielle Sammlung fehlgeschlagen.
	ErrAllStrategiesFailed = errors.New("scholar: all collection strategies failed")
)
