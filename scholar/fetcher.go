package scholar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// userAgentTransport fügt jeder Anfrage einen Browser-User-Agent hinzu.
type userAgentTransport struct {
	Transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	return t.Transport.RoundTrip(req)
}

// Fetcher holt genau eine Seite der externen Quelle. Keine Retries,
// keine Geschäftslogik; jeder Aufruf entspricht genau einer Anfrage
// gegen die Quelle.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher erstellt einen Fetcher mit festem Timeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				Transport: http.DefaultTransport,
			},
		},
		logger: logger,
	}
}

// Fetch lädt die Seite hinter url und gibt das rohe Markup zurück.
// Timeouts werden als ErrFetchTimeout gemeldet, alle übrigen Transport-
// und Statusfehler als ErrFetchFailed; HTTP 404 als ErrProfileNotFound.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			f.logger.Warn("Seitenabruf in Timeout gelaufen", zap.String("url", url))
			return nil, fmt.Errorf("%w: %s", ErrFetchTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("Quelle hat Nicht-200-Status geliefert",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	return body, nil
}

// isTimeout erkennt Timeout-Fehler des Clients oder des Kontexts.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
