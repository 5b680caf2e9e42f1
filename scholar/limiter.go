package scholar

import (
	"context"
	"sync"
	"time"
)

// Limiter begrenzt die Zahl gleichzeitiger Abrufe auf K Permits und
// erzwingt prozessweit einen Mindestabstand zwischen zwei Zulassungen,
// unabhängig davon, wie viele Worker parallel anfragen. Er wird als
// explizite Instanz injiziert, nie als Prozess-Singleton.
type Limiter struct {
	sem      chan struct{}
	minDelay time.Duration

	mu sync.Mutex
	// Zeitpunkt, ab dem die nächste Zulassung erfolgen darf
	nextAdmission time.Time
}

// NewLimiter erstellt einen Limiter mit k Permits und Mindestabstand d.
func NewLimiter(k int, d time.Duration) *Limiter {
	if k <= 0 {
		k = 1
	}
	return &Limiter{
		sem:      make(chan struct{}, k),
		minDelay: d,
	}
}

// Acquire blockiert, bis ein Permit frei ist und der Mindestabstand zur
// vorherigen Zulassung verstrichen ist. Bricht ab, wenn ctx endet.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	now := time.Now()
	wait := l.nextAdmission.Sub(now)
	if wait < 0 {
		wait = 0
	}
	l.nextAdmission = now.Add(wait + l.minDelay)
	l.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			<-l.sem
			return ctx.Err()
		}
	}
	return nil
}

// Release gibt ein Permit zurück.
func (l *Limiter) Release() {
	<-l.sem
}

// InFlight gibt die Zahl aktuell vergebener Permits zurück.
func (l *Limiter) InFlight() int {
	return len(l.sem)
}
