package media

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"tripvote/internal/adapters/observability"
)

var ErrNotFound = errors.New("media: not found")

// Resolver validates hotel image URLs during seeding and substitutes a
// deterministic stock-photo URL when an image is missing or dead. Outbound
// calls are rate limited client-side so a large seed file does not hammer
// image hosts.
type Resolver struct {
	hc *http.Client
	rl *rate.Limiter
}

func New(rps int) *Resolver {
	if rps <= 0 {
		rps = 5
	}
	return &Resolver{
		hc: &http.Client{Timeout: 10 * time.Second},
		rl: rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// Resolve returns a usable image URL for the hotel: the given one when it
// answers, a fallback when it is absent or 404s. Transient upstream failures
// keep the given URL rather than silently rewriting it.
func (r *Resolver) Resolve(ctx context.Context, cityName, hotelName, image string) (string, error) {
	if image == "" {
		return FallbackURL(cityName, hotelName), nil
	}
	err := r.head(ctx, image)
	switch {
	case err == nil:
		return image, nil
	case errors.Is(err, ErrNotFound):
		return FallbackURL(cityName, hotelName), nil
	default:
		return image, err
	}
}

// FallbackURL derives a stock-photo search URL from the city and hotel names.
func FallbackURL(cityName, hotelName string) string {
	q := url.QueryEscape(cityName + " " + hotelName + " hotel")
	return "https://source.unsplash.com/800x600/?" + q
}

// head performs a HEAD with client-side rate limiting and bounded retries on
// 429/transient 5xx.
func (r *Resolver) head(ctx context.Context, u string) error {
	if err := r.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "tripvote-seeder/1.0")

		start := time.Now()
		resp, err := r.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		observability.ObserveExternal("media", "head", resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 400:
			return nil
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			return ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 2 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			return lastErr
		default:
			return fmt.Errorf("bad status %d", resp.StatusCode)
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff doubles each attempt (200ms, 400ms, ...) with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
