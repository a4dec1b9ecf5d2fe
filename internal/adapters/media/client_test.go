package media_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tripvote/internal/adapters/media"
)

func TestResolve_KeepsLiveImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		w.WriteHeader(200)
	}))
	defer ts.Close()

	r := media.New(100)
	got, err := r.Resolve(context.Background(), "Jaipur", "Pearl Palace", ts.URL+"/img.jpg")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != ts.URL+"/img.jpg" {
		t.Fatalf("expected original URL kept, got %s", got)
	}
}

func TestResolve_FallbackOnMissing(t *testing.T) {
	r := media.New(100)
	got, err := r.Resolve(context.Background(), "Jaipur", "Pearl Palace", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != media.FallbackURL("Jaipur", "Pearl Palace") {
		t.Fatalf("unexpected fallback URL: %s", got)
	}
	if !strings.Contains(got, "Jaipur") {
		t.Fatalf("fallback should mention the city: %s", got)
	}
}

func TestResolve_FallbackOn404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	r := media.New(100)
	got, err := r.Resolve(context.Background(), "Jodhpur", "Pal Haveli", ts.URL+"/dead.jpg")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got == ts.URL+"/dead.jpg" {
		t.Fatalf("expected fallback for dead image")
	}
	if got != media.FallbackURL("Jodhpur", "Pal Haveli") {
		t.Fatalf("unexpected fallback URL: %s", got)
	}
}

func TestResolve_RetriesThenKeepsOriginal(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(500)
	}))
	defer ts.Close()

	r := media.New(100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := r.Resolve(ctx, "Udaipur", "Jagat Niwas", ts.URL+"/img.jpg")
	if err == nil {
		t.Fatalf("expected error after retries")
	}
	// a transient upstream failure must not silently rewrite the URL
	if got != ts.URL+"/img.jpg" {
		t.Fatalf("expected original URL back, got %s", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected retries, got %d calls", hits)
	}
}
