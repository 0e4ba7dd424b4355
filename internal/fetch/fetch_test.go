package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestFetchPrimarySuccess(t *testing.T) {
	var fallbackHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/linux_x64/desktop/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %q, want %q", got, DefaultUserAgent)
		}
		_, _ = w.Write([]byte("listing"))
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
	}))
	defer fallback.Close()

	f := New(Config{BaseURL: primary.URL, FallbackURL: fallback.URL})
	body, err := f.Fetch(context.Background(), "linux_x64/desktop/")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if body != "listing" {
		t.Errorf("Fetch() = %q, want %q", body, "listing")
	}
	if fallbackHits.Load() != 0 {
		t.Errorf("fallback hit %d times, want 0", fallbackHits.Load())
	}
}

func TestFetchFailsOverOnce(t *testing.T) {
	var primaryHits, fallbackHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackHits.Add(1)
		_, _ = w.Write([]byte("mirrored"))
	}))
	defer fallback.Close()

	f := New(Config{BaseURL: primary.URL, FallbackURL: fallback.URL})
	body, err := f.Fetch(context.Background(), "windows_x86/desktop/")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if body != "mirrored" {
		t.Errorf("Fetch() = %q, want %q", body, "mirrored")
	}
	if primaryHits.Load() != 1 || fallbackHits.Load() != 1 {
		t.Errorf("hits = primary %d fallback %d, want 1 and 1", primaryHits.Load(), fallbackHits.Load())
	}
}

func TestFetchDoubleFailureKeepsPrimaryError(t *testing.T) {
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer primary.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer fallback.Close()

	f := New(Config{BaseURL: primary.URL, FallbackURL: fallback.URL})
	_, err := f.Fetch(context.Background(), "missing/")
	if err == nil {
		t.Fatal("Fetch() expected error")
	}

	var dlErr *DownloadError
	if !errors.As(err, &dlErr) {
		t.Fatalf("Fetch() error = %T, want *DownloadError", err)
	}
	// Primary attempt's failure wins, not the fallback's.
	if dlErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", dlErr.StatusCode, http.StatusNotFound)
	}
}

func TestFetchConnectionError(t *testing.T) {
	// A closed server refuses connections.
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	f := New(Config{BaseURL: deadURL, FallbackURL: deadURL})
	_, err := f.Fetch(context.Background(), "anything/")
	if err == nil {
		t.Fatal("Fetch() expected error")
	}
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("Fetch() error = %T, want *ConnectionError", err)
	}
}

func TestNewFillsDefaults(t *testing.T) {
	f := New(Config{})
	if f.config.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", f.config.BaseURL)
	}
	if f.config.FallbackURL != DefaultFallbackURL {
		t.Errorf("FallbackURL = %q, want default", f.config.FallbackURL)
	}
	if f.config.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want default", f.config.UserAgent)
	}
	if f.config.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default", f.config.Timeout)
	}
	if f.config.HTTPClient == nil {
		t.Error("HTTPClient not filled")
	}
}
