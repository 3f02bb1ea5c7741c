package unisport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unisportai/unisport-sync/internal/platform/logging"
	"github.com/unisportai/unisport-sync/internal/usecase"
)

func newTestClient(t *testing.T, serverURL string, maxRetries int, circuitEnabled bool) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{
		BaseURL:        serverURL,
		LocationsURL:   serverURL + "/locations.html",
		OffersURL:      serverURL + "/angebote/",
		UserAgent:      "unisport-sync-test",
		Timeout:        5 * time.Second,
		MaxRetries:     maxRetries,
		Logger:         logging.NewNop(),
		CircuitEnabled: circuitEnabled,
		CircuitCount:   2,
		CircuitTimeout: time.Minute,
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func TestClientFetchLocationBundle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "unisport-sync-test" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write([]byte(locationPageFixture))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0, false)
	bundle, err := client.FetchLocationBundle(context.Background())
	if err != nil {
		t.Fatalf("FetchLocationBundle() error = %v", err)
	}

	if len(bundle.Markers) != 3 {
		t.Fatalf("Markers = %d, want 3", len(bundle.Markers))
	}
	if bundle.DroppedMarkers != 1 {
		t.Fatalf("DroppedMarkers = %d, want 1", bundle.DroppedMarkers)
	}
	if len(bundle.MenuSports) != 2 || len(bundle.MenuLinks) != 2 {
		t.Fatalf("menu entries = %d/%d, want 2/2", len(bundle.MenuSports), len(bundle.MenuLinks))
	}
}

func TestClientRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(offerIndexFixture))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 1, false)
	offers, err := client.FetchOffers(context.Background())
	if err != nil {
		t.Fatalf("FetchOffers() error = %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(offers))
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestClientDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 3, false)
	if _, err := client.FetchOffers(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, a 404 must not be retried", calls.Load())
	}
}

func TestClientCircuitOpensAfterFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, 0, true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.FetchOffers(ctx); err == nil {
			t.Fatal("expected upstream failure")
		}
	}

	before := calls.Load()
	_, err := client.FetchOffers(ctx)
	if err == nil {
		t.Fatal("expected circuit rejection")
	}
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("err = %v, want dependency unavailable", err)
	}
	if calls.Load() != before {
		t.Fatal("open circuit must not reach the server")
	}
}
