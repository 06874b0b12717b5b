package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alexanderramin/expedit/internal/domain"
	"github.com/alexanderramin/expedit/internal/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Token = "secret"
	return cfg
}

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (o *recordingObserver) OnCallComplete(e CallEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func TestClient_GetDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/raw/exp-1", r.URL.Path)
		assert.Equal(t, "en", r.URL.Query().Get("language_code"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"experience_id":"exp-1","status_code":"UP_TO_DATE","commercial":{"title":"Boat tour"}}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	doc, err := NewClient(testConfig(srv.URL), obs).GetDocument(context.Background(), domain.KindRaw, "exp-1", "en")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", doc["experience_id"])
	assert.Equal(t, map[string]any{"title": "Boat tour"}, doc["commercial"])

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, http.StatusOK, obs.events[0].StatusCode)
}

func TestClient_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Token = ""
	_, err := NewClient(cfg, nil).GetDocument(context.Background(), domain.KindRaw, "exp-1", "")
	require.NoError(t, err)
}

func TestClient_PatchDocument_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/v1/raw/exp-1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"experience_id": "exp-1", "status_code": "IN_REVIEW"}, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL), nil).PatchDocument(context.Background(), domain.KindRaw, "exp-1",
		map[string]any{"experience_id": "exp-1", "status_code": "IN_REVIEW"})
	require.NoError(t, err)
}

func TestClient_PatchDocument_NotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 3
	err := NewClient(cfg, nil).PatchDocument(context.Background(), domain.KindRaw, "exp-1", map[string]any{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GetRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"experience_id":"exp-1"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	doc, err := NewClient(testConfig(srv.URL), obs).GetDocument(context.Background(), domain.KindRaw, "exp-1", "")
	require.NoError(t, err)
	assert.Equal(t, "exp-1", doc["experience_id"])
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, obs.events[0].Attempts)
}

func TestClient_ItemCalls(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]resolver.Payload{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		var p resolver.Payload
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			if len(raw) > 0 {
				require.NoError(t, json.Unmarshal(raw, &p))
			}
		}
		seen[r.Method+" "+r.URL.Path] = p
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": 42}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), nil)
	ctx := context.Background()
	payload := resolver.Payload{ExperienceID: "exp-1", Name: "Sunset", VisualizationOrder: 1, Code: "H1"}

	id, err := c.CreateItem(ctx, "custom-highlights", payload)
	require.NoError(t, err)
	assert.Equal(t, "42", id)

	require.NoError(t, c.UpdateItem(ctx, "custom-highlights", "7", payload))
	require.NoError(t, c.DeleteItem(ctx, "custom-highlights", "8"))

	assert.Equal(t, payload, seen["POST /v1/custom-highlights"])
	assert.Equal(t, payload, seen["PUT /v1/custom-highlights/7"])
	assert.Contains(t, seen, "DELETE /v1/custom-highlights/8")
}

func TestClient_CreateItemWithoutID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).CreateItem(context.Background(), "custom-included", resolver.Payload{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_ListSnapshots_NDJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/raw-snapshots", r.URL.Path)
		assert.Equal(t, "exp-1", r.URL.Query().Get("experience_id"))
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(
			`{"id":"s2","author_name":"ana","created_at":"2026-03-02T10:00:00Z","flow_code":"CURATION","status_code":"IN_REVIEW"}` + "\n" +
				`{"id":"s1","author_name":"bo","created_at":"2026-03-01T10:00:00Z","flow_code":"CURATION","status_code":"UP_TO_DATE"}` + "\n"))
	}))
	defer srv.Close()

	snaps, err := NewClient(testConfig(srv.URL), nil).ListSnapshots(context.Background(), domain.KindRaw, "exp-1", "en")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "s2", snaps[0].ID)
	assert.Equal(t, domain.StatusUpToDate, snaps[1].StatusCode)
	assert.Equal(t, 2026, snaps[1].CreatedAt.Year())
}

func TestClient_ListSnapshots_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"s1"}` + "\n" + `{broken`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).ListSnapshots(context.Background(), domain.KindRaw, "exp-1", "")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_SupplierWithoutEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"SUPPLIER_WITHOUT_EVENTS","message":"supplier 9 has no events"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	err := NewClient(testConfig(srv.URL), obs).PatchDocument(context.Background(), domain.KindRaw, "exp-1", map[string]any{})

	var swe *SupplierWithoutEventsError
	require.ErrorAs(t, err, &swe)
	assert.Equal(t, "supplier 9 has no events", swe.Message)

	var dom *DomainAPIError
	require.ErrorAs(t, err, &dom)
	assert.Equal(t, CodeSupplierWithoutEvents, dom.Code)
	assert.Equal(t, CodeSupplierWithoutEvents, obs.events[0].ErrorCode)
}

func TestClient_GenericErrorPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"BAD_TITLE","message":"title too long"}`))
	}))
	defer srv.Close()

	err := NewClient(testConfig(srv.URL), nil).PatchDocument(context.Background(), domain.KindRaw, "exp-1", map[string]any{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "BAD_TITLE", se.Code)
	assert.Contains(t, err.Error(), "title too long")

	var dom *DomainAPIError
	assert.False(t, errors.As(err, &dom))
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.TimeoutMs = 50
	_, err := NewClient(cfg, nil).GetDocument(context.Background(), domain.KindRaw, "exp-1", "")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Unavailable(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	cfg.TimeoutMs = 1000
	_, err := NewClient(cfg, nil).GetDocument(context.Background(), domain.KindRaw, "exp-1", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}
