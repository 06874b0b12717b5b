package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alexanderramin/expedit/internal/api"
	"github.com/alexanderramin/expedit/internal/resolver"
)

// Call is one request received by FakeAPI.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
}

type failure struct {
	status  int
	code    string
	message string
}

// FakeAPI is an in-memory editorial API served over httptest.
type FakeAPI struct {
	Server *httptest.Server

	mu        sync.Mutex
	documents map[string]map[string]any
	items     map[string]map[string]resolver.Payload
	snapshots map[string][]api.Snapshot
	failures  map[string]failure
	calls     []Call
	nextID    int
}

// NewFakeAPI starts a fake server that is closed when the test completes.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{
		documents: make(map[string]map[string]any),
		items:     make(map[string]map[string]resolver.Payload),
		snapshots: make(map[string][]api.Snapshot),
		failures:  make(map[string]failure),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// Client returns an api.Client pointed at the fake with retries disabled.
func (f *FakeAPI) Client() api.Client {
	return api.NewClient(f.Config(), nil)
}

func (f *FakeAPI) Config() api.Config {
	return api.Config{BaseURL: f.Server.URL, Token: "test-token", TimeoutMs: 5000}
}

// PutDocument stores the representation served for kind/experienceID.
func (f *FakeAPI) PutDocument(kind, experienceID string, doc map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documents[kind+"/"+experienceID] = doc
}

// Document returns the current server representation.
func (f *FakeAPI) Document(kind, experienceID string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.documents[kind+"/"+experienceID]
}

// PutSnapshots sets the snapshot list of kind/experienceID, newest first.
func (f *FakeAPI) PutSnapshots(kind, experienceID string, snaps []api.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[kind+"/"+experienceID] = snaps
}

// Items returns the stored items of an endpoint keyed by id.
func (f *FakeAPI) Items(endpoint string) map[string]resolver.Payload {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]resolver.Payload, len(f.items[endpoint]))
	for k, v := range f.items[endpoint] {
		out[k] = v
	}
	return out
}

// PutItem stores an existing server-side item.
func (f *FakeAPI) PutItem(endpoint, id string, p resolver.Payload) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.items[endpoint] == nil {
		f.items[endpoint] = make(map[string]resolver.Payload)
	}
	f.items[endpoint][id] = p
}

// Fail makes every request matching method and path fail. An empty code
// sends a bare status.
func (f *FakeAPI) Fail(method, path string, status int, code, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method+" "+path] = failure{status: status, code: code, message: message}
}

// Calls returns every request received so far.
func (f *FakeAPI) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsWithMethod filters Calls by HTTP method.
func (f *FakeAPI) CallsWithMethod(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body})

	if fail, ok := f.failures[r.Method+" "+r.URL.Path]; ok {
		w.WriteHeader(fail.status)
		if fail.code != "" {
			_ = json.NewEncoder(w).Encode(map[string]string{"code": fail.code, "message": fail.message})
		}
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/v1/"), "/")
	switch {
	case len(parts) == 1 && strings.HasSuffix(parts[0], "-snapshots") && r.Method == http.MethodGet:
		f.serveSnapshots(w, strings.TrimSuffix(parts[0], "-snapshots"), r.URL.Query().Get("experience_id"))
	case len(parts) == 1 && strings.HasPrefix(parts[0], "custom-") && r.Method == http.MethodPost:
		f.nextID++
		id := fmt.Sprintf("srv-%d", f.nextID)
		f.storeItem(parts[0], id, raw)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
	case len(parts) == 2 && strings.HasPrefix(parts[0], "custom-"):
		f.serveItem(w, r.Method, parts[0], parts[1], raw)
	case len(parts) == 2:
		f.serveDocument(w, r.Method, parts[0]+"/"+parts[1], body)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeAPI) serveDocument(w http.ResponseWriter, method, key string, body map[string]any) {
	doc, ok := f.documents[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "NOT_FOUND", "message": key + " not found"})
		return
	}
	switch method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(doc)
	case http.MethodPatch:
		mergePatch(doc, body)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeAPI) serveItem(w http.ResponseWriter, method, endpoint, id string, raw []byte) {
	if _, ok := f.items[endpoint][id]; !ok && method != http.MethodPut {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch method {
	case http.MethodPut:
		f.storeItem(endpoint, id, raw)
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		delete(f.items[endpoint], id)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeAPI) storeItem(endpoint, id string, raw []byte) {
	var p resolver.Payload
	_ = json.Unmarshal(raw, &p)
	if f.items[endpoint] == nil {
		f.items[endpoint] = make(map[string]resolver.Payload)
	}
	f.items[endpoint][id] = p
}

func (f *FakeAPI) serveSnapshots(w http.ResponseWriter, kind, experienceID string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	for _, s := range f.snapshots[kind+"/"+experienceID] {
		_ = enc.Encode(s)
	}
}

// mergePatch applies a partitioned PATCH body: nested objects merge one
// level deep, everything else replaces.
func mergePatch(doc, body map[string]any) {
	for k, v := range body {
		nested, isObj := v.(map[string]any)
		existing, hasObj := doc[k].(map[string]any)
		if isObj && hasObj {
			for nk, nv := range nested {
				existing[nk] = nv
			}
			continue
		}
		doc[k] = v
	}
}
