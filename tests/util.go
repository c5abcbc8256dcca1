package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/services/logger"
)

// Logger returns a logger that reports nowhere.
func Logger() core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), &core.Config{Env: "TEST"})
	l.Enable(false)
	return l
}

// Request is a call received by the FakeBackend.
type Request struct {
	Method string
	Path   string
	Auth   string
	JSON   map[string]interface{}
	Form   map[string]string
	Files  map[string]string // form field -> filename
}

type failure struct {
	status int
	body   string
	times  int
}

// FakeBackend is an in-memory tutoring backend served over httptest.
type FakeBackend struct {
	*httptest.Server

	// ListShape selects the list envelope: "bare", "data", "entities" or "plural".
	ListShape string

	mu       sync.Mutex
	requests []Request
	entities map[string]map[string]map[string]interface{}
	failures map[string]*failure
	seq      int
}

func NewFakeBackend(t *testing.T) *FakeBackend {
	b := &FakeBackend{
		ListShape: "data",
		entities:  make(map[string]map[string]map[string]interface{}),
		failures:  make(map[string]*failure),
	}
	b.Server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.Server.Close)
	return b
}

// Config points a backend client at b, with fast retries.
func (b *FakeBackend) Config() core.BackendConfig {
	return core.BackendConfig{
		BaseURL:          b.URL,
		Token:            "service-token",
		Timeout:          5 * time.Second,
		RetryMax:         2,
		RetryBaseDelay:   time.Millisecond,
		RetryMaxDelay:    5 * time.Millisecond,
		ListCacheTTL:     time.Minute,
		BreakerThreshold: 0,
	}
}

// Fail makes the next `times` calls of method on path answer status with body.
func (b *FakeBackend) Fail(method, path string, status int, body string, times int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = &failure{status: status, body: body, times: times}
}

// Seed stores an entity and returns its id.
func (b *FakeBackend) Seed(resource string, entity map[string]interface{}) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store(resource, "", entity)
}

func (b *FakeBackend) Entity(resource, id string) map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.entities[resource][id]
}

func (b *FakeBackend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request{}, b.requests...)
}

// Count returns the number of calls of method on paths starting with prefix.
func (b *FakeBackend) Count(method, prefix string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// store must be called with mu held.
func (b *FakeBackend) store(resource, id string, entity map[string]interface{}) string {
	if id == "" {
		b.seq++
		id = fmt.Sprintf("%024x", b.seq)
	}
	if b.entities[resource] == nil {
		b.entities[resource] = make(map[string]map[string]interface{})
	}
	entity["_id"] = id
	b.entities[resource][id] = entity
	return id
}

func (b *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(32 << 20); err == nil {
			req.Form = make(map[string]string)
			req.Files = make(map[string]string)
			for k, v := range r.MultipartForm.Value {
				req.Form[k] = v[0]
			}
			for k, v := range r.MultipartForm.File {
				req.Files[k] = v[0].Filename
			}
		}
	} else if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req.JSON)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)

	if f, ok := b.failures[r.Method+" "+r.URL.Path]; ok && f.times > 0 {
		f.times--
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, f.body)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload/image":
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"imageUrl": "https://cdn.test/" + req.Form["folder"] + "/" + req.Files["image"],
		})
	case r.Method == http.MethodPost && r.URL.Path == "/upload/pdf":
		writeJSON(w, http.StatusOK, map[string]interface{}{"fileUrl": "https://cdn.test/pdf/" + req.Files["pdf"], "resourceType": "raw"})
	case r.Method == http.MethodPost && len(parts) == 3 && parts[2] == "intro-video":
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"introVideo": "https://player.test/" + parts[1]}})
	case r.Method == http.MethodPost && len(parts) == 3 && parts[0] == "queries" && parts[2] == "answer":
		entity, ok := b.entities["queries"][parts[1]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Query not found"})
			return
		}
		entity["answer"] = req.JSON["answer"]
		entity["status"] = "answered"
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": entity})
	case r.Method == http.MethodPost && len(parts) == 1:
		entity := req.JSON
		if entity == nil {
			entity = map[string]interface{}{}
		}
		b.store(parts[0], "", entity)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": entity})
	case r.Method == http.MethodPut && len(parts) == 2:
		entity, ok := b.entities[parts[0]][parts[1]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Not found"})
			return
		}
		for k, v := range req.JSON {
			entity[k] = v
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"entity": entity})
	case r.Method == http.MethodGet && len(parts) == 3 && parts[1] == "educator":
		b.list(w, r, parts[0], parts[2])
	case r.Method == http.MethodGet && len(parts) == 2:
		entity, ok := b.entities[parts[0]][parts[1]]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": entity})
	case r.Method == http.MethodDelete && len(parts) == 2:
		if _, ok := b.entities[parts[0]][parts[1]]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Not found"})
			return
		}
		delete(b.entities[parts[0]], parts[1])
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	default:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"message": "Route not found"})
	}
}

func (b *FakeBackend) list(w http.ResponseWriter, r *http.Request, resource, owner string) {
	items := make([]map[string]interface{}, 0)
	for _, e := range b.entities[resource] {
		if e["educatorId"] == owner {
			items = append(items, e)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i]["_id"].(string) < items[j]["_id"].(string) })

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	total := len(items)
	if page > 0 && limit > 0 {
		start := (page - 1) * limit
		if start > len(items) {
			start = len(items)
		}
		end := start + limit
		if end > len(items) {
			end = len(items)
		}
		items = items[start:end]
	}

	switch b.ListShape {
	case "bare":
		writeJSON(w, http.StatusOK, items)
	case "entities":
		writeJSON(w, http.StatusOK, map[string]interface{}{"entities": items, "total": total})
	case "plural":
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, strings.ReplaceAll(resource, "-", ""): items})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": items, "pagination": map[string]interface{}{"total": total}})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
