package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/iudanet/ngsiadmin/internal/client/api"
	"github.com/iudanet/ngsiadmin/pkg/ngsi"
)

const testToken = "test-token"

// fakeBroker имитирует NGSI v2 брокер в памяти
type fakeBroker struct {
	entities []ngsi.Entity
	batches  []string // RequestURI каждого POST /op/update
	token    string
	service  string // последний полученный Fiware-Service
	mu       sync.Mutex
}

func newFakeBroker(t *testing.T, initial ...ngsi.Entity) (*fakeBroker, *httptest.Server) {
	t.Helper()
	b := &fakeBroker{token: testToken, entities: initial}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return b, server
}

func (b *fakeBroker) snapshot() []ngsi.Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ngsi.Entity(nil), b.entities...)
}

func (b *fakeBroker) writeError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ngsi.ErrorResponse{Error: code, Description: description})
}

func (b *fakeBroker) indexOf(id string) int {
	for i, e := range b.entities {
		if eid, _ := e.ID(); eid == id {
			return i
		}
	}
	return -1
}

func (b *fakeBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.Header.Get(api.HeaderAuthToken) != b.token {
		b.writeError(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
		return
	}
	b.service = r.Header.Get(api.HeaderService)

	path := strings.TrimPrefix(r.URL.Path, "/v2")
	switch {
	case r.Method == http.MethodGet && path == "/entities":
		b.list(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(path, "/entities/"):
		id := strings.TrimPrefix(path, "/entities/")
		idx := b.indexOf(id)
		if idx < 0 {
			b.writeError(w, http.StatusNotFound, "NotFound", "The requested entity has not been found. Check type and id")
			return
		}
		_ = json.NewEncoder(w).Encode(b.entities[idx])
	case r.Method == http.MethodPost && path == "/op/update":
		b.batches = append(b.batches, r.URL.RequestURI())
		b.batch(w, r)
	default:
		b.writeError(w, http.StatusBadRequest, "BadRequest", "unsupported request")
	}
}

func (b *fakeBroker) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit == 0 {
		limit = 20
	}

	var matched []ngsi.Entity
	for _, e := range b.entities {
		if typ := q.Get("type"); typ != "" {
			if et, _ := e.Type(); et != typ {
				continue
			}
		}
		matched = append(matched, e)
	}

	page := []ngsi.Entity{}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		page = matched[offset:end]
	}
	_ = json.NewEncoder(w).Encode(page)
}

func (b *fakeBroker) batch(w http.ResponseWriter, r *http.Request) {
	var op ngsi.BatchOperation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		b.writeError(w, http.StatusBadRequest, "ParseError", err.Error())
		return
	}

	switch op.ActionType {
	case ngsi.ActionAppendStrict:
		for _, e := range op.Entities {
			id, _ := e.ID()
			if b.indexOf(id) >= 0 {
				b.writeError(w, http.StatusUnprocessableEntity, "Unprocessable", "Already Exists")
				return
			}
		}
		b.entities = append(b.entities, op.Entities...)
	case ngsi.ActionUpdate:
		for _, e := range op.Entities {
			id, _ := e.ID()
			idx := b.indexOf(id)
			if idx < 0 {
				b.writeError(w, http.StatusNotFound, "NotFound", "No context element found")
				return
			}
			b.entities[idx].Merge(e)
		}
	case ngsi.ActionDelete:
		for _, e := range op.Entities {
			id, _ := e.ID()
			if idx := b.indexOf(id); idx >= 0 {
				b.entities = append(b.entities[:idx], b.entities[idx+1:]...)
			}
		}
	default:
		b.writeError(w, http.StatusBadRequest, "BadRequest", "invalid actionType")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
