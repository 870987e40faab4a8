package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/transport"
)

// LibraryServer is a mock remote library API for integration tests. It
// serves the item collection, child attachments, and file downloads,
// honoring since-version filtering and pagination.
type LibraryServer struct {
	*httptest.Server

	mu       sync.RWMutex
	apiKey   string
	version  int
	records  []models.RemoteRecord
	children map[string][]models.RemoteRecord
	files    map[string][]byte

	// RequestCount tracks item collection requests served.
	RequestCount int
}

// NewLibraryServer creates a mock remote library accepting the given key.
func NewLibraryServer(apiKey string) *LibraryServer {
	ls := &LibraryServer{
		apiKey:   apiKey,
		children: make(map[string][]models.RemoteRecord),
		files:    make(map[string][]byte),
	}
	ls.Server = httptest.NewServer(http.HandlerFunc(ls.handle))
	return ls
}

// AddRecord registers a top-level record at the given library version.
func (ls *LibraryServer) AddRecord(rec models.RemoteRecord) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.records = append(ls.records, rec)
	if rec.Version > ls.version {
		ls.version = rec.Version
	}
}

// AddAttachment registers a child attachment record and its file bytes.
func (ls *LibraryServer) AddAttachment(parentKey string, rec models.RemoteRecord, data []byte) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	ls.children[parentKey] = append(ls.children[parentKey], rec)
	ls.files[rec.Key] = data
}

func (ls *LibraryServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(transport.HeaderAPIKey) != ls.apiKey {
		http.Error(w, `{"error":"invalid key"}`, http.StatusForbidden)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	// Expected shapes:
	//   users/{id}/items
	//   users/{id}/items/top
	//   users/{id}/items/{key}/children
	//   users/{id}/items/{key}/file
	if len(parts) < 3 || parts[0] != "users" || parts[2] != "items" {
		http.NotFound(w, r)
		return
	}

	switch {
	case len(parts) == 3 || (len(parts) == 4 && parts[3] == "top"):
		ls.serveItems(w, r)
	case len(parts) == 5 && parts[4] == "children":
		ls.serveChildren(w, parts[3])
	case len(parts) == 5 && parts[4] == "file":
		ls.serveFile(w, r, parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (ls *LibraryServer) serveItems(w http.ResponseWriter, r *http.Request) {
	ls.mu.Lock()
	ls.RequestCount++
	ls.mu.Unlock()

	ls.mu.RLock()
	defer ls.mu.RUnlock()

	since, _ := strconv.Atoi(r.URL.Query().Get("since"))
	start, _ := strconv.Atoi(r.URL.Query().Get("start"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 25
	}

	var matched []models.RemoteRecord
	for _, rec := range ls.records {
		if rec.Version > since {
			matched = append(matched, rec)
		}
	}

	page := matched
	if start < len(page) {
		page = page[start:]
	} else {
		page = nil
	}
	if len(page) > limit {
		page = page[:limit]
	}
	if page == nil {
		page = []models.RemoteRecord{}
	}

	w.Header().Set(transport.HeaderLibraryVer, strconv.Itoa(ls.version))
	w.Header().Set(transport.HeaderTotalResults, strconv.Itoa(len(matched)))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (ls *LibraryServer) serveChildren(w http.ResponseWriter, parentKey string) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	children := ls.children[parentKey]
	if children == nil {
		children = []models.RemoteRecord{}
	}

	w.Header().Set(transport.HeaderLibraryVer, strconv.Itoa(ls.version))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(children)
}

func (ls *LibraryServer) serveFile(w http.ResponseWriter, r *http.Request, key string) {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	data, ok := ls.files[key]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(data)
}
