// Package testutil provides a configurable mock company registry for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Paths served by MockRegistry.
const (
	PathAuthenticate = "/authenticate"
	PathCompanies    = "/companies"
)

// DefaultPageStride matches the registry's page-size ceiling.
const DefaultPageStride = 100

// MockResponse defines a canned response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// PageCall records one request to the listing endpoint.
type PageCall struct {
	Query         url.Values
	Page          int
	Size          int
	Authorization string
}

// MockRegistry is an httptest server emulating the registry's authenticate
// and paged companies endpoints.
type MockRegistry struct {
	server *httptest.Server

	mu        sync.RWMutex
	companies []map[string]any
	overrides map[int]MockResponse // page index -> canned response
	handlers  map[string]http.HandlerFunc
	calls     []PageCall
	authCount int

	// Username and Password accepted by /authenticate.
	Username string
	Password string

	// IssuedToken is returned in the Authorization header on successful auth.
	IssuedToken string

	// PageStride is the offset step between page indexes. The last page of
	// an aggregation requests fewer items than the ceiling but still starts
	// at page*ceiling. Zero means page*size.
	PageStride int

	// RequiredToken, when non-empty, is the only Authorization value the
	// companies endpoint accepts; anything else gets 401.
	RequiredToken string
}

// NewMockRegistry starts a mock registry holding no companies.
func NewMockRegistry() *MockRegistry {
	m := &MockRegistry{
		overrides:   make(map[int]MockResponse),
		handlers:    make(map[string]http.HandlerFunc),
		Username:    "user",
		Password:    "secret",
		IssuedToken: "Bearer test-token",
		PageStride:  DefaultPageStride,
	}

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		handler, exists := m.handlers[r.URL.Path]
		m.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		switch r.URL.Path {
		case PathAuthenticate:
			m.handleAuthenticate(w, r)
		case PathCompanies:
			m.handleCompanies(w, r)
		default:
			http.NotFound(w, r)
		}
	}))

	return m
}

// URL returns the mock server base URL.
func (m *MockRegistry) URL() string {
	return m.server.URL
}

// Client returns an HTTP client wired to the mock server.
func (m *MockRegistry) Client() *http.Client {
	return m.server.Client()
}

// Close shuts down the mock server.
func (m *MockRegistry) Close() {
	m.server.Close()
}

// SetCompanies replaces the dataset served by the listing endpoint.
func (m *MockRegistry) SetCompanies(companies []map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies = companies
}

// SetPageResponse makes the listing endpoint answer page with resp.
func (m *MockRegistry) SetPageResponse(page int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[page] = resp
}

// SetHandler replaces the handler for a path.
func (m *MockRegistry) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// Calls returns the listing requests received so far.
func (m *MockRegistry) Calls() []PageCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PageCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// AuthCount returns the number of authenticate requests received.
func (m *MockRegistry) AuthCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authCount
}

// Reset clears recorded calls.
func (m *MockRegistry) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.authCount = 0
}

func (m *MockRegistry) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.authCount++
	m.mu.Unlock()

	user, pass, ok := r.BasicAuth()
	if !ok || user != m.Username || pass != m.Password {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "bad credentials"}`))
		return
	}

	w.Header().Set("Authorization", m.IssuedToken)
	w.WriteHeader(http.StatusOK)
}

func (m *MockRegistry) handleCompanies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))

	m.mu.Lock()
	m.calls = append(m.calls, PageCall{
		Query:         q,
		Page:          page,
		Size:          size,
		Authorization: r.Header.Get("Authorization"),
	})
	override, hasOverride := m.overrides[page]
	required := m.RequiredToken
	stride := m.PageStride
	m.mu.Unlock()

	if required != "" && r.Header.Get("Authorization") != required {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}

	if hasOverride {
		writeMockResponse(w, override)
		return
	}

	m.mu.RLock()
	content := PageOf(m.companies, page, size, stride)
	m.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"content": content})
}

func writeMockResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// PageOf returns up to size items starting at page*stride (page*size when
// stride is 0). Out-of-range pages are empty, never nil.
func PageOf(items []map[string]any, page, size, stride int) []map[string]any {
	if size <= 0 || page < 0 {
		return []map[string]any{}
	}
	if stride <= 0 {
		stride = size
	}
	start := page * stride
	if start >= len(items) {
		return []map[string]any{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// GenerateCompanies builds n deterministic companies founded on consecutive
// days going backwards from 2024-12-31.
func GenerateCompanies(n int) []map[string]any {
	base := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	out := make([]map[string]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{
			"id":                         fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			"name":                       fmt.Sprintf("Company %d", i),
			"city":                       "Berlin",
			"foundingDate":               base.AddDate(0, 0, -i).Format("2006-01-02"),
			"status":                     "ACTIVE",
			"officialRegistrationNumber": fmt.Sprintf("HRB %d", 10000+i),
		})
	}
	return out
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// NewEmptyPageResponse creates a 200 response with an empty content array.
func NewEmptyPageResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"content": []}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}
