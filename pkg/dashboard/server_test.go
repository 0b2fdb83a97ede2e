package dashboard

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/registry-dashboard/internal/testutil"
	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/client"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/pagination"
)

var fixedNow = time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	mock   *testutil.MockRegistry
	server *Server
}

// newTestEnv wires a server to a mock registry through the real client and
// aggregator.
func newTestEnv(t *testing.T, companies int, cfg Config) *testEnv {
	t.Helper()

	mock := testutil.NewMockRegistry()
	t.Cleanup(mock.Close)
	mock.SetCompanies(testutil.GenerateCompanies(companies))

	clientCfg := client.DefaultConfig(mock.URL(), "RegistryDashboard/test")
	clientCfg.HTTPClient = mock.Client()
	registryClient, err := client.New(clientCfg)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	agg, err := pagination.NewAggregator(registryClient, pagination.DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}

	cfg.Collector = agg
	if cfg.Credentials == nil {
		cfg.Credentials = auth.Token("Bearer test-token")
	}
	cfg.Now = func() time.Time { return fixedNow }

	srv, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return &testEnv{mock: mock, server: srv}
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewServer_Validation(t *testing.T) {
	if _, err := NewServer(Config{Credentials: auth.Token("t")}); err == nil {
		t.Error("missing collector should fail")
	}

	agg, _ := pagination.NewAggregator(&client.Client{}, pagination.DefaultConfig())
	if _, err := NewServer(Config{Collector: agg}); err == nil {
		t.Error("missing credential provider should fail")
	}
}

func TestIndex_DefaultForm(t *testing.T) {
	env := newTestEnv(t, 10, Config{})

	rec := env.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`name="from" value="2025-03-01"`,
		`name="to" value="2025-03-31"`,
		`name="limit" min="1" max="1000" value="100"`,
		`name="country" value="DE"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if len(env.mock.Calls()) != 0 {
		t.Errorf("bare page should not query the registry, got %d calls", len(env.mock.Calls()))
	}
}

func TestIndex_Search(t *testing.T) {
	env := newTestEnv(t, 5, Config{})

	rec := env.get("/?from=2024-01-01&to=2024-12-31&limit=10&country=de")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{"Found 5 companies", "Company 0", "Company 4", "HRB 10000", "/export.csv?country=DE"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	calls := env.mock.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2 (data page then empty page)", len(calls))
	}
	if got := calls[0].Query.Get("countryCode"); got != "DE" {
		t.Errorf("countryCode = %q, want DE", got)
	}
}

func TestIndex_NoResults(t *testing.T) {
	env := newTestEnv(t, 0, Config{})

	rec := env.get("/?from=2024-01-01&to=2024-12-31&limit=10&country=DE")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No companies found for the selected date range.") {
		t.Error("expected empty-result warning")
	}
}

func TestIndex_InvalidRange(t *testing.T) {
	env := newTestEnv(t, 5, Config{})

	rec := env.get("/?from=2024-02-01&to=2024-01-01&limit=10&country=DE")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Start date must be on or before End date.") {
		t.Error("expected range error message")
	}
	if len(env.mock.Calls()) != 0 {
		t.Errorf("invalid input must not reach the registry, got %d calls", len(env.mock.Calls()))
	}
}

func TestAPICompanies(t *testing.T) {
	env := newTestEnv(t, 230, Config{})

	rec := env.get("/api/companies?from=2024-01-01&limit=250")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp companiesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 230 || len(resp.Companies) != 230 {
		t.Errorf("count = %d (%d companies), want 230", resp.Count, len(resp.Companies))
	}
	if resp.Country != "DE" || resp.From != "2024-01-01" || resp.To != "" {
		t.Errorf("echoed filter = %s/%s/%q", resp.Country, resp.From, resp.To)
	}
	if got := company.Value(resp.Companies[229].Name); got != "Company 229" {
		t.Errorf("last record = %q, want fetch order", got)
	}

	var sizes []int
	for _, c := range env.mock.Calls() {
		sizes = append(sizes, c.Size)
		if _, ok := c.Query["foundingDateTo"]; ok {
			t.Error("foundingDateTo should be omitted when no end date is given")
		}
	}
	if want := []int{100, 100, 50, 20}; !equalInts(sizes, want) {
		t.Errorf("requested sizes = %v, want %v", sizes, want)
	}
}

func TestAPICompanies_Errors(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setup          func(env *testEnv)
		credentials    auth.Provider
		wantStatus     int
		wantField      string
		wantUpstream   int
		wantNoRequests bool
	}{
		{
			name:           "missing start date",
			target:         "/api/companies?limit=10",
			wantStatus:     http.StatusBadRequest,
			wantField:      "from",
			wantNoRequests: true,
		},
		{
			name:           "limit out of range",
			target:         "/api/companies?from=2024-01-01&limit=5000",
			wantStatus:     http.StatusBadRequest,
			wantField:      "limit",
			wantNoRequests: true,
		},
		{
			name:   "server error on second page",
			target: "/api/companies?from=2024-01-01&limit=300",
			setup: func(env *testEnv) {
				env.mock.SetPageResponse(1, testutil.NewServerErrorResponse())
			},
			wantStatus:   http.StatusBadGateway,
			wantUpstream: http.StatusInternalServerError,
		},
		{
			name:           "no credential",
			target:         "/api/companies?from=2024-01-01&limit=10",
			credentials:    auth.Token(""),
			wantStatus:     http.StatusBadGateway,
			wantNoRequests: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 1000, Config{Credentials: tt.credentials})
			if tt.setup != nil {
				tt.setup(env)
			}

			rec := env.get(tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error == "" {
				t.Error("error message should not be empty")
			}
			if resp.Field != tt.wantField {
				t.Errorf("field = %q, want %q", resp.Field, tt.wantField)
			}
			if resp.UpstreamStatus != tt.wantUpstream {
				t.Errorf("upstream_status = %d, want %d", resp.UpstreamStatus, tt.wantUpstream)
			}
			if resp.RequestID == "" {
				t.Error("request_id should be set")
			}
			if tt.wantNoRequests && len(env.mock.Calls()) != 0 {
				t.Errorf("calls = %d, want none", len(env.mock.Calls()))
			}
		})
	}
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, 3, Config{})

	rec := env.get("/export.csv?from=2024-01-01&to=2024-12-31&limit=10&country=at")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	wantDisposition := `attachment; filename="recent_companies_AT_2024-01-01_2024-12-31.csv"`
	if got := rec.Header().Get("Content-Disposition"); got != wantDisposition {
		t.Errorf("Content-Disposition = %q, want %q", got, wantDisposition)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != "Name,City,Founding Date,Status,Registration Number,UUID" {
		t.Errorf("header = %v", rows[0])
	}
	// Newest founding date first.
	if rows[1][2] != "2024-12-31" || rows[3][2] != "2024-12-29" {
		t.Errorf("founding dates = %s..%s, want descending", rows[1][2], rows[3][2])
	}
}

func TestExport_UpstreamError(t *testing.T) {
	env := newTestEnv(t, 10, Config{})
	env.mock.SetPageResponse(0, testutil.MockResponse{StatusCode: http.StatusForbidden, Body: "nope"})

	rec := env.get("/export.csv?from=2024-01-01&limit=10")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("failed export must not be offered as a download")
	}
	if !strings.Contains(rec.Body.String(), "403 - nope") {
		t.Errorf("body = %q, want upstream status and body", rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, 0, Config{})

	rec := env.get("/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
}

func TestReady(t *testing.T) {
	t.Run("without redis", func(t *testing.T) {
		env := newTestEnv(t, 0, Config{})
		if rec := env.get("/ready"); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("unreachable redis", func(t *testing.T) {
		rdb := redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 200 * time.Millisecond,
			MaxRetries:  -1,
		})
		defer rdb.Close()

		env := newTestEnv(t, 0, Config{Redis: rdb})
		if rec := env.get("/ready"); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t, 0, Config{})

	rec := env.get("/health")
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Errorf("generated request ID %q is not a UUID", rec.Header().Get(HeaderRequestID))
	}

	supplied := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, supplied)
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got != supplied {
		t.Errorf("request ID = %q, want caller's %q", got, supplied)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "not-a-uuid")
	rec = httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(HeaderRequestID); got == "not-a-uuid" {
		t.Error("malformed request ID should be replaced")
	}
}

func TestMetricsRoute(t *testing.T) {
	env := newTestEnv(t, 0, Config{})
	env.get("/health")

	rec := env.get("/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `dashboard_http_requests_total{route="/health",status="200"}`) {
		t.Error("scrape should include dashboard request counter")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
