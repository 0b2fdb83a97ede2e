package pagination

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/Sternrassler/registry-dashboard/internal/testutil"
	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/client"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
)

// newRegistryAggregator wires an aggregator to mock through the real client.
func newRegistryAggregator(t *testing.T, mock *testutil.MockRegistry) *Aggregator {
	t.Helper()

	cfg := client.DefaultConfig(mock.URL(), "RegistryDashboard/test")
	cfg.HTTPClient = mock.Client()
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	agg, err := NewAggregator(c, DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return agg
}

func TestRegistry_ShortPageThenEmpty(t *testing.T) {
	mock := testutil.NewMockRegistry()
	defer mock.Close()
	mock.SetCompanies(testutil.GenerateCompanies(230))

	agg := newRegistryAggregator(t, mock)
	records, err := agg.Collect(context.Background(), auth.Token(mock.IssuedToken), testFilter(250))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(records) != 230 {
		t.Errorf("len(records) = %d, want 230", len(records))
	}

	calls := mock.Calls()
	wantSizes := []int{100, 100, 50, 20}
	if len(calls) != len(wantSizes) {
		t.Fatalf("calls = %d, want %d", len(calls), len(wantSizes))
	}
	for i, call := range calls {
		if call.Page != i || call.Size != wantSizes[i] {
			t.Errorf("call %d = page %d size %d, want page %d size %d", i, call.Page, call.Size, i, wantSizes[i])
		}
		if call.Query.Get("foundingDateFrom") != "2024-01-01" {
			t.Errorf("call %d foundingDateFrom = %q", i, call.Query.Get("foundingDateFrom"))
		}
	}

	for i, r := range records {
		if want := fmt.Sprintf("Company %d", i); company.Value(r.Name) != want {
			t.Fatalf("records[%d] = %q, want %q", i, company.Value(r.Name), want)
		}
	}
}

func TestRegistry_SinglePage(t *testing.T) {
	mock := testutil.NewMockRegistry()
	defer mock.Close()
	mock.SetCompanies(testutil.GenerateCompanies(1000))

	agg := newRegistryAggregator(t, mock)
	records, err := agg.Collect(context.Background(), auth.Token(mock.IssuedToken), testFilter(50))
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(records) != 50 {
		t.Errorf("len(records) = %d, want 50", len(records))
	}
	if n := len(mock.Calls()); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestRegistry_ServerErrorOnSecondPage(t *testing.T) {
	mock := testutil.NewMockRegistry()
	defer mock.Close()
	mock.SetCompanies(testutil.GenerateCompanies(1000))
	mock.SetPageResponse(1, testutil.NewServerErrorResponse())

	agg := newRegistryAggregator(t, mock)
	records, err := agg.Collect(context.Background(), auth.Token(mock.IssuedToken), testFilter(300))
	if records != nil {
		t.Errorf("got %d records, want none", len(records))
	}

	var upstreamErr *client.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("error = %v, want *client.UpstreamError", err)
	}
	if upstreamErr.StatusCode != http.StatusInternalServerError || upstreamErr.Page != 1 {
		t.Errorf("upstream error = status %d page %d, want 500 on page 1", upstreamErr.StatusCode, upstreamErr.Page)
	}
	if n := len(mock.Calls()); n != 2 {
		t.Errorf("calls = %d, want 2 (no retry)", n)
	}
}

func TestRegistry_RejectedTokenRefreshedForNextRun(t *testing.T) {
	mock := testutil.NewMockRegistry()
	defer mock.Close()
	mock.SetCompanies(testutil.GenerateCompanies(10))
	mock.RequiredToken = "Bearer t2"

	var issued atomic.Int32
	mock.SetHandler(testutil.PathAuthenticate, func(w http.ResponseWriter, r *http.Request) {
		n := issued.Add(1)
		w.Header().Set("Authorization", fmt.Sprintf("Bearer t%d", n))
		w.WriteHeader(http.StatusOK)
	})

	authenticator, err := auth.NewAuthenticator(auth.Config{
		BaseURL:    mock.URL(),
		Username:   mock.Username,
		Password:   mock.Password,
		HTTPClient: mock.Client(),
	})
	if err != nil {
		t.Fatalf("NewAuthenticator: %v", err)
	}
	source := auth.NewSource(authenticator, nil, auth.DefaultTokenTTL)
	agg := newRegistryAggregator(t, mock)
	ctx := context.Background()

	cred, err := source.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	_, err = agg.Collect(ctx, cred, testFilter(10))

	var upstreamErr *client.UpstreamError
	if !errors.As(err, &upstreamErr) || !upstreamErr.IsUnauthorized() {
		t.Fatalf("first run error = %v, want 401 UpstreamError", err)
	}

	cred, err = source.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	records, err := agg.Collect(ctx, cred, testFilter(10))
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if len(records) != 10 {
		t.Errorf("len(records) = %d, want 10", len(records))
	}
	if got := issued.Load(); got != 2 {
		t.Errorf("handshakes = %d, want 2", got)
	}
}
