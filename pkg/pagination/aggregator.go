package pagination

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/client"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/logging"
	"github.com/Sternrassler/registry-dashboard/pkg/query"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for aggregation runs.
var (
	registryPagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_pages_fetched_total",
		Help: "Total listing pages fetched by the aggregator",
	})

	registryAggregationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_aggregations_total",
		Help: "Total aggregation runs by outcome",
	}, []string{"outcome"}) // "complete", "exhausted", "error", "invalid"

	registryAggregationRecords = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "registry_aggregation_records",
		Help:    "Records returned per completed aggregation",
		Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
	})
)

// Config holds aggregator configuration.
type Config struct {
	// PageSize is the page-size ceiling; the last page may request fewer.
	// Must be between 1 and query.MaxPageSize.
	PageSize int
}

// DefaultConfig uses the upstream's maximum page size.
func DefaultConfig() Config {
	return Config{
		PageSize: query.MaxPageSize,
	}
}

// PageFetcher fetches a single listing page. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, cred auth.Credential, req query.PageRequest) (client.Page, error)
}

// Aggregator drives a PageFetcher sequentially until the requested count is
// reached or the upstream returns an empty page.
type Aggregator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates an aggregator. A zero PageSize means query.MaxPageSize.
func NewAggregator(fetcher PageFetcher, config Config) (*Aggregator, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("page fetcher is required")
	}
	if config.PageSize == 0 {
		config.PageSize = query.MaxPageSize
	}
	if config.PageSize < 1 || config.PageSize > query.MaxPageSize {
		return nil, fmt.Errorf("page size must be between 1 and %d (got %d)", query.MaxPageSize, config.PageSize)
	}

	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger(logging.ComponentAggregator),
	}, nil
}

// Records returns a lazy sequence of normalized records for filter. Pages
// are fetched only as the consumer advances; at most filter.Limit records
// are yielded. The sequence stops after the first empty page. A failing
// fetch yields its error once and ends the sequence. Every range over the
// sequence starts again from page 0.
func (a *Aggregator) Records(ctx context.Context, cred auth.Credential, filter query.Filter) iter.Seq2[company.Record, error] {
	filter = filter.Normalize()

	return func(yield func(company.Record, error) bool) {
		if err := filter.Validate(); err != nil {
			yield(company.Record{}, err)
			return
		}

		yielded := 0
		for page := 0; yielded < filter.Limit; page++ {
			size := min(a.config.PageSize, filter.Limit-yielded)

			result, err := a.fetcher.FetchPage(ctx, cred, filter.NewPageRequest(page, size))
			if err != nil {
				yield(company.Record{}, err)
				return
			}
			registryPagesFetchedTotal.Inc()

			if result.Empty() {
				return
			}

			for _, record := range company.NormalizeAll(result.Entities) {
				if yielded >= filter.Limit {
					return
				}
				if !yield(record, nil) {
					return
				}
				yielded++
			}
		}
	}
}

// Collect eagerly gathers up to filter.Limit records in fetch order.
// On any error no records are returned; a fetch error is returned
// unchanged, so errors.As finds *client.UpstreamError.
func (a *Aggregator) Collect(ctx context.Context, cred auth.Credential, filter query.Filter) ([]company.Record, error) {
	start := time.Now()
	filter = filter.Normalize()

	if err := filter.Validate(); err != nil {
		registryAggregationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	records := make([]company.Record, 0, min(filter.Limit, a.config.PageSize))
	for record, err := range a.Records(ctx, cred, filter) {
		if err != nil {
			registryAggregationsTotal.WithLabelValues("error").Inc()
			a.logger.Warn().
				Err(err).
				Str("country", filter.Country).
				Int("accumulated", len(records)).
				Msg("Aggregation aborted")
			return nil, err
		}
		records = append(records, record)
	}

	outcome := "complete"
	if len(records) < filter.Limit {
		outcome = "exhausted"
	}
	registryAggregationsTotal.WithLabelValues(outcome).Inc()
	registryAggregationRecords.Observe(float64(len(records)))

	a.logger.Info().
		Str("country", filter.Country).
		Str("from", filter.FromString()).
		Str("to", filter.ToString()).
		Int("requested", filter.Limit).
		Int("records", len(records)).
		Str("outcome", outcome).
		Dur("duration", time.Since(start)).
		Msg("Aggregation complete")

	return records, nil
}
