// Package pagination aggregates the registry's paged company listing into a
// bounded result set.
//
// The registry pages by zero-based index and signals exhaustion with an
// empty "content" array; it does not report a total. The aggregator walks
// pages strictly in order, one request at a time:
//
//	agg, err := pagination.NewAggregator(registryClient, pagination.DefaultConfig())
//	records, err := agg.Collect(ctx, cred, filter)
//
// Each page requests min(PageSize, remaining) items. A short but non-empty
// page does not end the walk; only an empty page or reaching filter.Limit
// does. Results keep fetch order and are truncated to filter.Limit.
//
// Callers that only need a prefix can range over Records instead, which
// fetches the next page only when the previous one has been consumed:
//
//	for record, err := range agg.Records(ctx, cred, filter) {
//		if err != nil {
//			return err
//		}
//		...
//	}
//
// Errors are never retried and abort the walk. Collect returns no partial
// results.
package pagination
