package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/registry-dashboard/pkg/auth"
	"github.com/Sternrassler/registry-dashboard/pkg/client"
	"github.com/Sternrassler/registry-dashboard/pkg/company"
	"github.com/Sternrassler/registry-dashboard/pkg/query"
)

// DefaultWindowDays is how far back the form's start date defaults to.
const DefaultWindowDays = 30

// search parses params and runs one aggregation. Nothing is fetched when
// the params are invalid.
func (s *Server) search(ctx context.Context, params query.Params) (query.Filter, []company.Record, error) {
	filter, err := query.Parse(params)
	if err != nil {
		return query.Filter{}, nil, err
	}

	cred, err := s.credentials.Credential(ctx)
	if err != nil {
		return filter, nil, err
	}

	records, err := s.collector.Collect(ctx, cred, filter)
	if err != nil {
		return filter, nil, err
	}
	return filter, records, nil
}

func paramsFromQuery(q url.Values) query.Params {
	return query.Params{
		Country: q.Get("country"),
		From:    q.Get("from"),
		To:      q.Get("to"),
		Limit:   q.Get("limit"),
	}
}

// errorStatus maps a search error to an HTTP status and a user-facing message.
func errorStatus(err error) (int, string) {
	var inputErr *query.InputError
	var authErr *auth.AuthError
	var upstreamErr *client.UpstreamError

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest, inputErr.Message
	case errors.As(err, &authErr):
		return http.StatusBadGateway, "Error: " + authErr.Error()
	case errors.As(err, &upstreamErr):
		return http.StatusBadGateway, "Error: " + upstreamErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Error: registry request timed out"
	default:
		return http.StatusInternalServerError, "Error: " + err.Error()
	}
}

func logSearchError(logger *zerolog.Logger, err error, status int) {
	event := logger.Warn()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		event = logger.Error()
	}
	event.Err(err).Int("status_code", status).Msg("Search failed")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{
		Form:      s.defaultForm(),
		MaxLimit:  query.MaxLimit,
		RequestID: RequestIDFromContext(r.Context()),
	}

	// The bare page only shows the form.
	if !q.Has("from") {
		s.render(w, r, http.StatusOK, data)
		return
	}

	params := paramsFromQuery(q)
	data.Form = formValues{Country: params.Country, From: params.From, To: params.To, Limit: params.Limit}
	data.Searched = true

	filter, records, err := s.search(r.Context(), params)
	if err != nil {
		status, msg := errorStatus(err)
		logSearchError(zerolog.Ctx(r.Context()), err, status)
		data.Error = msg
		s.render(w, r, status, data)
		return
	}

	company.SortByFoundingDateDesc(records)
	data.Records = records
	data.ExportURL = "/export.csv?" + exportQuery(filter).Encode()
	s.render(w, r, http.StatusOK, data)
}

// companiesResponse is the JSON body of /api/companies.
type companiesResponse struct {
	Country   string           `json:"country"`
	From      string           `json:"from"`
	To        string           `json:"to,omitempty"`
	Limit     int              `json:"limit"`
	Count     int              `json:"count"`
	Companies []company.Record `json:"companies"`
}

type errorResponse struct {
	Error          string `json:"error"`
	Field          string `json:"field,omitempty"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	RequestID      string `json:"request_id,omitempty"`
}

func (s *Server) handleAPICompanies(w http.ResponseWriter, r *http.Request) {
	filter, records, err := s.search(r.Context(), paramsFromQuery(r.URL.Query()))
	if err != nil {
		s.writeJSONError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, companiesResponse{
		Country:   filter.Country,
		From:      filter.FromString(),
		To:        filter.ToString(),
		Limit:     filter.Limit,
		Count:     len(records),
		Companies: records,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, records, err := s.search(r.Context(), paramsFromQuery(r.URL.Query()))
	if err != nil {
		status, msg := errorStatus(err)
		logSearchError(zerolog.Ctx(r.Context()), err, status)
		http.Error(w, msg, status)
		return
	}

	company.SortByFoundingDateDesc(records)
	filename := company.ExportFilename(filter.Country, filter.FromString(), filter.ToString())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := company.WriteCSV(w, records); err != nil {
		// Headers are already sent.
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to write CSV")
		return
	}
	zerolog.Ctx(r.Context()).Info().
		Str("filename", filename).
		Int("records", len(records)).
		Msg("CSV exported")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Redis not ready")
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"redis":  err.Error(),
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeJSONError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	logSearchError(zerolog.Ctx(r.Context()), err, status)

	body := errorResponse{Error: msg, RequestID: RequestIDFromContext(r.Context())}
	var inputErr *query.InputError
	if errors.As(err, &inputErr) {
		body.Field = inputErr.Field
	}
	var upstreamErr *client.UpstreamError
	if errors.As(err, &upstreamErr) {
		body.UpstreamStatus = upstreamErr.StatusCode
	}
	writeJSON(w, r, status, body)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already sent.
		zerolog.Ctx(r.Context()).Error().Err(err).Int("status_code", status).Msg("Failed to write JSON response")
	}
}

// exportQuery rebuilds the normalized filter as query parameters.
func exportQuery(f query.Filter) url.Values {
	v := url.Values{}
	v.Set("country", f.Country)
	v.Set("from", f.FromString())
	if to := f.ToString(); to != "" {
		v.Set("to", to)
	}
	v.Set("limit", strconv.Itoa(f.Limit))
	return v
}

func (s *Server) defaultForm() formValues {
	today := s.now()
	return formValues{
		Country: query.DefaultCountry,
		From:    today.AddDate(0, 0, -DefaultWindowDays).Format(query.DateLayout),
		To:      today.Format(query.DateLayout),
		Limit:   strconv.Itoa(query.DefaultLimit),
	}
}
