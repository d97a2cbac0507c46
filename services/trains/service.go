// Package trains orchestrates availability searches: it validates the
// query, drives one of the two fetch strategies, archives whatever came
// back and runs the parser over it.
package trains

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"renfe-backend/lib/archive"
	"renfe-backend/lib/scrapers/renfe"
)

var tracer = otel.Tracer("services/trains")

const (
	directSuffix = "buscarTren.do.log"
	flowSuffix   = "buscarTrenFlow.do.log"

	minAdults = 1
	maxAdults = 8
)

// ResultsFetcher produces a raw results page for a query. The renfe
// Client is the production implementation.
type ResultsFetcher interface {
	Search(ctx context.Context, query renfe.SearchQuery) (renfe.SearchResult, error)
}

// FlowRunner drives the homepage UI end to end and returns the final
// page's HTML. A non-empty page alongside an error means the flow broke
// partway, the page is still worth archiving.
type FlowRunner interface {
	Run(ctx context.Context, query renfe.SearchQuery) (string, error)
}

// ValidationError marks a query the caller can fix, as opposed to an
// upstream failure.
type ValidationError struct {
	message string
}

func (e ValidationError) Error() string {
	return e.message
}

func NewValidationError(message string) ValidationError {
	return ValidationError{message: message}
}

func invalidf(format string, args ...any) error {
	return ValidationError{message: fmt.Sprintf(format, args...)}
}

type Service struct {
	fetcher ResultsFetcher
	flow    FlowRunner
	archive *archive.Store
}

func NewService(fetcher ResultsFetcher, flow FlowRunner, store *archive.Store) Service {
	return Service{fetcher: fetcher, flow: flow, archive: store}
}

func validateQuery(query renfe.SearchQuery) error {
	if query.Origin == "" {
		return invalidf("origin is required")
	}
	if query.Destination == "" {
		return invalidf("destination is required")
	}
	if _, err := time.Parse("2006-01-02", query.DateOut); err != nil {
		return invalidf("date_out must be YYYY-MM-DD, got %q", query.DateOut)
	}
	if query.DateReturn != "" {
		if _, err := time.Parse("2006-01-02", query.DateReturn); err != nil {
			return invalidf("date_return must be YYYY-MM-DD, got %q", query.DateReturn)
		}
	}
	if query.Adults < minAdults || query.Adults > maxAdults {
		return invalidf("adults must be between %d and %d, got %d", minAdults, maxAdults, query.Adults)
	}
	return nil
}

// SearchResult is a parsed availability search. ReturnTrains is nil for
// one-way queries and empty when the page carried no return leg.
type SearchResult struct {
	Trains       []renfe.Train `json:"trains"`
	ReturnTrains []renfe.Train `json:"return_trains,omitempty"`
}

// SearchDirect fetches results through the POST endpoint, archives the
// page and parses it. Parsing is best-effort: an upstream page with no
// recognizable trains yields an empty list, not an error.
func (s Service) SearchDirect(ctx context.Context, query renfe.SearchQuery) (SearchResult, error) {
	ctx, span := tracer.Start(ctx, "SearchDirect")
	defer span.End()

	err := validateQuery(query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid query")
		return SearchResult{}, err
	}

	page, err := s.fetcher.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return SearchResult{}, fmt.Errorf("failed to fetch results page: %w", err)
	}

	s.archiveHTML(ctx, page.HTML, page.StatusCode, directSuffix)

	trains := renfe.ParseTrainList(ctx, page.HTML)
	span.SetAttributes(attribute.Int("trains", len(trains)))
	s.archiveJSON(ctx, trains, page.StatusCode, directSuffix)

	result := SearchResult{Trains: trains}
	if query.DateReturn != "" {
		result.ReturnTrains = renfe.ParseReturnTrainList(ctx, page.HTML)
		span.SetAttributes(attribute.Int("return_trains", len(result.ReturnTrains)))
	}
	return result, nil
}

// FlowResult reports a completed UI flow. Filepath points at the
// archived HTML so operators can inspect what the browser ended up on.
type FlowResult struct {
	Message  string        `json:"message"`
	Filepath string        `json:"filepath"`
	Trains   []renfe.Train `json:"trains"`
}

// SearchFlow runs the homepage UI flow. Pages captured from a failed
// flow are archived under status 500 before the error is returned.
func (s Service) SearchFlow(ctx context.Context, query renfe.SearchQuery) (FlowResult, error) {
	ctx, span := tracer.Start(ctx, "SearchFlow")
	defer span.End()

	err := validateQuery(query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid query")
		return FlowResult{}, err
	}

	html, runErr := s.flow.Run(ctx, query)
	status := 200
	if runErr != nil {
		status = 500
	}

	var archivedPath string
	var trains []renfe.Train
	if html != "" {
		archivedPath = s.archiveHTML(ctx, html, status, flowSuffix)
		trains = renfe.ParseTrainList(ctx, html)
		s.archiveJSON(ctx, trains, status, flowSuffix)
	}

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, "flow failed")
		return FlowResult{Filepath: archivedPath}, fmt.Errorf("homepage flow failed: %w", runErr)
	}

	span.SetAttributes(attribute.Int("trains", len(trains)))
	return FlowResult{
		Message:  fmt.Sprintf("flow completed, %d trains found", len(trains)),
		Filepath: archivedPath,
		Trains:   trains,
	}, nil
}

// ListResponses exposes the archive index, newest first.
func (s Service) ListResponses(ctx context.Context, limit int) ([]archive.Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.archive.ListRecent(ctx, limit)
}

// archival must never fail a search, the parsed result is still usable
// without it

func (s Service) archiveHTML(ctx context.Context, html string, status int, suffix string) string {
	path, err := s.archive.SaveHTML(ctx, html, status, suffix)
	if err != nil {
		slog.ErrorContext(ctx, "failed to archive response html", "suffix", suffix, "err", err)
		return ""
	}
	return path
}

func (s Service) archiveJSON(ctx context.Context, trains []renfe.Train, status int, suffix string) {
	_, err := s.archive.SaveJSON(ctx, trains, status, suffix)
	if err != nil {
		slog.ErrorContext(ctx, "failed to archive parsed trains", "suffix", suffix, "err", err)
	}
}
