package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"plapulse/internal/config"
	"plapulse/internal/dataset"
	"plapulse/internal/exporter"
	"plapulse/internal/infrastructure"
)

// TextFetcher is the capability the service needs from the I/O
// collaborator: resolve a source identifier to raw text. The engine is
// agnostic to how text arrives (local file, HTTP).
type TextFetcher interface {
	FetchText(ctx context.Context, identifier string) (string, error)
}

// DataService orchestrates dataset loading, querying and export on top of
// the engine. It also enforces the last-write-wins query policy: a query
// superseded by a newer one for the same kind has its result discarded.
type DataService struct {
	engine  *dataset.Engine
	fetcher TextFetcher
	sources map[dataset.Kind]string
	metrics *infrastructure.Metrics
	logger  *slog.Logger

	ticketMu sync.Mutex
	tickets  map[dataset.Kind]uint64
}

// NewDataService creates a data service wired to the configured dataset
// sources.
func NewDataService(cfg *config.Config, fetcher TextFetcher, metrics *infrastructure.Metrics, logger *slog.Logger) (*DataService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sources := make(map[dataset.Kind]string, len(dataset.Kinds()))
	for _, kind := range dataset.Kinds() {
		source, ok := cfg.Datasets.Source(string(kind))
		if !ok || source == "" {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSource, kind)
		}
		sources[kind] = source
	}

	return &DataService{
		engine:  dataset.NewEngine(logger),
		fetcher: fetcher,
		sources: sources,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "data_service")),
		tickets: make(map[dataset.Kind]uint64),
	}, nil
}

// LoadDataset fetches a kind's source and replaces its table wholesale.
// Row-level problems come back as diagnostics; only an unreadable source
// is an error.
func (s *DataService) LoadDataset(ctx context.Context, kind dataset.Kind) (dataset.Diagnostics, error) {
	source, ok := s.sources[kind]
	if !ok {
		return dataset.Diagnostics{}, fmt.Errorf("%w: %s", dataset.ErrUnknownKind, kind)
	}

	s.logger.InfoContext(ctx, "loading dataset",
		slog.String("kind", string(kind)),
		slog.String("source", source))

	text, err := s.fetcher.FetchText(ctx, source)
	if err != nil {
		s.countLoad(kind, "error")
		return dataset.Diagnostics{}, err
	}

	diags, err := s.engine.Load(ctx, kind, text)
	if err != nil {
		s.countLoad(kind, "error")
		return dataset.Diagnostics{}, err
	}

	s.countLoad(kind, "ok")
	if s.metrics != nil {
		s.metrics.RowsDropped.WithLabelValues(string(kind)).Add(float64(diags.RowsDropped))
	}
	return diags, nil
}

// LoadAll loads every dataset kind concurrently. The first hard failure
// cancels the remaining loads.
func (s *DataService) LoadAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range dataset.Kinds() {
		kind := kind
		g.Go(func() error {
			_, err := s.LoadDataset(ctx, kind)
			return err
		})
	}
	return g.Wait()
}

// Query runs a date-bounded query. If a newer query for the same kind is
// issued before this one delivers, the stale result is discarded and
// ErrQuerySuperseded returned; the caller simply drops it.
func (s *DataService) Query(ctx context.Context, kind dataset.Kind, from, to dataset.Date) (dataset.QueryResult, error) {
	ticket := s.issueTicket(kind)

	result, err := s.engine.Query(ctx, kind, from, to)
	if err != nil {
		s.countQuery(kind, "error")
		return dataset.QueryResult{}, err
	}

	if !s.isLatestTicket(kind, ticket) {
		s.countQuery(kind, "superseded")
		return dataset.QueryResult{}, ErrQuerySuperseded
	}

	s.countQuery(kind, "ok")
	return result, nil
}

// Diagnostics returns the report from the kind's most recent load.
func (s *DataService) Diagnostics(kind dataset.Kind) (dataset.Diagnostics, error) {
	return s.engine.Diagnostics(kind)
}

// ExportCSV serializes the filtered window to canonical CSV with a BOM
// prefix and returns the bytes plus a suggested filename. Exports never
// participate in query supersession; a download is always delivered.
func (s *DataService) ExportCSV(ctx context.Context, kind dataset.Kind, from, to dataset.Date) ([]byte, string, error) {
	result, err := s.engine.Query(ctx, kind, from, to)
	if err != nil {
		return nil, "", err
	}

	schema, _ := dataset.SchemaFor(kind)
	var buf bytes.Buffer
	if err := exporter.WriteCSV(&buf, schema, result.Records, exporter.CSVOptions{BOMPrefix: true}); err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.ExportBytes.WithLabelValues("csv").Add(float64(buf.Len()))
	}
	return buf.Bytes(), exportFilename(kind, from, to, "csv"), nil
}

// ExportXLSX serializes the filtered window to a single-sheet workbook.
func (s *DataService) ExportXLSX(ctx context.Context, kind dataset.Kind, from, to dataset.Date) ([]byte, string, error) {
	result, err := s.engine.Query(ctx, kind, from, to)
	if err != nil {
		return nil, "", err
	}

	schema, _ := dataset.SchemaFor(kind)
	var buf bytes.Buffer
	if err := exporter.WriteXLSX(&buf, schema, result.Records); err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.ExportBytes.WithLabelValues("xlsx").Add(float64(buf.Len()))
	}
	return buf.Bytes(), exportFilename(kind, from, to, "xlsx"), nil
}

// Loaded reports whether the kind's table has been loaded.
func (s *DataService) Loaded(kind dataset.Kind) bool {
	return s.engine.Loaded(kind)
}

// issueTicket registers a new query for the kind and returns its ticket.
func (s *DataService) issueTicket(kind dataset.Kind) uint64 {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	s.tickets[kind]++
	return s.tickets[kind]
}

// isLatestTicket reports whether no newer query was issued since.
func (s *DataService) isLatestTicket(kind dataset.Kind, ticket uint64) bool {
	s.ticketMu.Lock()
	defer s.ticketMu.Unlock()
	return s.tickets[kind] == ticket
}

func (s *DataService) countLoad(kind dataset.Kind, result string) {
	if s.metrics != nil {
		s.metrics.DatasetLoads.WithLabelValues(string(kind), result).Inc()
	}
}

func (s *DataService) countQuery(kind dataset.Kind, result string) {
	if s.metrics != nil {
		s.metrics.DatasetQueries.WithLabelValues(string(kind), result).Inc()
	}
}

func exportFilename(kind dataset.Kind, from, to dataset.Date, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", kind, from, to, ext)
}
