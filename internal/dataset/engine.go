package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Engine errors returned to callers. Handlers map these onto API errors.
var (
	ErrUnknownKind = errors.New("unknown dataset kind")
	ErrNotLoaded   = errors.New("dataset not loaded")
)

// MetricStats holds the derived statistics of one metric over a filtered
// window.
type MetricStats struct {
	Mean float64 `json:"mean"`
	Max  int64   `json:"max"`
}

// Stats summarizes a filtered record subset: total count, per-metric mean
// and maximum, and the tally of records where each indicator resolved to
// Present.
type Stats struct {
	Count         int                    `json:"count"`
	Metrics       map[string]MetricStats `json:"metrics"`
	PresentCounts map[string]int         `json:"present_counts"`
}

// QueryResult is what the rendering layer receives per query: the
// filtered records (deep copies, never live table handles) plus stats.
type QueryResult struct {
	Kind    Kind     `json:"kind"`
	From    Date     `json:"from"`
	To      Date     `json:"to"`
	Records []Record `json:"records"`
	Stats   Stats    `json:"stats"`
}

// Engine owns one loaded canonical table per dataset kind. Loads replace
// a table wholesale; queries are read-only and deterministic: the same
// (kind, from, to) against unchanged data always yields identical output.
type Engine struct {
	logger *slog.Logger
	norm   *Normalizer

	mu     sync.RWMutex
	tables map[Kind]*Index
	diags  map[Kind]Diagnostics
}

// NewEngine creates an engine with no datasets loaded.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		logger: logger.With(slog.String("component", "engine")),
		norm:   NewNormalizer(logger),
		tables: make(map[Kind]*Index),
		diags:  make(map[Kind]Diagnostics),
	}
}

// Load ingests raw dataset text through decode, parse and normalize, and
// replaces the kind's table wholesale. Row-level problems accumulate in
// the returned diagnostics; only structurally unusable input is an error.
func (e *Engine) Load(ctx context.Context, kind Kind, raw string) (Diagnostics, error) {
	if !kind.Valid() {
		return Diagnostics{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	rows, parseDiags, err := Parse(Decode(raw))
	if err != nil {
		return Diagnostics{}, fmt.Errorf("parse %s: %w", kind, err)
	}

	records, diags, err := e.norm.Normalize(ctx, kind, rows)
	if err != nil {
		return Diagnostics{}, err
	}
	diags.MalformedRows = parseDiags.MalformedRows

	index, err := NewIndex(records)
	if err != nil {
		// Unreachable while the normalizer deduplicates, kept as a guard
		// on the uniqueness invariant.
		return Diagnostics{}, fmt.Errorf("index %s: %w", kind, err)
	}

	e.mu.Lock()
	e.tables[kind] = index
	e.diags[kind] = diags
	e.mu.Unlock()

	e.logger.InfoContext(ctx, "dataset loaded",
		slog.String("kind", string(kind)),
		slog.Int("records", index.Len()),
		slog.Bool("has_issues", diags.HasIssues()))

	return diags, nil
}

// Query returns the records within the inclusive [from, to] window plus
// summary statistics. An empty window yields empty records and zeroed
// stats, never an error.
func (e *Engine) Query(ctx context.Context, kind Kind, from, to Date) (QueryResult, error) {
	if !kind.Valid() {
		return QueryResult{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	e.mu.RLock()
	index, ok := e.tables[kind]
	e.mu.RUnlock()
	if !ok {
		return QueryResult{}, fmt.Errorf("%w: %s", ErrNotLoaded, kind)
	}

	schema, _ := SchemaFor(kind)
	matched := index.Range(from, to)
	records := cloneRecords(matched)

	return QueryResult{
		Kind:    kind,
		From:    from,
		To:      to,
		Records: records,
		Stats:   computeStats(schema, records),
	}, nil
}

// Diagnostics returns the report from the kind's most recent load.
func (e *Engine) Diagnostics(kind Kind) (Diagnostics, error) {
	if !kind.Valid() {
		return Diagnostics{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	diags, ok := e.diags[kind]
	if !ok {
		return Diagnostics{}, fmt.Errorf("%w: %s", ErrNotLoaded, kind)
	}
	return diags, nil
}

// Loaded reports whether a table exists for the kind.
func (e *Engine) Loaded(kind Kind) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.tables[kind]
	return ok
}

// computeStats derives the summary statistics over a filtered subset. All
// declared metric and indicator names appear in the result even when the
// subset is empty, so an empty window renders as zeroed stats rather than
// missing keys.
func computeStats(schema Schema, records []Record) Stats {
	stats := Stats{
		Count:         len(records),
		Metrics:       make(map[string]MetricStats, len(schema.Metrics)),
		PresentCounts: make(map[string]int, len(schema.Indicators)),
	}

	for _, f := range schema.Metrics {
		var sum, max int64
		for _, rec := range records {
			v := rec.Metrics[f.Name]
			sum += v
			if v > max {
				max = v
			}
		}
		ms := MetricStats{Max: max}
		if len(records) > 0 {
			ms.Mean = float64(sum) / float64(len(records))
		}
		stats.Metrics[f.Name] = ms
	}

	for _, f := range schema.Indicators {
		count := 0
		for _, rec := range records {
			if rec.Indicators[f.Name].State == PresencePresent {
				count++
			}
		}
		stats.PresentCounts[f.Name] = count
	}

	return stats
}
