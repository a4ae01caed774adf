package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Diagnostics is the per-load report of row-level problems. No entry here
// aborts a load; the counts are surfaced to the rendering layer so the
// user can be warned ("N rows skipped") without blocking the valid data.
type Diagnostics struct {
	ReportID string `json:"report_id"`
	Kind     Kind   `json:"kind"`

	RowsLoaded  int `json:"rows_loaded"`
	RowsDropped int `json:"rows_dropped"`

	MalformedRows     int `json:"malformed_rows"`
	UnmappableColumns int `json:"unmappable_columns"`
	UnparsableNumbers int `json:"unparsable_numbers"`
	UnparsableDates   int `json:"unparsable_dates"`
	DuplicateDates    int `json:"duplicate_dates"`
}

// HasIssues reports whether any row-level problem was recorded.
func (d Diagnostics) HasIssues() bool {
	return d.MalformedRows > 0 || d.UnmappableColumns > 0 ||
		d.UnparsableNumbers > 0 || d.UnparsableDates > 0 || d.DuplicateDates > 0
}

// Normalizer maps raw rows onto canonical records using the declared
// schema of each dataset kind. It is defensive by design: a corrupt row
// degrades into diagnostics counters, never into a failed load.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to the
// default slog logger.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize converts parsed rows into canonical records for the given
// kind. Rows with unparsable dates are dropped; duplicate dates keep the
// first occurrence; metric and indicator cells degrade per the declared
// coercion rules. The returned records preserve input order.
func (n *Normalizer) Normalize(ctx context.Context, kind Kind, rows []RawRow) ([]Record, Diagnostics, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, Diagnostics{}, fmt.Errorf("unknown dataset kind %q", kind)
	}

	diags := Diagnostics{
		ReportID: uuid.New().String(),
		Kind:     kind,
	}

	records := make([]Record, 0, len(rows))
	seen := make(map[int]bool, len(rows))

	for _, row := range rows {
		date, ok := n.resolveDate(schema, row, &diags)
		if !ok {
			diags.RowsDropped++
			continue
		}
		if seen[date.Key()] {
			diags.DuplicateDates++
			diags.RowsDropped++
			n.logger.WarnContext(ctx, "duplicate date dropped, keeping first",
				slog.String("kind", string(kind)),
				slog.String("date", date.String()))
			continue
		}
		seen[date.Key()] = true

		rec := Record{
			Date:       date,
			Metrics:    make(map[string]int64, len(schema.Metrics)),
			Indicators: make(map[string]Indicator, len(schema.Indicators)),
			Texts:      make(map[string]string, len(schema.Texts)),
		}

		for _, f := range schema.Metrics {
			cell, ok := resolveAlias(row, f.Aliases)
			if !ok {
				diags.UnmappableColumns++
				rec.Metrics[f.Name] = 0
				continue
			}
			rec.Metrics[f.Name] = coerceCount(cell, &diags)
		}

		for _, f := range schema.Indicators {
			cell, ok := resolveAlias(row, f.Aliases)
			if !ok {
				diags.UnmappableColumns++
				rec.Indicators[f.Name] = Indicator{State: PresenceUnknown}
				continue
			}
			rec.Indicators[f.Name] = Indicator{State: ResolvePresence(cell), Raw: cell}
		}

		for _, f := range schema.Texts {
			cell, ok := resolveAlias(row, f.Aliases)
			if !ok {
				diags.UnmappableColumns++
				continue
			}
			// Free text passes through unmodified, non-Latin characters
			// included.
			rec.Texts[f.Name] = cell
		}

		records = append(records, rec)
		diags.RowsLoaded++
	}

	n.logger.InfoContext(ctx, "normalization complete",
		slog.String("kind", string(kind)),
		slog.String("report_id", diags.ReportID),
		slog.Int("rows_loaded", diags.RowsLoaded),
		slog.Int("rows_dropped", diags.RowsDropped),
		slog.Int("unmappable_columns", diags.UnmappableColumns),
		slog.Int("unparsable_numbers", diags.UnparsableNumbers),
		slog.Int("unparsable_dates", diags.UnparsableDates),
		slog.Int("duplicate_dates", diags.DuplicateDates))

	return records, diags, nil
}

// resolveDate extracts the row's calendar day. A missing date column or an
// unparsable value drops the row; it is never defaulted.
func (n *Normalizer) resolveDate(schema Schema, row RawRow, diags *Diagnostics) (Date, bool) {
	cell, ok := resolveAlias(row, schema.DateAliases)
	if !ok {
		diags.UnmappableColumns++
		return Date{}, false
	}
	date, err := ParseDate(cell)
	if err != nil {
		diags.UnparsableDates++
		return Date{}, false
	}
	return date, true
}

// resolveAlias tries each declared source spelling in order and returns
// the first column present in the row.
func resolveAlias(row RawRow, aliases []string) (string, bool) {
	for _, name := range aliases {
		if cell, ok := row[name]; ok {
			return cell, true
		}
	}
	return "", false
}

// coerceCount turns a raw metric cell into a non-negative count. Blank
// cells default to 0 silently; anything that is not plain integer or
// decimal text — including NaN, infinities, hex floats and values past
// int64 — coerces to 0 with a diagnostic. Decimal text is truncated.
func coerceCount(cell string, diags *Diagnostics) int64 {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if n < 0 {
			diags.UnparsableNumbers++
			return 0
		}
		return n
	}
	// ParseFloat also accepts hex-float syntax, which the sources never
	// contain; treat it as unparsable rather than a count.
	if strings.ContainsAny(trimmed, "xX") {
		diags.UnparsableNumbers++
		return 0
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= math.MaxInt64 {
		diags.UnparsableNumbers++
		return 0
	}
	return int64(v)
}
