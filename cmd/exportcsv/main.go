// Command exportcsv is a one-shot loader and exporter for scripting:
// fetch a dataset, filter it to a date window and write the canonical
// CSV form to a file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"plapulse/internal/config"
	"plapulse/internal/dataset"
	"plapulse/internal/exporter"
	"plapulse/internal/fetch"
	"plapulse/internal/infrastructure"
)

func main() {
	kindFlag := flag.String("kind", "comprehensive", "dataset kind: comprehensive | strait-transit")
	source := flag.String("source", "", "source path or URL (defaults to the configured source for the kind)")
	from := flag.String("from", "", "start date (inclusive), e.g. 2023-01-01 or 20230101")
	to := flag.String("to", "", "end date (inclusive)")
	out := flag.String("out", "", "output csv path (defaults to <kind>_<from>_<to>.csv)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config, using defaults", "error", err)
		cfg = &config.Config{}
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	kind := dataset.Kind(*kindFlag)
	if !kind.Valid() {
		logger.Error("unknown dataset kind", slog.String("kind", *kindFlag))
		os.Exit(1)
	}

	if *source == "" {
		if s, ok := cfg.Datasets.Source(string(kind)); ok {
			*source = s
		}
	}
	if *source == "" || *from == "" || *to == "" {
		flag.Usage()
		os.Exit(2)
	}

	fromDate, err := dataset.ParseDate(*from)
	if err != nil {
		logger.Error("invalid from date", slog.String("error", err.Error()))
		os.Exit(1)
	}
	toDate, err := dataset.ParseDate(*to)
	if err != nil {
		logger.Error("invalid to date", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *out == "" {
		*out = fmt.Sprintf("%s_%s_%s.csv", kind, fromDate, toDate)
	}

	ctx := context.Background()
	text, err := fetch.NewFetcher(logger).FetchText(ctx, *source)
	if err != nil {
		logger.Error("fetch failed", slog.String("source", *source), slog.String("error", err.Error()))
		os.Exit(1)
	}

	engine := dataset.NewEngine(logger)
	diags, err := engine.Load(ctx, kind, text)
	if err != nil {
		logger.Error("load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if diags.HasIssues() {
		logger.Warn("load completed with skipped rows",
			slog.Int("rows_dropped", diags.RowsDropped),
			slog.Int("malformed_rows", diags.MalformedRows),
			slog.Int("unparsable_dates", diags.UnparsableDates),
			slog.Int("duplicate_dates", diags.DuplicateDates))
	}

	result, err := engine.Query(ctx, kind, fromDate, toDate)
	if err != nil {
		logger.Error("query failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	schema, _ := dataset.SchemaFor(kind)
	if err := exporter.WriteCSVFile(*out, schema, result.Records, logger); err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("export complete",
		slog.String("out", *out),
		slog.Int("records", len(result.Records)))
}
