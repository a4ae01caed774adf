package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"plapulse/internal/dataset"
)

// utf8BOM helps spreadsheet tools recognize UTF-8 output; the source
// datasets are published the same way (utf-8-sig).
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVOptions configures CSV delivery.
type CSVOptions struct {
	// BOMPrefix prepends a UTF-8 BOM. The decoder strips it on re-import,
	// so the round-trip law is unaffected.
	BOMPrefix bool
}

// WriteCSV writes the canonical CSV form of records to w.
func WriteCSV(w io.Writer, schema dataset.Schema, records []dataset.Record, opts CSVOptions) error {
	text, err := dataset.ToCSV(schema, records)
	if err != nil {
		return fmt.Errorf("serialize csv: %w", err)
	}
	if opts.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("write BOM: %w", err)
		}
	}
	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteCSVFile writes the canonical CSV form to a file, creating parent
// directories as needed. Files always carry the BOM prefix so Excel and
// friends open the non-Latin columns correctly.
func WriteCSVFile(path string, schema dataset.Schema, records []dataset.Record, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("writing CSV export",
		slog.String("path", path),
		slog.String("kind", string(schema.Kind)),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, schema, records, CSVOptions{BOMPrefix: true}); err != nil {
		return err
	}
	return file.Close()
}
