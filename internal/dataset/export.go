package dataset

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// ToCSV serializes records back to CSV text: the canonical header line
// followed by one line per record in the given order. Fields containing
// the delimiter, quote character or line breaks are quoted per standard
// CSV rules; non-Latin text round-trips without character loss.
//
// Re-importing the output through Decode, Parse and Normalize reproduces
// the same records, with one caveat: the canonical header cannot express
// a structurally missing source column. An Unknown indicator is written
// as an empty cell and re-imports as Absent; a text field whose column
// was missing is likewise written empty and re-imports as the empty
// string.
func ToCSV(schema Schema, records []Record) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	if err := writer.Write(schema.Columns()); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	line := make([]string, 0, len(schema.Columns()))
	for _, rec := range records {
		line = line[:0]
		line = append(line, rec.Date.String())
		for _, f := range schema.Metrics {
			line = append(line, strconv.FormatInt(rec.Metrics[f.Name], 10))
		}
		for _, f := range schema.Indicators {
			line = append(line, rec.Indicators[f.Name].Raw)
		}
		for _, f := range schema.Texts {
			line = append(line, rec.Texts[f.Name])
		}
		if err := writer.Write(line); err != nil {
			return "", fmt.Errorf("write record %s: %w", rec.Date, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
