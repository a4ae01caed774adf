package dataset

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// RawRow maps a source column name to the raw cell text for one data line.
// Rows are transient: they exist only between Parse and Normalize.
type RawRow map[string]string

// ParseDiagnostics tallies structural problems encountered while parsing.
type ParseDiagnostics struct {
	// MalformedRows counts data rows whose field count did not match the
	// header. Such rows are dropped, never merged with their neighbours.
	MalformedRows int
}

// Parse splits decoded CSV text into an ordered sequence of raw rows. The
// first line is the header; subsequent lines are zipped to header names
// positionally. Fully empty lines are skipped. Rows with a field count
// different from the header are dropped and counted in the diagnostics.
func Parse(text string) ([]RawRow, ParseDiagnostics, error) {
	var diags ParseDiagnostics

	reader := csv.NewReader(strings.NewReader(text))
	// Field count is validated against the header below so mismatches can
	// be counted per row instead of aborting the read.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, diags, nil
	}
	if err != nil {
		return nil, diags, err
	}

	var rows []RawRow
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A quoting error corrupts a single record; treat it like a
			// column-count mismatch and keep reading.
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				diags.MalformedRows++
				continue
			}
			return rows, diags, err
		}

		if isBlank(fields) {
			continue
		}
		if len(fields) != len(header) {
			diags.MalformedRows++
			continue
		}

		row := make(RawRow, len(header))
		for i, name := range header {
			row[name] = fields[i]
		}
		rows = append(rows, row)
	}

	return rows, diags, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
