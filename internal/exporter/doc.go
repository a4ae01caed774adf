// Package exporter writes filtered canonical records to downloadable
// formats. The byte-exact CSV form lives in the dataset package; this
// package wraps it for delivery: UTF-8 BOM prefixes for spreadsheet
// tools, file output, and XLSX workbooks.
package exporter
