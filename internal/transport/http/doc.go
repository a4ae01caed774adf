// Package http contains the HTTP handlers consumed by the rendering
// layer: dataset load, date-bounded query, diagnostics and export
// downloads.
package http
