package http

import (
	"context"

	"plapulse/internal/dataset"
)

// DataServiceInterface is what the data handler needs from the service
// layer. Kept as an interface so handler tests can substitute a mock.
type DataServiceInterface interface {
	LoadDataset(ctx context.Context, kind dataset.Kind) (dataset.Diagnostics, error)
	Query(ctx context.Context, kind dataset.Kind, from, to dataset.Date) (dataset.QueryResult, error)
	Diagnostics(kind dataset.Kind) (dataset.Diagnostics, error)
	ExportCSV(ctx context.Context, kind dataset.Kind, from, to dataset.Date) ([]byte, string, error)
	ExportXLSX(ctx context.Context, kind dataset.Kind, from, to dataset.Date) ([]byte, string, error)
}
