package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plapulse/internal/config"
	"plapulse/internal/dataset"
	"plapulse/internal/fetch"
	"plapulse/internal/infrastructure"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubFetcher serves canned text per source identifier.
type stubFetcher struct {
	mu    sync.Mutex
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *stubFetcher) FetchText(ctx context.Context, identifier string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, identifier)
	if err, ok := f.errs[identifier]; ok {
		return "", err
	}
	text, ok := f.texts[identifier]
	if !ok {
		return "", fmt.Errorf("%w: %s", fetch.ErrUnavailable, identifier)
	}
	return text, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Datasets: config.DatasetsConfig{
			ComprehensiveSource: "comprehensive.csv",
			StraitTransitSource: "strait.csv",
		},
	}
}

func newTestService(t *testing.T, fetcher *stubFetcher) *DataService {
	t.Helper()
	svc, err := NewDataService(testConfig(), fetcher, infrastructure.NewMetrics(), testLogger())
	require.NoError(t, err)
	return svc
}

const comprehensiveText = "\xef\xbb\xbf" +
	"date,pla_aircraft_sorties,plan_vessel_sorties,china_carrier_present,US_Taiwan_interaction,Political_statement,Foreign_battleship,remark\n" +
	"2023/01/01,10,2,K,,,,routine\n" +
	"2023/01/02,20,4,,,,,\n"

const straitText = "\xef\xbb\xbf" +
	"date,pla_aircraft_sorties,空中,聯合演訓,艦通過,航母活動,與那國,宮古,大禹,對馬,進,出,艦型,remark\n" +
	"2023/06/08,37,,1,1,,,1,,,1,,054A,\n"

func TestNewDataServiceRequiresSources(t *testing.T) {
	cfg := testConfig()
	cfg.Datasets.StraitTransitSource = ""

	_, err := NewDataService(cfg, &stubFetcher{}, nil, testLogger())
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestLoadDatasetAndQuery(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{"comprehensive.csv": comprehensiveText}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	diags, err := svc.LoadDataset(ctx, dataset.KindComprehensive)
	require.NoError(t, err)
	assert.Equal(t, 2, diags.RowsLoaded)
	assert.True(t, svc.Loaded(dataset.KindComprehensive))
	assert.False(t, svc.Loaded(dataset.KindStraitTransit))

	result, err := svc.Query(ctx, dataset.KindComprehensive,
		dataset.Date{Year: 2023, Month: 1, Day: 1}, dataset.Date{Year: 2023, Month: 1, Day: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Count)
	assert.Equal(t, 1, result.Stats.PresentCounts["carrierPresent"])

	stored, err := svc.Diagnostics(dataset.KindComprehensive)
	require.NoError(t, err)
	assert.Equal(t, diags, stored)
}

func TestLoadDatasetFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{errs: map[string]error{
		"comprehensive.csv": fmt.Errorf("%w: gone", fetch.ErrUnavailable),
	}}
	svc := newTestService(t, fetcher)

	_, err := svc.LoadDataset(context.Background(), dataset.KindComprehensive)
	assert.ErrorIs(t, err, fetch.ErrUnavailable)
	assert.False(t, svc.Loaded(dataset.KindComprehensive))
}

func TestLoadAll(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{
		"comprehensive.csv": comprehensiveText,
		"strait.csv":        straitText,
	}}
	svc := newTestService(t, fetcher)

	require.NoError(t, svc.LoadAll(context.Background()))
	assert.True(t, svc.Loaded(dataset.KindComprehensive))
	assert.True(t, svc.Loaded(dataset.KindStraitTransit))
	assert.ElementsMatch(t, []string{"comprehensive.csv", "strait.csv"}, fetcher.calls)
}

func TestLoadAllPropagatesFailure(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{"comprehensive.csv": comprehensiveText}}
	svc := newTestService(t, fetcher)

	err := svc.LoadAll(context.Background())
	assert.ErrorIs(t, err, fetch.ErrUnavailable)
}

func TestQueryNotLoaded(t *testing.T) {
	svc := newTestService(t, &stubFetcher{})

	_, err := svc.Query(context.Background(), dataset.KindComprehensive,
		dataset.Date{Year: 2023, Month: 1, Day: 1}, dataset.Date{Year: 2023, Month: 1, Day: 1})
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)
}

func TestQuerySupersession(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{"comprehensive.csv": comprehensiveText}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, dataset.KindComprehensive)
	require.NoError(t, err)

	// A ticket issued before a newer query for the same kind is stale.
	stale := svc.issueTicket(dataset.KindComprehensive)
	latest := svc.issueTicket(dataset.KindComprehensive)

	assert.False(t, svc.isLatestTicket(dataset.KindComprehensive, stale))
	assert.True(t, svc.isLatestTicket(dataset.KindComprehensive, latest))

	// Tickets are scoped per kind: a newer strait-transit query does not
	// invalidate a comprehensive one.
	fresh := svc.issueTicket(dataset.KindComprehensive)
	svc.issueTicket(dataset.KindStraitTransit)
	assert.True(t, svc.isLatestTicket(dataset.KindComprehensive, fresh))

	// An undisturbed query delivers normally.
	result, err := svc.Query(ctx, dataset.KindComprehensive,
		dataset.Date{Year: 2023, Month: 1, Day: 1}, dataset.Date{Year: 2023, Month: 1, Day: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Count)
}

func TestExportCSV(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{"comprehensive.csv": comprehensiveText}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, dataset.KindComprehensive)
	require.NoError(t, err)

	data, filename, err := svc.ExportCSV(ctx, dataset.KindComprehensive,
		dataset.Date{Year: 2023, Month: 1, Day: 1}, dataset.Date{Year: 2023, Month: 1, Day: 2})
	require.NoError(t, err)

	assert.Equal(t, "comprehensive_2023-01-01_2023-01-02.csv", filename)
	assert.Equal(t, "\xef\xbb\xbf", string(data[:3]))
	assert.Contains(t, string(data), "2023-01-01,10,2,K,")
}

func TestExportXLSX(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{"strait.csv": straitText}}
	svc := newTestService(t, fetcher)
	ctx := context.Background()

	_, err := svc.LoadDataset(ctx, dataset.KindStraitTransit)
	require.NoError(t, err)

	data, filename, err := svc.ExportXLSX(ctx, dataset.KindStraitTransit,
		dataset.Date{Year: 2023, Month: 6, Day: 8}, dataset.Date{Year: 2023, Month: 6, Day: 8})
	require.NoError(t, err)

	assert.Equal(t, "strait-transit_2023-06-08_2023-06-08.xlsx", filename)
	assert.NotEmpty(t, data)
}

func TestExportNotLoaded(t *testing.T) {
	svc := newTestService(t, &stubFetcher{})
	window := dataset.Date{Year: 2023, Month: 1, Day: 1}

	_, _, err := svc.ExportCSV(context.Background(), dataset.KindComprehensive, window, window)
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)

	_, _, err = svc.ExportXLSX(context.Background(), dataset.KindComprehensive, window, window)
	assert.ErrorIs(t, err, dataset.ErrNotLoaded)
}

func TestHealthService(t *testing.T) {
	fetcher := &stubFetcher{texts: map[string]string{
		"comprehensive.csv": comprehensiveText,
		"strait.csv":        straitText,
	}}
	svc := newTestService(t, fetcher)
	health := NewHealthService("1.2.0", "2026-08-24", svc, testLogger())
	ctx := context.Background()

	status := health.HealthCheck(ctx)
	assert.Equal(t, "degraded", status.Status)
	assert.False(t, status.Datasets["comprehensive"])

	require.NoError(t, svc.LoadAll(ctx))

	status = health.HealthCheck(ctx)
	assert.Equal(t, "healthy", status.Status)
	assert.True(t, status.Datasets["comprehensive"])
	assert.True(t, status.Datasets["strait-transit"])

	info := health.Version()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "2026-08-24", info.BuildTime)
}
