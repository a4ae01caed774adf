package dataset

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeComprehensive(t *testing.T) {
	rows := []RawRow{
		{
			"date":                  "2023/01/01",
			"pla_aircraft_sorties":  "12",
			"plan_vessel_sorties":   "4",
			"china_carrier_present": "K",
			"US_Taiwan_interaction": "",
			"Political_statement":   "0",
			"Foreign_battleship":    "FALSE",
			"remark":                "routine patrol",
		},
	}

	records, diags, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindComprehensive, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, Date{Year: 2023, Month: 1, Day: 1}, rec.Date)
	assert.Equal(t, int64(12), rec.Metrics["aircraftSorties"])
	assert.Equal(t, int64(4), rec.Metrics["vesselSorties"])
	assert.Equal(t, Indicator{State: PresencePresent, Raw: "K"}, rec.Indicators["carrierPresent"])
	assert.Equal(t, PresenceAbsent, rec.Indicators["usTaiwanInteraction"].State)
	assert.Equal(t, PresenceAbsent, rec.Indicators["politicalStatement"].State)
	assert.Equal(t, PresenceAbsent, rec.Indicators["foreignBattleship"].State)
	assert.Equal(t, "routine patrol", rec.Texts["remark"])

	assert.Equal(t, 1, diags.RowsLoaded)
	assert.Equal(t, 0, diags.RowsDropped)
	assert.False(t, diags.HasIssues())
	assert.NotEmpty(t, diags.ReportID)
}

func TestNormalizeAliasDrift(t *testing.T) {
	// Different file revisions spell the battleship column differently;
	// all drifted spellings land on the same canonical field.
	tests := []struct {
		name   string
		column string
	}{
		{name: "documented spelling", column: "Foreign_battleship"},
		{name: "drifted spelling", column: "battleship(<3)"},
		{name: "typo spelling", column: "battleshi1(<3)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := []RawRow{{
				"date":                  "20230101",
				"pla_aircraft_sorties":  "1",
				"plan_vessel_sorties":   "1",
				"china_carrier_present": "",
				"US_Taiwan_interaction": "",
				"Political_statement":   "",
				tt.column:               "V",
				"remark":                "",
			}}

			records, _, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindComprehensive, rows)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, PresencePresent, records[0].Indicators["foreignBattleship"].State)
			assert.Equal(t, "V", records[0].Indicators["foreignBattleship"].Raw)
		})
	}
}

func TestNormalizeMissingIndicatorColumn(t *testing.T) {
	// A declared column absent from the source row maps to Unknown, which
	// is distinct from Absent and never counted as Present.
	rows := []RawRow{{
		"date":                 "20230101",
		"pla_aircraft_sorties": "3",
	}}

	records, diags, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindComprehensive, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, PresenceUnknown, records[0].Indicators["carrierPresent"].State)
	// vesselSorties metric, four indicators and the remark text are all
	// missing from the row.
	assert.Equal(t, 6, diags.UnmappableColumns)
	assert.Equal(t, int64(0), records[0].Metrics["vesselSorties"])
	_, hasRemark := records[0].Texts["remark"]
	assert.False(t, hasRemark)
}

func TestNormalizeCountCoercion(t *testing.T) {
	tests := []struct {
		name              string
		cell              string
		expected          int64
		unparsableNumbers int
	}{
		{name: "plain count", cell: "42", expected: 42},
		{name: "blank defaults silently", cell: "", expected: 0},
		{name: "whitespace defaults silently", cell: "  ", expected: 0},
		{name: "decimal truncated", cell: "7.9", expected: 7},
		{name: "negative coerced with diagnostic", cell: "-3", expected: 0, unparsableNumbers: 1},
		{name: "negative decimal coerced with diagnostic", cell: "-0.5", expected: 0, unparsableNumbers: 1},
		{name: "non-numeric coerced with diagnostic", cell: "many", expected: 0, unparsableNumbers: 1},
		{name: "nan coerced with diagnostic", cell: "NaN", expected: 0, unparsableNumbers: 1},
		{name: "positive infinity coerced with diagnostic", cell: "Inf", expected: 0, unparsableNumbers: 1},
		{name: "signed infinity coerced with diagnostic", cell: "+Inf", expected: 0, unparsableNumbers: 1},
		{name: "negative infinity coerced with diagnostic", cell: "-Inf", expected: 0, unparsableNumbers: 1},
		{name: "infinity word coerced with diagnostic", cell: "Infinity", expected: 0, unparsableNumbers: 1},
		{name: "hex float coerced with diagnostic", cell: "0x1p4", expected: 0, unparsableNumbers: 1},
		{name: "beyond int64 coerced with diagnostic", cell: "9300000000000000000000", expected: 0, unparsableNumbers: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags Diagnostics
			got := coerceCount(tt.cell, &diags)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.unparsableNumbers, diags.UnparsableNumbers)
		})
	}
}

func TestNormalizeDropsUnparsableDates(t *testing.T) {
	rows := []RawRow{
		{"date": "20230101", "pla_aircraft_sorties": "1"},
		{"date": "not-a-date", "pla_aircraft_sorties": "2"},
		{"date": "2023-02-31", "pla_aircraft_sorties": "4"},
		{"date": "20230103", "pla_aircraft_sorties": "3"},
	}

	records, diags, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindStraitTransit, rows)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 2, diags.UnparsableDates)
	assert.Equal(t, 2, diags.RowsDropped)
	assert.Equal(t, 2, diags.RowsLoaded)
}

func TestNormalizeDuplicateDatesKeepFirst(t *testing.T) {
	rows := []RawRow{
		{"date": "20230101", "pla_aircraft_sorties": "1"},
		{"date": "2023-01-01", "pla_aircraft_sorties": "99"},
		{"date": "2023/01/01", "pla_aircraft_sorties": "50"},
	}

	records, diags, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindStraitTransit, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].Metrics["aircraftSorties"])
	assert.Equal(t, 2, diags.DuplicateDates)
	assert.Equal(t, 2, diags.RowsDropped)
}

func TestNormalizeStraitTransit(t *testing.T) {
	rows := []RawRow{{
		"date":                 "2023/06/08",
		"pla_aircraft_sorties": "37",
		"空中":                   "",
		"聯合演訓":                 "1",
		"艦通過":                  "1",
		"航母活動":                 "",
		"與那國":                  "",
		"宮古":                   "1",
		"大禹":                   "",
		"對馬":                   "",
		"進":                    "1",
		"出":                    "",
		"艦型":                   "054A",
		"remark":               "通過宮古海峽",
	}}

	records, diags, err := NewNormalizer(testLogger()).Normalize(context.Background(), KindStraitTransit, rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, diags.HasIssues())

	rec := records[0]
	assert.Equal(t, int64(37), rec.Metrics["aircraftSorties"])
	assert.Equal(t, PresencePresent, rec.Indicators["shipTransit"].State)
	assert.Equal(t, PresencePresent, rec.Indicators["miyako"].State)
	assert.Equal(t, PresenceAbsent, rec.Indicators["osumi"].State)
	assert.Equal(t, PresencePresent, rec.Indicators["inbound"].State)
	assert.Equal(t, PresenceAbsent, rec.Indicators["outbound"].State)
	assert.Equal(t, "054A", rec.Texts["vesselType"])
	assert.Equal(t, "通過宮古海峽", rec.Texts["remark"])
}

func TestNormalizeUnknownKind(t *testing.T) {
	_, _, err := NewNormalizer(testLogger()).Normalize(context.Background(), Kind("bogus"), nil)
	assert.Error(t, err)
}
