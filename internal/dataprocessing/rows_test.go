package dataprocessing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campcli/pkg/contracts/domain"
)

func TestBuildRecords(t *testing.T) {
	native := time.Date(2025, time.April, 3, 14, 30, 0, 0, time.UTC)
	rows := []domain.RawCapacityRow{
		{Source: "kapa.csv", Line: 2, EmployeeID: " A1 ", DateText: "01.04.2025", HoursText: "4"},
		{Source: "kapa.csv", Line: 3, EmployeeID: "A1", DateText: "ignored", NativeDate: &native, HoursText: "8,0"},
		{Source: "kapa.csv", Line: 4, EmployeeID: "", DateText: "01.04.2025", HoursText: "8"},
		{Source: "kapa.csv", Line: 5, EmployeeID: "B2", DateText: "32.13.2025", HoursText: "8"},
		{Source: "kapa.csv", Line: 6, EmployeeID: "B2", DateText: "01.04.2025", HoursText: "25"},
		{Source: "kapa.csv", Line: 7, EmployeeID: "B2", DateText: "01.04.2025", HoursText: "abc"},
	}

	var w Warnings
	records := BuildRecords(rows, &w)

	require.Len(t, records, 2)
	assert.Equal(t, "A1", records[0].EmployeeID)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), records[0].Date)
	assert.True(t, decimal.NewFromFloat(0.5).Equal(records[0].Capacity))
	assert.Equal(t, time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC), records[1].Date)
	assert.True(t, decimal.NewFromInt(1).Equal(records[1].Capacity))

	warnings := w.List()
	require.Len(t, warnings, 4)
	assert.Contains(t, warnings[0], "kapa.csv row 4")
	assert.Contains(t, warnings[0], "missing employee")
	assert.Contains(t, warnings[1], "kapa.csv row 5")
	assert.Contains(t, warnings[2], "row 6: hours")
	assert.Contains(t, warnings[3], "row 7: hours")
}

func TestTableRows_ForecastModes(t *testing.T) {
	table := textTable(
		[]string{"ID", "Datum", "Stunden", "Version"},
		[]string{"A1", "01.04.2025", "8", "IST"},
		[]string{"A1", "02.04.2025", "6", "FCAST"},
		[]string{"", "", "", ""},
		[]string{"A1", "03.04.2025"},
	)
	cols, err := InferColumns(table, InferOptions{RequireEmployee: true})
	require.NoError(t, err)
	require.Equal(t, 3, cols.Forecast)

	t.Run("off keeps all rows", func(t *testing.T) {
		var w Warnings
		rows := tableRows(table, cols, ExtractOptions{}, forecastOff, &w)
		require.Len(t, rows, 2)
		assert.Equal(t, 2, rows[0].Line)
		assert.Equal(t, []string{"test row 5: expected at least 3 cells, got 2"}, w.List())
	})

	t.Run("lenient keeps flagged rows", func(t *testing.T) {
		var w Warnings
		rows := tableRows(table, cols, ExtractOptions{}, forecastLenient, &w)
		require.Len(t, rows, 1)
		assert.Equal(t, "02.04.2025", rows[0].DateText)
	})

	t.Run("employee override", func(t *testing.T) {
		var w Warnings
		rows := tableRows(table, cols, ExtractOptions{EmployeeID: "E9"}, forecastOff, &w)
		require.Len(t, rows, 2)
		assert.Equal(t, "E9", rows[0].EmployeeID)
	})
}

func TestFilterForecast_NoMatches(t *testing.T) {
	table := textTable(
		[]string{"ID", "Datum", "Stunden", "Version"},
		[]string{"A1", "01.04.2025", "8", "IST"},
		[]string{"A1", "02.04.2025", "6", "IST"},
	)
	cols, err := InferColumns(table, InferOptions{RequireEmployee: true})
	require.NoError(t, err)

	var lenient Warnings
	assert.Equal(t, []int{1, 2}, filterForecast(table, cols, []int{1, 2}, forecastLenient, &lenient))
	assert.Equal(t, []string{"test: no forecast rows found, using all 2 rows"}, lenient.List())

	var strict Warnings
	assert.Empty(t, filterForecast(table, cols, []int{1, 2}, forecastStrict, &strict))
	assert.Zero(t, strict.Len())
}
