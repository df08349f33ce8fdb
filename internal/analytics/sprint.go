package analytics

import (
	"errors"

	"github.com/shopspring/decimal"

	"campcli/pkg/contracts/domain"
)

// DefaultFactor converts team capacity days into story points.
var DefaultFactor = decimal.NewFromFloat(1.4)

// ErrInvalidFactor is returned by Summary for a factor <= 0.
var ErrInvalidFactor = errors.New("story point factor must be positive")

// SprintTotals sums hours and capacity per roster member for the records
// inside the window. Members without records get zero sums; records of
// employees outside the roster are ignored.
func SprintTotals(records []domain.CapacityRecord, window domain.SprintWindow) map[string]domain.SprintTotal {
	totals := make(map[string]domain.SprintTotal, len(window.Roster))
	for _, member := range window.Roster {
		totals[member] = domain.SprintTotal{Hours: decimal.Zero, Capacity: decimal.Zero}
	}

	for _, rec := range records {
		total, ok := totals[rec.EmployeeID]
		if !ok || !window.Contains(rec.Date) {
			continue
		}
		total.Hours = total.Hours.Add(rec.Hours)
		total.Capacity = total.Capacity.Add(rec.Capacity)
		totals[rec.EmployeeID] = total
	}
	return totals
}

// DailyGrid builds one cell per calendar day of the window for every roster
// member. A cell is available when a record exists for exactly that
// employee and day.
func DailyGrid(records []domain.CapacityRecord, window domain.SprintWindow) map[string][]domain.DayCell {
	byKey := make(map[domain.RecordKey]decimal.Decimal, len(records))
	for _, rec := range records {
		if window.Contains(rec.Date) {
			byKey[rec.Key()] = rec.Hours
		}
	}

	days := window.Days()
	grid := make(map[string][]domain.DayCell, len(window.Roster))
	for _, member := range window.Roster {
		cells := make([]domain.DayCell, len(days))
		for i, d := range days {
			hours, ok := byKey[domain.NewRecordKey(member, d)]
			if !ok {
				hours = decimal.Zero
			}
			cells[i] = domain.DayCell{Date: d, Available: ok, Hours: hours}
		}
		grid[member] = cells
	}
	return grid
}

// Summary condenses the window into team totals and a story point estimate
// of total capacity divided by factor.
func Summary(records []domain.CapacityRecord, window domain.SprintWindow, factor decimal.Decimal) (domain.SprintSummary, error) {
	if !factor.IsPositive() {
		return domain.SprintSummary{}, ErrInvalidFactor
	}

	totals := SprintTotals(records, window)
	summary := domain.SprintSummary{
		Sprint:        window.Name,
		Start:         window.Start,
		End:           window.End,
		Members:       len(totals),
		TotalHours:    decimal.Zero,
		TotalCapacity: decimal.Zero,
		Factor:        factor,
		Totals:        totals,
	}
	for _, t := range totals {
		summary.TotalHours = summary.TotalHours.Add(t.Hours)
		summary.TotalCapacity = summary.TotalCapacity.Add(t.Capacity)
	}
	summary.EstimatedStoryPoints = summary.TotalCapacity.DivRound(factor, 2)
	return summary, nil
}

// Members returns the roster in order without duplicates.
func Members(window domain.SprintWindow) []string {
	seen := make(map[string]bool, len(window.Roster))
	out := make([]string, 0, len(window.Roster))
	for _, m := range window.Roster {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
