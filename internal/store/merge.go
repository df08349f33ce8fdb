package store

import "campcli/pkg/contracts/domain"

// MergeStats counts what Upsert did with the incoming records
type MergeStats struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	// Kept counts incoming records dropped because their key already
	// existed and overwrite was off.
	Kept int `json:"kept"`
	// Duplicates counts incoming records superseded by a later record
	// with the same key in the same batch.
	Duplicates int `json:"duplicates"`
}

// Written is the number of incoming records that ended up in the result.
func (s MergeStats) Written() int {
	return s.Inserted + s.Updated + s.Unchanged
}

// Upsert merges incoming into existing by (employee, date). An existing key
// is replaced in place when overwrite is set and kept otherwise. Keys
// repeated within incoming always resolve to the last occurrence. New keys
// are appended in arrival order; nothing is re-sorted. existing is not
// modified.
func Upsert(existing, incoming []domain.CapacityRecord, overwrite bool) ([]domain.CapacityRecord, MergeStats) {
	merged := make([]domain.CapacityRecord, 0, len(existing)+len(incoming))
	index := make(map[domain.RecordKey]int, len(existing)+len(incoming))
	for _, rec := range existing {
		key := rec.Key()
		if i, ok := index[key]; ok {
			merged[i] = rec
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}

	batch, duplicates := dedupe(incoming)
	stats := MergeStats{Duplicates: duplicates}
	for _, rec := range batch {
		key := rec.Key()
		i, exists := index[key]
		switch {
		case !exists:
			index[key] = len(merged)
			merged = append(merged, rec)
			stats.Inserted++
		case !overwrite:
			stats.Kept++
		case sameValues(merged[i], rec):
			merged[i] = rec
			stats.Unchanged++
		default:
			merged[i] = rec
			stats.Updated++
		}
	}
	return merged, stats
}

// dedupe collapses repeated keys to one record carrying the last value,
// placed where the key first appeared.
func dedupe(records []domain.CapacityRecord) ([]domain.CapacityRecord, int) {
	out := make([]domain.CapacityRecord, 0, len(records))
	pos := make(map[domain.RecordKey]int, len(records))
	for _, rec := range records {
		key := rec.Key()
		if i, ok := pos[key]; ok {
			out[i] = rec
			continue
		}
		pos[key] = len(out)
		out = append(out, rec)
	}
	return out, len(records) - len(out)
}
