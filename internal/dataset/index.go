package dataset

import (
	"errors"
	"sort"
)

// ErrDuplicateDate is returned by NewIndex when two records share a date.
// The normalizer deduplicates before indexing, so hitting this means a
// caller built records by hand and violated the uniqueness invariant.
var ErrDuplicateDate = errors.New("duplicate date in records")

// Index keeps canonical records in ascending date order for range
// queries in time proportional to the number of matching records.
type Index struct {
	records []Record
}

// NewIndex sorts a copy of records by date and verifies date uniqueness.
func NewIndex(records []Record) (*Index, error) {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date == sorted[i-1].Date {
			return nil, ErrDuplicateDate
		}
	}

	return &Index{records: sorted}, nil
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Range returns the records with from <= date <= to, in ascending date
// order. Bounds are inclusive; an empty or inverted range returns nil.
// The returned slice aliases the index and must be cloned before leaving
// the engine.
func (ix *Index) Range(from, to Date) []Record {
	if to.Before(from) {
		return nil
	}
	lo := sort.Search(len(ix.records), func(i int) bool {
		return !ix.records[i].Date.Before(from)
	})
	hi := sort.Search(len(ix.records), func(i int) bool {
		return ix.records[i].Date.After(to)
	})
	if lo >= hi {
		return nil
	}
	return ix.records[lo:hi]
}

// All returns every indexed record in ascending date order. The returned
// slice aliases the index.
func (ix *Index) All() []Record {
	return ix.records
}
