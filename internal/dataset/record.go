package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies one of the supported dataset schemas.
type Kind string

const (
	// KindComprehensive is the merged daily activity log.
	KindComprehensive Kind = "comprehensive"
	// KindStraitTransit is the naval strait-transit log.
	KindStraitTransit Kind = "strait-transit"
)

// Valid reports whether k names a declared dataset kind.
func (k Kind) Valid() bool {
	return k == KindComprehensive || k == KindStraitTransit
}

// Kinds returns all declared dataset kinds.
func Kinds() []Kind {
	return []Kind{KindComprehensive, KindStraitTransit}
}

// Date is a calendar day. It is the unique sort key for canonical records
// within one dataset.
type Date struct {
	Year  int
	Month int
	Day   int
}

// Key returns a comparable integer form (YYYYMMDD).
func (d Date) Key() int {
	return d.Year*10000 + d.Month*100 + d.Day
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.Key() < other.Key()
}

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool {
	return d.Key() > other.Key()
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String renders the canonical ISO form used by the exporter.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// MarshalJSON renders the date in its canonical ISO form.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// ParseDate parses the date forms that occur in the source files: the
// 8-digit numeric form (20230101), the ISO form (2023-01-01) and the
// slash form the original exports actually contain (2023/01/01).
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("empty date")
	}

	var parts []string
	switch {
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	default:
		if len(s) != 8 {
			return Date{}, fmt.Errorf("unparsable date %q", s)
		}
		parts = []string{s[0:4], s[4:6], s[6:8]}
	}

	if len(parts) != 3 {
		return Date{}, fmt.Errorf("unparsable date %q", s)
	}

	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return Date{}, fmt.Errorf("unparsable date %q", s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return Date{}, fmt.Errorf("unparsable date %q", s)
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil {
		return Date{}, fmt.Errorf("unparsable date %q", s)
	}

	if year < 1900 || year > 2200 || month < 1 || month > 12 || day < 1 || day > 31 {
		return Date{}, fmt.Errorf("date %q out of range", s)
	}

	// time.Date normalizes impossible days (Feb 31 becomes Mar 3); a
	// changed component means the calendar day never existed.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, fmt.Errorf("date %q out of range", s)
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// Presence is the tri-state flag an indicator cell resolves to.
type Presence int

const (
	// PresenceUnknown marks a malformed cell, typically a declared column
	// missing from the source row. It is never treated as Present.
	PresenceUnknown Presence = iota
	// PresenceAbsent means the event did not occur on that day.
	PresenceAbsent
	// PresencePresent means the event occurred.
	PresencePresent
)

// String implements fmt.Stringer.
func (p Presence) String() string {
	switch p {
	case PresenceAbsent:
		return "absent"
	case PresencePresent:
		return "present"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the flag as its string name for the rendering layer.
func (p Presence) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// ResolvePresence maps a raw indicator cell onto the tri-state flag.
// The sentinel list lives here and nowhere else: an empty trimmed value,
// "0" or the case-sensitive literal "FALSE" mean the event did not occur;
// any other non-blank value means it did.
func ResolvePresence(cell string) Presence {
	switch strings.TrimSpace(cell) {
	case "", "0", "FALSE":
		return PresenceAbsent
	default:
		return PresencePresent
	}
}

// Indicator carries the resolved presence flag plus the raw cell text, so
// an export can reproduce the source value exactly.
type Indicator struct {
	State Presence `json:"state"`
	Raw   string   `json:"raw,omitempty"`
}

// Record is the canonical per-day row shape for one dataset kind. Metric,
// indicator and text names are the stable ASCII identifiers declared in
// the kind's Schema; they are the only names downstream code refers to.
type Record struct {
	Date       Date                 `json:"date"`
	Metrics    map[string]int64     `json:"metrics"`
	Indicators map[string]Indicator `json:"indicators"`
	Texts      map[string]string    `json:"texts"`
}

// Clone returns a deep copy. Query results hand out clones only, so the
// rendering layer can never corrupt the engine's table.
func (r Record) Clone() Record {
	out := Record{
		Date:       r.Date,
		Metrics:    make(map[string]int64, len(r.Metrics)),
		Indicators: make(map[string]Indicator, len(r.Indicators)),
		Texts:      make(map[string]string, len(r.Texts)),
	}
	for name, v := range r.Metrics {
		out.Metrics[name] = v
	}
	for name, v := range r.Indicators {
		out.Indicators[name] = v
	}
	for name, v := range r.Texts {
		out.Texts[name] = v
	}
	return out
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
