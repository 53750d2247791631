package dataset

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Record is one row of the waste statistics table: one municipality in one year.
type Record struct {
	Entity              string
	Period              int
	Waste               float64
	Population          float64
	DiffCollectionRatio float64
}

// Table is an ordered, immutable sequence of Records shared read-only by all
// requests. A reload builds a new Table; an existing one is never modified.
type Table struct {
	// Source is the path the table was loaded from (empty for in-memory tables).
	Source string

	// LoadedAt is when the table was built.
	LoadedAt time.Time

	// Skipped counts data rows dropped because a required field was missing
	// or not numeric.
	Skipped int

	records []Record
	keys    []string // EntityKey of each record, same index
}

// NewTable builds a Table over records. The slice is copied.
func NewTable(records []Record) *Table {
	t := &Table{
		LoadedAt: time.Now(),
		records:  make([]Record, len(records)),
		keys:     make([]string, len(records)),
	}
	copy(t.records, records)
	for i, r := range t.records {
		t.keys[i] = EntityKey(r.Entity)
	}
	return t
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.records) }

// Records returns a copy of all records in table order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// ForEntity returns the records whose entity matches name, in table order.
// Matching ignores case, accents and repeated whitespace.
func (t *Table) ForEntity(name string) []Record {
	key := EntityKey(name)
	if key == "" {
		return nil
	}
	var out []Record
	for i, k := range t.keys {
		if k == key {
			out = append(out, t.records[i])
		}
	}
	return out
}

// ForPeriod returns the records for the given year, in table order.
func (t *Table) ForPeriod(period int) []Record {
	var out []Record
	for _, r := range t.records {
		if r.Period == period {
			out = append(out, r)
		}
	}
	return out
}

// EntityCount returns the number of distinct entities.
func (t *Table) EntityCount() int {
	seen := make(map[string]struct{}, len(t.keys))
	for _, k := range t.keys {
		seen[k] = struct{}{}
	}
	return len(seen)
}

// EntityKey normalizes a municipality name for matching: accents stripped,
// typographic apostrophes unified, whitespace collapsed, case folded.
// "Sant’Orsola Terme", "SANT'ORSOLA  TERME" and "sant'orsola terme" share a key.
func EntityKey(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		stripped = name
	}
	stripped = strings.Map(func(r rune) rune {
		switch r {
		case '’', '‘', '`', '´':
			return '\''
		}
		return r
	}, stripped)
	return cases.Fold().String(strings.Join(strings.Fields(stripped), " "))
}
