package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/wastestats/wastestats/server/internal/dataset"
)

// WasteTotal is the waste produced by one entity in one period.
type WasteTotal struct {
	Entity string
	Period int
	Waste  float64
}

// TotalWaste returns the waste of entity in period. It requires exactly one
// matching row; zero or several yield ErrNotFound.
func TotalWaste(t *dataset.Table, entity string, period int) (WasteTotal, error) {
	var matches []dataset.Record
	for _, r := range t.ForEntity(entity) {
		if r.Period == period {
			matches = append(matches, r)
		}
	}

	switch len(matches) {
	case 0:
		return WasteTotal{}, fmt.Errorf("%w: %q in %d", ErrNotFound, entity, period)
	case 1:
		m := matches[0]
		return WasteTotal{Entity: m.Entity, Period: m.Period, Waste: m.Waste}, nil
	default:
		return WasteTotal{}, fmt.Errorf("%w: %q in %d is ambiguous (%d rows)", ErrNotFound, entity, period, len(matches))
	}
}

// PeriodTotal is the waste of one period.
type PeriodTotal struct {
	Period int
	Waste  float64
}

// WasteSeries is an entity's waste per period, ascending by period.
type WasteSeries struct {
	Entity string
	Totals []PeriodTotal
}

// TotalWasteAllYears groups the entity's rows by period. Rows sharing a
// period are summed, so each period appears once.
func TotalWasteAllYears(t *dataset.Table, entity string) (WasteSeries, error) {
	rows := t.ForEntity(entity)
	if len(rows) == 0 {
		return WasteSeries{}, fmt.Errorf("%w: %q", ErrNotFound, entity)
	}

	byPeriod := make(map[int]float64)
	for _, r := range rows {
		byPeriod[r.Period] += r.Waste
	}

	totals := make([]PeriodTotal, 0, len(byPeriod))
	for p, w := range byPeriod {
		totals = append(totals, PeriodTotal{Period: p, Waste: w})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Period < totals[j].Period })

	return WasteSeries{Entity: rows[0].Entity, Totals: totals}, nil
}

// Extreme names an entity and its per-capita waste.
type Extreme struct {
	Name  string
	Value float64
}

// Extremes holds the highest and lowest per-capita waste of a period.
type Extremes struct {
	Period  int
	Highest Extreme
	Lowest  Extreme
}

// FindExtremesByCapita scans the period's rows for the highest and lowest
// waste per inhabitant. Rows without a positive population, or whose
// per-capita value overflows, are ignored.
// On ties the earlier row in table order wins.
func FindExtremesByCapita(t *dataset.Table, period int) (Extremes, error) {
	rows := t.ForPeriod(period)
	if len(rows) == 0 {
		return Extremes{}, fmt.Errorf("%w: no rows for %d", ErrNotFound, period)
	}

	res := Extremes{Period: period}
	seen := false
	for _, r := range rows {
		if r.Population <= 0 {
			continue
		}
		pc := r.Waste / r.Population
		if math.IsInf(pc, 0) || math.IsNaN(pc) {
			continue
		}
		if !seen {
			res.Highest = Extreme{Name: r.Entity, Value: pc}
			res.Lowest = res.Highest
			seen = true
			continue
		}
		if pc > res.Highest.Value {
			res.Highest = Extreme{Name: r.Entity, Value: pc}
		}
		if pc < res.Lowest.Value {
			res.Lowest = Extreme{Name: r.Entity, Value: pc}
		}
	}
	if !seen {
		return Extremes{}, fmt.Errorf("%w: no finite per-capita value in %d", ErrDivisionUndefined, period)
	}
	return res, nil
}

// PeriodRatio is the differentiated collection ratio of one row.
type PeriodRatio struct {
	Period int
	Ratio  float64
}

// RatioChange is the percentage change of an entity's differentiated
// collection ratio between its first and last period.
type RatioChange struct {
	Entity        string
	FirstPeriod   int
	LastPeriod    int
	FirstRatio    float64
	LastRatio     float64
	PercentChange float64
	Ratios        []PeriodRatio // every row, ascending by period
}

// PercentChange computes (last - first) / first * 100 over the entity's
// rows ordered by period. At least two distinct periods and a non-zero
// first ratio are required.
func PercentChange(t *dataset.Table, entity string) (RatioChange, error) {
	rows := t.ForEntity(entity)
	if len(rows) == 0 {
		return RatioChange{}, fmt.Errorf("%w: %q", ErrNotFound, entity)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })

	first, last := rows[0], rows[len(rows)-1]
	if first.Period == last.Period {
		return RatioChange{}, fmt.Errorf("%w: %q has only period %d", ErrInsufficientData, entity, first.Period)
	}

	ratios := make([]PeriodRatio, len(rows))
	for i, r := range rows {
		ratios[i] = PeriodRatio{Period: r.Period, Ratio: r.DiffCollectionRatio}
	}
	res := RatioChange{
		Entity:      first.Entity,
		FirstPeriod: first.Period,
		LastPeriod:  last.Period,
		FirstRatio:  first.DiffCollectionRatio,
		LastRatio:   last.DiffCollectionRatio,
		Ratios:      ratios,
	}
	if first.DiffCollectionRatio == 0 {
		return res, fmt.Errorf("%w: %q ratio is 0 in %d", ErrDivisionUndefined, entity, first.Period)
	}

	pct := (last.DiffCollectionRatio - first.DiffCollectionRatio) / first.DiffCollectionRatio * 100
	if math.IsInf(pct, 0) || math.IsNaN(pct) {
		return res, fmt.Errorf("%w: %q change from %g is not finite", ErrDivisionUndefined, entity, first.DiffCollectionRatio)
	}
	res.PercentChange = pct
	return res, nil
}
