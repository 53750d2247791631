package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/wastestats/wastestats/server/internal/config"
)

// ErrMissingColumn is returned when the header row lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Accepted range for the period column.
const (
	minPeriod = 1000
	maxPeriod = 9999
)

// Load reads the table described by cfg. CSV and XLSX files are supported;
// both go through the same header mapping and row parsing.
func Load(cfg config.DatasetConfig) (*Table, error) {
	var (
		rows      [][]string
		malformed int
		err       error
	)
	switch cfg.EffectiveFormat() {
	case "xlsx":
		rows, err = readXLSX(cfg.Path, cfg.Sheet)
		// Raw xlsx cells always use a dot as decimal separator.
		cfg.DecimalComma = false
	default:
		rows, malformed, err = readCSV(cfg.Path, cfg.Comma())
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read %q: %w", cfg.Path, err)
	}

	t, err := FromRows(rows, cfg)
	if err != nil {
		return nil, fmt.Errorf("dataset: %q: %w", cfg.Path, err)
	}
	t.Source = cfg.Path
	t.Skipped += malformed
	return t, nil
}

// FromRows builds a Table from raw string rows. rows[0] is the header.
func FromRows(rows [][]string, cfg config.DatasetConfig) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table: no header row")
	}

	idx, err := mapColumns(rows[0], cfg.Columns)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	skipped := 0
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec, err := parseRow(row, idx, cfg.DecimalComma)
		if err != nil {
			skipped++
			slog.Debug("dataset: skipping row", "line", i+2, "err", err)
			continue
		}
		records = append(records, rec)
	}

	t := NewTable(records)
	t.Skipped = skipped
	if skipped > 0 {
		slog.Warn("dataset: rows skipped", "skipped", skipped, "kept", len(records))
	}
	return t, nil
}

// columnIndex holds the position of each required column in a row.
type columnIndex struct {
	entity, period, waste, population, diff int
}

func mapColumns(header []string, cols config.ColumnsConfig) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	var missing []string
	find := func(name string) int {
		i, ok := pos[headerKey(name)]
		if !ok {
			missing = append(missing, name)
			return -1
		}
		return i
	}

	idx := columnIndex{
		entity:     find(cols.Entity),
		period:     find(cols.Period),
		waste:      find(cols.Waste),
		population: find(cols.Population),
		diff:       find(cols.DiffCollection),
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func parseRow(row []string, idx columnIndex, decimalComma bool) (Record, error) {
	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := Record{Entity: cell(idx.entity)}
	if rec.Entity == "" {
		return rec, fmt.Errorf("empty entity")
	}

	period, err := parseNumber(cell(idx.period), decimalComma)
	if err != nil {
		return rec, fmt.Errorf("period: %w", err)
	}
	if period != math.Trunc(period) {
		return rec, fmt.Errorf("period: %v is not a whole year", period)
	}
	if period < minPeriod || period > maxPeriod {
		return rec, fmt.Errorf("period: %v outside [%d, %d]", period, minPeriod, maxPeriod)
	}
	rec.Period = int(period)

	if rec.Waste, err = parseNumber(cell(idx.waste), decimalComma); err != nil {
		return rec, fmt.Errorf("waste: %w", err)
	}
	if rec.Population, err = parseNumber(cell(idx.population), decimalComma); err != nil {
		return rec, fmt.Errorf("population: %w", err)
	}
	if rec.DiffCollectionRatio, err = parseNumber(cell(idx.diff), decimalComma); err != nil {
		return rec, fmt.Errorf("diff_collection: %w", err)
	}
	return rec, nil
}

// parseNumber parses a finite float. With decimalComma, "1.234,5" reads as 1234.5.
func parseNumber(s string, decimalComma bool) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	s = strings.TrimSuffix(s, "%")
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", s)
	}
	return f, nil
}

// headerKey converts "Rifiuti Totali" → "rifiuti_totali".
func headerKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// readCSV returns all well-formed rows and the number of malformed data
// lines it dropped.
func readCSV(path string, comma rune) ([][]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		rows      [][]string
		malformed int
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && len(rows) > 0 {
				malformed++
				slog.Debug("dataset: malformed csv line", "line", perr.Line, "err", perr.Err)
				continue
			}
			return nil, 0, err
		}
		rows = append(rows, row)
	}
	return rows, malformed, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return rows, nil
}
