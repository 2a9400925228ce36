// Package xlsx loads the daily climate history spreadsheet into an in-memory
// per-city index.
package xlsx

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/weather-outlook/internal/domain"
)

const (
	dateColumn = "date"
	cityColumn = "city"
)

var dateLayouts = []string{
	domain.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01-02-06",
}

// Store is an immutable index of history rows grouped by city and sorted by
// date. It is safe for concurrent use.
type Store struct {
	byCity   map[string][]domain.HistoryRow
	features []string
}

// Open reads the workbook at path. An empty sheet name selects the first
// sheet.
func Open(path, sheet string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open history workbook: %w", err)
	}
	defer f.Close()
	return fromFile(f, sheet)
}

// Read parses a workbook from r.
func Read(r io.Reader, sheet string) (*Store, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("read history workbook: %w", err)
	}
	defer f.Close()
	return fromFile(f, sheet)
}

func fromFile(f *excelize.File, sheet string) (*Store, error) {
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("get rows from sheet %q: %w", sheet, err)
	}
	return buildStore(rows)
}

func buildStore(rows [][]string) (*Store, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("history sheet needs a header row and at least one data row")
	}

	header := rows[0]
	dateIdx, cityIdx := -1, -1
	var featureIdx []int
	var features []string
	for i, name := range header {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case dateColumn:
			dateIdx = i
		case cityColumn:
			cityIdx = i
		case "":
		default:
			featureIdx = append(featureIdx, i)
			features = append(features, name)
		}
	}
	if dateIdx < 0 {
		return nil, fmt.Errorf("column %q not found in climate data", "Date")
	}
	if cityIdx < 0 {
		return nil, fmt.Errorf("column %q not found in climate data", "City")
	}

	byCity := make(map[string][]domain.HistoryRow)
	for n, row := range rows[1:] {
		city := strings.TrimSpace(cell(row, cityIdx))
		if city == "" {
			continue
		}
		date, err := parseDate(cell(row, dateIdx))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}

		values := make(map[string]float64, len(features))
		for k, idx := range featureIdx {
			if v, ok := parseNumber(cell(row, idx)); ok {
				values[features[k]] = v
			}
		}
		byCity[city] = append(byCity[city], domain.HistoryRow{Date: date, Features: values})
	}

	for city := range byCity {
		series := byCity[city]
		sort.SliceStable(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date.Time)
		})
	}

	return &Store{byCity: byCity, features: features}, nil
}

// History returns up to limit rows for city dated on or before end, oldest
// first. An unknown city yields no rows.
func (s *Store) History(_ context.Context, city string, end domain.Date, limit int) ([]domain.HistoryRow, error) {
	series := s.byCity[city]
	n := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(end.Time)
	})
	start := 0
	if limit > 0 && n > limit {
		start = n - limit
	}
	out := make([]domain.HistoryRow, n-start)
	copy(out, series[start:n])
	return out, nil
}

// Columns returns the feature column names in sheet order.
func (s *Store) Columns() []string {
	return append([]string(nil), s.features...)
}

// Cities returns the cities present in the sheet, sorted.
func (s *Store) Cities() []string {
	cities := make([]string, 0, len(s.byCity))
	for c := range s.byCity {
		cities = append(cities, c)
	}
	sort.Strings(cities)
	return cities
}

// Rows returns the number of rows loaded for city.
func (s *Store) Rows(city string) int {
	return len(s.byCity[city])
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

func parseDate(raw string) (domain.Date, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return domain.NewDate(t), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return domain.Date{}, fmt.Errorf("convert date serial %q: %w", raw, err)
		}
		return domain.NewDate(t), nil
	}
	return domain.Date{}, fmt.Errorf("unrecognized date %q", raw)
}

// parseNumber accepts plain numbers and spreadsheet booleans. Blank and text
// cells are reported as absent.
func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	switch strings.ToUpper(raw) {
	case "":
		return 0, false
	case "TRUE":
		return 1, true
	case "FALSE":
		return 0, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
