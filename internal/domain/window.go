package domain

import (
	"sort"
)

// HistoryRow is one day of observed climate features for a city.
type HistoryRow struct {
	Date     Date
	Features map[string]float64
}

// BuildWindow assembles the trailing w-day feature matrix for city ending at
// end, with columns in the order of features. Rows after end are ignored.
// When fewer than w rows remain, the earliest row is repeated at the front so
// the real rows keep their chronological order at the tail. Values stay in
// source units; scaling is the caller's job.
func BuildWindow(city string, rows []HistoryRow, end Date, w int, features []string) ([][]float64, error) {
	selected := make([]HistoryRow, 0, len(rows))
	for _, r := range rows {
		if !r.Date.After(end.Time) {
			selected = append(selected, r)
		}
	}
	if len(selected) == 0 {
		return nil, ErrDataUnavailable(city, end)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Date.Before(selected[j].Date.Time)
	})
	if len(selected) > w {
		selected = selected[len(selected)-w:]
	}

	if missing := missingColumns(selected, features); len(missing) > 0 {
		return nil, ErrMissingFeatureColumns(city, missing)
	}
	for _, r := range selected {
		if blank := blankCells(r, features); len(blank) > 0 {
			return nil, ErrIncompleteHistory(city, r.Date, blank)
		}
	}

	matrix := make([][]float64, 0, w)
	first := featureVector(selected[0], features)
	for i := len(selected); i < w; i++ {
		pad := make([]float64, len(first))
		copy(pad, first)
		matrix = append(matrix, pad)
	}
	for _, r := range selected {
		matrix = append(matrix, featureVector(r, features))
	}
	return matrix, nil
}

// missingColumns lists, in feature order, the names no row carries.
func missingColumns(rows []HistoryRow, features []string) []string {
	var missing []string
	for _, name := range features {
		present := false
		for _, r := range rows {
			if _, ok := r.Features[name]; ok {
				present = true
				break
			}
		}
		if !present {
			missing = append(missing, name)
		}
	}
	return missing
}

func blankCells(r HistoryRow, features []string) []string {
	var blank []string
	for _, name := range features {
		if _, ok := r.Features[name]; !ok {
			blank = append(blank, name)
		}
	}
	return blank
}

func featureVector(r HistoryRow, features []string) []float64 {
	v := make([]float64, len(features))
	for i, name := range features {
		v[i] = r.Features[name]
	}
	return v
}
