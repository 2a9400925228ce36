package domain

import (
	"errors"
	"fmt"
)

// MinMaxScaler is a fitted per-city feature scaler. It maps each column to
// (x - min) / (max - min); a column whose fitted range is zero is only shifted.
type MinMaxScaler struct {
	FeatureNames []string  `json:"feature_names"`
	DataMin      []float64 `json:"data_min"`
	DataMax      []float64 `json:"data_max"`
}

// Validate checks that the fitted arrays line up with the feature names.
func (s *MinMaxScaler) Validate() error {
	if len(s.FeatureNames) == 0 {
		return errors.New("scaler has no features")
	}
	if len(s.DataMin) != len(s.FeatureNames) || len(s.DataMax) != len(s.FeatureNames) {
		return fmt.Errorf("scaler shape mismatch: %d features, %d minimums, %d maximums",
			len(s.FeatureNames), len(s.DataMin), len(s.DataMax))
	}
	return nil
}

// Transform returns a scaled copy of window. Every row must have one value
// per feature.
func (s *MinMaxScaler) Transform(window [][]float64) ([][]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([][]float64, len(window))
	for i, row := range window {
		if len(row) != len(s.FeatureNames) {
			return nil, fmt.Errorf("row %d: expected %d features, got %d", i, len(s.FeatureNames), len(row))
		}
		scaled := make([]float64, len(row))
		for j, x := range row {
			span := s.DataMax[j] - s.DataMin[j]
			if span == 0 {
				span = 1
			}
			scaled[j] = (x - s.DataMin[j]) / span
		}
		out[i] = scaled
	}
	return out, nil
}
