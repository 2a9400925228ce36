// Package scalerstore loads the fitted per-city min-max scalers.
package scalerstore

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// Store holds one validated scaler per canonical city name. It is read-only
// after Load and safe for concurrent use.
type Store struct {
	scalers map[string]*domain.MinMaxScaler
}

// Load reads a JSON object keyed by city name. Paths ending in ".zst" are
// zstd-decompressed first.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler file: %w", err)
	}
	if strings.HasSuffix(path, ".zst") {
		data, err = decompress(data)
		if err != nil {
			return nil, err
		}
	}
	return Parse(data)
}

// Parse decodes and validates the scaler table.
func Parse(data []byte) (*Store, error) {
	var scalers map[string]*domain.MinMaxScaler
	if err := json.Unmarshal(data, &scalers); err != nil {
		return nil, fmt.Errorf("decode scaler file: %w", err)
	}
	for city, s := range scalers {
		if s == nil {
			return nil, fmt.Errorf("scaler for %s is null", city)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("scaler for %s: %w", city, err)
		}
	}
	return &Store{scalers: scalers}, nil
}

// Scaler returns the scaler fitted for city.
func (s *Store) Scaler(city string) (*domain.MinMaxScaler, error) {
	sc, ok := s.scalers[city]
	if !ok {
		return nil, domain.ErrUnknownEntity(city)
	}
	return sc, nil
}

// Cities lists the cities with a fitted scaler, sorted.
func (s *Store) Cities() []string {
	out := make([]string, 0, len(s.scalers))
	for c := range s.scalers {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer decoder.Close()

	out, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}
	return out, nil
}
