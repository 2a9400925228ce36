// Package metafile reads meta_info.csv, the city → region table written
// alongside the fitted scalers.
package metafile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads the region table at path.
func Load(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open meta info: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a CSV with "city" and "region" header columns in any order.
// Rows with an empty city are skipped; a later duplicate overrides an
// earlier one.
func Read(r io.Reader) (map[string]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("meta info is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read meta info header: %w", err)
	}

	cityIdx, regionIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "city":
			cityIdx = i
		case "region":
			regionIdx = i
		}
	}
	if cityIdx < 0 || regionIdx < 0 {
		return nil, fmt.Errorf("meta info header must contain city and region, got %v", header)
	}

	regions := make(map[string]string)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read meta info: %w", err)
		}
		if cityIdx >= len(rec) || regionIdx >= len(rec) {
			continue
		}
		city := strings.TrimSpace(rec[cityIdx])
		if city == "" {
			continue
		}
		regions[city] = strings.TrimSpace(rec[regionIdx])
	}
	return regions, nil
}
