package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeFixtures creates a workbook with n days for each city and a matching
// scaler file. extraFeature is added to the scalers only.
func writeFixtures(t *testing.T, cities []string, n int, extraFeature string) options {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "City", "PRCP", "HUMID"}))
	row := 2
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, city := range cities {
		for d := 0; d < n; d++ {
			cell, err := excelize.CoordinatesToCellName(1, row)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow("Sheet1", cell, &[]any{
				start.AddDate(0, 0, d).Format("2006-01-02"), city, float64(d % 5), 70.0,
			}))
			row++
		}
	}
	historyPath := filepath.Join(dir, "history.xlsx")
	require.NoError(t, f.SaveAs(historyPath))

	features := `["PRCP", "HUMID"]`
	bounds := `[0, 0]`
	if extraFeature != "" {
		features = `["PRCP", "HUMID", "` + extraFeature + `"]`
		bounds = `[0, 0, 0]`
	}
	scalerJSON := "{"
	for i, city := range cities {
		if i > 0 {
			scalerJSON += ","
		}
		scalerJSON += `"` + city + `": {"feature_names": ` + features + `, "data_min": ` + bounds + `, "data_max": ` + bounds + `}`
	}
	scalerJSON += "}"
	scalerPath := filepath.Join(dir, "scalers.json")
	require.NoError(t, os.WriteFile(scalerPath, []byte(scalerJSON), 0o600))

	metaPath := filepath.Join(dir, "meta_info.csv")
	meta := "city,region\n"
	for _, city := range cities {
		meta += city + ",North\n"
	}
	require.NoError(t, os.WriteFile(metaPath, []byte(meta), 0o600))

	return options{historyPath: historyPath, scalerPath: scalerPath, metaPath: metaPath}
}

func TestRun_AllPass(t *testing.T) {
	opts := writeFixtures(t, []string{"Hanoi", "Hai Phong"}, 60, "")

	var out bytes.Buffer
	code := run(opts, &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "Cities: 2 catalog, 2 history, 2 scalers")
}

func TestRun_ShortHistoryAndMissingFeature(t *testing.T) {
	opts := writeFixtures(t, []string{"Hanoi"}, 10, "PRESSURE")

	var out bytes.Buffer
	code := run(opts, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "WARN Hanoi: only 10 history rows, window of 60 will be padded")
	assert.Contains(t, out.String(), "missing feature columns for Hanoi: [PRESSURE]")
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_ShortHistoryOnlyWarns(t *testing.T) {
	opts := writeFixtures(t, []string{"Hanoi"}, 10, "")

	var out bytes.Buffer
	code := run(opts, &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "PASS (1 warnings)")
	assert.Contains(t, out.String(), "WARN Hanoi: only 10 history rows, window of 60 will be padded")
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_OrphanCity(t *testing.T) {
	opts := writeFixtures(t, []string{"Hanoi"}, 60, "")
	// Catalog only knows Da Nang.
	require.NoError(t, os.WriteFile(opts.metaPath, []byte("city,region\nDa Nang,Central\n"), 0o600))

	var out bytes.Buffer
	code := run(opts, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Da Nang: no history rows")
	assert.Contains(t, out.String(), "Hanoi: present in artifacts but not in catalog")
}

func TestRun_MissingScalerFile(t *testing.T) {
	opts := writeFixtures(t, []string{"Hanoi"}, 60, "")
	opts.scalerPath = filepath.Join(t.TempDir(), "missing.json")

	var out bytes.Buffer
	assert.Equal(t, 1, run(opts, &out))
	assert.Contains(t, out.String(), "FATAL: load scalers")
}
