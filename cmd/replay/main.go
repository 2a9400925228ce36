// Command replay renders outlooks from recorded model outputs without a model
// server. Each fixture entry names a city and end date and carries the four
// raw output arrays; replay runs decoding, event detection, and summary
// composition exactly as the service does and writes the outlooks as JSON.
//
// Usage:
//
//	go run ./cmd/replay \
//	  -in testdata/model_outputs.json \
//	  -out testdata/outlooks_golden.json \
//	  -meta model/meta_info.csv
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/couchcryptid/weather-outlook/internal/adapter/metafile"
	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// fixture is one recorded model response.
type fixture struct {
	City    string `json:"city"`
	EndDate string `json:"end_date"`
	domain.ModelOutput
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to recorded model outputs (JSON array)")
	out := flag.String("out", "", "output path for outlooks (default stdout)")
	meta := flag.String("meta", "", "optional meta_info.csv; built-in regions are used when empty")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	catalog := domain.DefaultCatalog()
	if *meta != "" {
		regions, err := metafile.Load(*meta)
		if err != nil {
			return err
		}
		catalog = domain.NewCatalog(domain.CityAliases, domain.CityBias, regions)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures []fixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	outlooks, err := replay(catalog, fixtures)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(outlooks); err != nil {
		return fmt.Errorf("write outlooks: %w", err)
	}
	log.Printf("replayed %d fixtures", len(outlooks))
	return nil
}

func replay(catalog *domain.Catalog, fixtures []fixture) ([]domain.Outlook, error) {
	composer := domain.NewComposer(catalog)
	outlooks := make([]domain.Outlook, 0, len(fixtures))

	for i, fx := range fixtures {
		profile, err := catalog.Resolve(fx.City)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: %w", i, err)
		}
		end, err := domain.ParseDate(fx.EndDate)
		if err != nil {
			return nil, fmt.Errorf("fixture %d: invalid end_date %q: %w", i, fx.EndDate, err)
		}

		series, err := domain.DecodeForecast(fx.ModelOutput, domain.FutureDates(end, domain.Horizon))
		if err != nil {
			return nil, fmt.Errorf("fixture %d (%s): %w", i, profile.Name, err)
		}
		events := domain.DetectEvents(series)

		outlooks = append(outlooks, domain.Outlook{
			City:         profile.Name,
			Region:       profile.Region,
			SelectedDate: end.String(),
			HorizonDays:  len(series),
			Forecast:     series,
			Summary:      composer.Compose(profile.Name, end.String(), series, events),
			Events:       events,
		})
	}
	return outlooks, nil
}
