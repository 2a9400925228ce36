// Command validate checks that the service's data artifacts agree with each
// other before deployment: every catalog city must have climate history, a
// fitted scaler, and every scaler feature present in its trailing window.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -history data/Vietnam_Climate_enhanced_features.xlsx \
//	  -scalers model/scalers_by_city.json \
//	  -meta model/meta_info.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/weather-outlook/internal/adapter/metafile"
	"github.com/couchcryptid/weather-outlook/internal/adapter/scalerstore"
	"github.com/couchcryptid/weather-outlook/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// farFuture stands in for "latest available" when reading history.
var farFuture = domain.NewDate(time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC))

type options struct {
	historyPath string
	sheet       string
	scalerPath  string
	metaPath    string
}

// phase tracks pass/fail for a validation phase. Warnings are reported but
// do not fail the run.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts options
	flag.StringVar(&opts.historyPath, "history", "", "path to the climate history workbook")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet name (default: first sheet)")
	flag.StringVar(&opts.scalerPath, "scalers", "", "path to scalers JSON (.zst allowed)")
	flag.StringVar(&opts.metaPath, "meta", "", "optional meta_info.csv; built-in regions are used when empty")
	flag.Parse()

	if opts.historyPath == "" || opts.scalerPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(opts, os.Stdout); code != 0 {
		os.Exit(code)
	}
}

func run(opts options, w io.Writer) int {
	fmt.Fprintln(w, "=== Weather Outlook Artifact Validation ===")
	fmt.Fprintln(w)

	catalog := domain.DefaultCatalog()
	if opts.metaPath != "" {
		regions, err := metafile.Load(opts.metaPath)
		if err != nil {
			fmt.Fprintf(w, "FATAL: load meta info: %v\n", err)
			return 1
		}
		catalog = domain.NewCatalog(domain.CityAliases, domain.CityBias, regions)
	}

	history, err := xlsx.Open(opts.historyPath, opts.sheet)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load history: %v\n", err)
		return 1
	}

	scalers, err := scalerstore.Load(opts.scalerPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load scalers: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCatalogCoverage(catalog, history, scalers),
		validateWindows(catalog, history, scalers),
		validateOrphans(catalog, history, scalers),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Cities: %d catalog, %d history, %d scalers\n",
		len(catalog.Cities()), len(history.Cities()), len(scalers.Cities()))

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		for _, warning := range p.warnings {
			fmt.Fprintf(w, "  WARN %s\n", warning)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// validateCatalogCoverage checks each catalog city has history and a scaler.
// Short histories are left-padded at forecast time, so they only warn.
func validateCatalogCoverage(catalog *domain.Catalog, history *xlsx.Store, scalers *scalerstore.Store) *phase {
	p := &phase{name: "Catalog coverage"}
	for _, c := range catalog.Cities() {
		if history.Rows(c.Name) == 0 {
			p.errorf("%s: no history rows", c.Name)
		} else if n := history.Rows(c.Name); n < domain.Window {
			p.warnf("%s: only %d history rows, window of %d will be padded", c.Name, n, domain.Window)
		}
		if _, err := scalers.Scaler(c.Name); err != nil {
			p.errorf("%s: %v", c.Name, err)
		}
	}
	return p
}

// validateWindows builds and scales the latest window for every city that
// has both history and a scaler.
func validateWindows(catalog *domain.Catalog, history *xlsx.Store, scalers *scalerstore.Store) *phase {
	p := &phase{name: "Latest window builds and scales"}
	for _, c := range catalog.Cities() {
		scaler, err := scalers.Scaler(c.Name)
		if err != nil || history.Rows(c.Name) == 0 {
			continue
		}
		rows, err := history.History(context.Background(), c.Name, farFuture, domain.Window)
		if err != nil {
			p.errorf("%s: %v", c.Name, err)
			continue
		}
		end := rows[len(rows)-1].Date
		window, err := domain.BuildWindow(c.Name, rows, end, domain.Window, scaler.FeatureNames)
		if err != nil {
			p.errorf("%s: %v", c.Name, err)
			continue
		}
		if _, err := scaler.Transform(window); err != nil {
			p.errorf("%s: %v", c.Name, err)
		}
	}
	return p
}

// validateOrphans flags history or scaler cities the catalog cannot resolve.
func validateOrphans(catalog *domain.Catalog, history *xlsx.Store, scalers *scalerstore.Store) *phase {
	p := &phase{name: "No unresolvable artifact cities"}
	seen := make(map[string]bool)
	for _, name := range append(history.Cities(), scalers.Cities()...) {
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, err := catalog.Resolve(name); err != nil {
			p.errorf("%s: present in artifacts but not in catalog", name)
		}
	}
	return p
}
