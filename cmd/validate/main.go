// Command validate checks upstream casualty dumps offline. Each file is run
// through the same decoding and normalization as the live service, then
// inspected for gaps the normalizer tolerates: cumulative totals that move
// backwards and days missing from the sequence. A chart preview of the
// trailing window is printed for eyeballing.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -gaza data/casualties_daily.json \
//	  -westbank data/west_bank_daily.json \
//	  -as-of 2024-01-15
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
)

// phase tracks pass/fail for a validation phase. Notes are informational
// and never fail a phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	gaza := flag.String("gaza", "", "path to a Gaza daily JSON dump")
	westBank := flag.String("westbank", "", "path to a West Bank daily JSON dump")
	asOf := flag.String("as-of", "", "end the chart preview at this date (YYYY-MM-DD)")
	window := flag.Int("window", domain.DefaultChartWindow, "chart preview window in days")
	flag.Parse()

	files := map[domain.Region]string{}
	if *gaza != "" {
		files[domain.RegionGaza] = *gaza
	}
	if *westBank != "" {
		files[domain.RegionWestBank] = *westBank
	}
	if len(files) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, files, *asOf, *window))
}

func run(out io.Writer, files map[domain.Region]string, asOf string, window int) int {
	fmt.Fprintln(out, "=== Casualty Data Validation ===")

	allPassed := true
	for _, region := range domain.Regions() {
		path, ok := files[region]
		if !ok {
			continue
		}
		fmt.Fprintf(out, "\n--- %s (%s) ---\n", region.Info().Name, path)

		series, load := loadPhase(path)
		phases := []*phase{load}
		if load.passed() {
			phases = append(phases, continuityPhase(series), regressionPhase(series))
		}

		for _, p := range phases {
			status := "\033[32mPASS\033[0m"
			if !p.passed() {
				status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
				allPassed = false
			}
			fmt.Fprintf(out, "  %-36s %s\n", p.name, status)
		}
		for _, p := range phases {
			for i, e := range p.errors {
				fmt.Fprintf(out, "  [%s %d] %s\n", p.name, i+1, e)
			}
			for _, n := range p.notes {
				fmt.Fprintf(out, "  note: %s\n", n)
			}
		}

		if load.passed() {
			printSummary(out, series, region)
			printChart(out, domain.BuildChart(series, window, asOf))
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: decode and normalize ──

func loadPhase(path string) (domain.Series, *phase) {
	p := &phase{name: "Phase 1: Decode + normalize"}

	data, err := os.ReadFile(path)
	if err != nil {
		p.errorf("read: %v", err)
		return nil, p
	}
	raw, err := domain.DecodeRaw(data)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	series, err := domain.Normalize(raw)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	p.notef("%d records from %s to %s", len(series), series[len(series)-1].Date, series[0].Date)
	return series, p
}

// ── Phase 2: day continuity ──

func continuityPhase(series domain.Series) *phase {
	p := &phase{name: "Phase 2: Day continuity"}

	asc := slices.Clone(series)
	slices.Reverse(asc)
	for i := 1; i < len(asc); i++ {
		prev, _ := time.Parse(domain.DateLayout, asc[i-1].Date)
		cur, _ := time.Parse(domain.DateLayout, asc[i].Date)
		if gap := int(cur.Sub(prev).Hours() / 24); gap > 1 {
			p.notef("%d day(s) missing between %s and %s", gap-1, asc[i-1].Date, asc[i].Date)
		}
	}
	return p
}

// ── Phase 3: cumulative regressions ──

func regressionPhase(series domain.Series) *phase {
	p := &phase{name: "Phase 3: Cumulative regressions"}

	asc := slices.Clone(series)
	slices.Reverse(asc)
	for i := 1; i < len(asc); i++ {
		prev, cur := asc[i-1], asc[i]
		if cur.Killed < prev.Killed {
			p.notef("%s: killed fell %d → %d (charted as 0)", cur.Date, prev.Killed, cur.Killed)
		}
		if cur.Injured < prev.Injured {
			p.notef("%s: injured fell %d → %d (charted as 0)", cur.Date, prev.Injured, cur.Injured)
		}
	}
	return p
}

// ── Output ──

func printSummary(out io.Writer, series domain.Series, region domain.Region) {
	sum, ok := domain.Summarize(series, region)
	if !ok {
		return
	}
	fmt.Fprintf(out, "  latest %s (%s): killed %d, injured %d, fingerprint %s\n",
		sum.Date, sum.Source, sum.TotalKilled, sum.TotalInjured, domain.Fingerprint(series, region))
}

func printChart(out io.Writer, c domain.Chart) {
	if len(c.Points) == 0 {
		fmt.Fprintln(out, "  chart: no points in window")
		return
	}
	var peak int64 = 1
	for _, p := range c.Points {
		peak = max(peak, p.Killed)
	}
	fmt.Fprintf(out, "  chart (%d days, daily killed):\n", len(c.Points))
	for _, p := range c.Points {
		bar := strings.Repeat("#", int(p.Killed*40/peak))
		fmt.Fprintf(out, "    %-7s %6d %s\n", p.Label, p.Killed, bar)
	}
}
