// Command benchmark fetches every page in the resort registry once and
// reports how each excerpt format and extraction mode shrinks it, so the
// prompt settings can be tuned per registry.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/use-agent/skisnap/cleaner"
	"github.com/use-agent/skisnap/config"
	"github.com/use-agent/skisnap/models"
	"github.com/use-agent/skisnap/prompt"
	"github.com/use-agent/skisnap/scraper"
)

// CLI flags
var (
	registryPath = flag.String("registry", "", "resort registry YAML (default: embedded registry)")
	strategy     = flag.String("strategy", "", "fetch strategy override: static, rendered or auto")
	runs         = flag.Int("runs", 3, "reductions per variant for averaging")
	output       = flag.String("output", "benchmark-results.json", "JSON output file path")
)

var (
	formats  = []string{cleaner.FormatHTML, cleaner.FormatMarkdown, cleaner.FormatText}
	extracts = []string{cleaner.ExtractNone, cleaner.ExtractReadability, cleaner.ExtractPruning}
)

// --- Benchmark result types ---

type variantResult struct {
	Format         string  `json:"format"`
	Extract        string  `json:"extract"`
	AvgReduceMs    float64 `json:"avg_reduce_ms"`
	OriginalTokens int     `json:"original_tokens"`
	ReducedTokens  int     `json:"reduced_tokens"`
	SavingsPercent float64 `json:"savings_percent"`
	ContentLength  int     `json:"content_length"`
	Truncated      bool    `json:"truncated"`
}

type pageResult struct {
	Resort   string          `json:"resort"`
	Section  models.Section  `json:"section"`
	URL      string          `json:"url"`
	FetchMs  int64           `json:"fetch_ms"`
	Success  bool            `json:"success"`
	Variants []variantResult `json:"variants,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	Strategy   string       `json:"strategy"`
	RunsPerVar int          `json:"runs_per_variant"`
	MaxChars   int          `json:"max_chars"`
	Results    []pageResult `json:"results"`
}

func main() {
	flag.Parse()
	cfg := config.Load()

	registry, err := config.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sc, err := scraper.New(cfg.Fetch, cfg.Browser)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer sc.Close()

	strat, err := scraper.ParseStrategy(*strategy, sc.DefaultStrategy())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== skisnap Reduction Benchmark ===")
	fmt.Printf("Resorts:   %d\n", len(registry))
	fmt.Printf("Strategy:  %s\n", strat)
	fmt.Printf("Runs/var:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Strategy:   string(strat),
		RunsPerVar: *runs,
		MaxChars:   cfg.Prompt.MaxChars,
	}

	reducer := cleaner.NewReducer()
	for _, rc := range registry {
		for _, section := range []models.Section{models.SectionLifts, models.SectionWeather} {
			url := rc.URL(section)
			if url == "" {
				continue
			}
			fmt.Printf("Fetching [%s/%s] %s ... ", rc.Name, section, url)

			pr := pageResult{Resort: rc.Name, Section: section, URL: url}
			start := time.Now()
			html, ok := sc.Fetch(context.Background(), url, strat)
			pr.FetchMs = time.Since(start).Milliseconds()
			if !ok {
				fmt.Println("FAILED")
				report.Results = append(report.Results, pr)
				continue
			}
			fmt.Printf("OK  %dms\n", pr.FetchMs)

			pr.Success = true
			for _, format := range formats {
				for _, extract := range extracts {
					pr.Variants = append(pr.Variants, benchmarkVariant(reducer, html, url, cleaner.Options{
						Selector: rc.Selector(section),
						Strip:    cfg.Prompt.StripSelectors,
						Extract:  extract,
						Format:   format,
					}, cfg.Prompt.MaxChars))
				}
			}
			report.Results = append(report.Results, pr)
		}
	}

	fmt.Println()
	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func benchmarkVariant(r *cleaner.Reducer, html, url string, opts cleaner.Options, maxChars int) variantResult {
	vr := variantResult{Format: opts.Format, Extract: opts.Extract}

	n := *runs
	if n < 1 {
		n = 1
	}
	var total time.Duration
	var res cleaner.Result
	for i := 0; i < n; i++ {
		start := time.Now()
		res = r.Reduce(html, url, opts)
		total += time.Since(start)
	}

	vr.AvgReduceMs = float64(total.Microseconds()) / float64(n) / 1000
	vr.OriginalTokens = res.OriginalTokens
	vr.ReducedTokens = res.ReducedTokens
	if res.OriginalTokens > 0 {
		vr.SavingsPercent = 100 * (1 - float64(res.ReducedTokens)/float64(res.OriginalTokens))
	}
	vr.ContentLength = len(res.Content)
	vr.Truncated = prompt.Truncate(res.Content, maxChars) != res.Content
	return vr
}

func printTable(results []pageResult) {
	fmt.Println(strings.Repeat("─", 85))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Page\tFormat\tExtract\tTokens\tSaved\tReduce\tTruncated\n")
	fmt.Fprintf(w, "────\t──────\t───────\t──────\t─────\t──────\t─────────\n")

	for _, r := range results {
		label := r.Resort + "/" + string(r.Section)
		if !r.Success {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\t-\t-\t-\n", label)
			continue
		}
		for _, v := range r.Variants {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f%%\t%.1fms\t%t\n",
				label, v.Format, v.Extract, formatInt(v.ReducedTokens), v.SavingsPercent, v.AvgReduceMs, v.Truncated)
		}
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 85))
}

func formatInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
