package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"malt-scraper/internal/logging"
	"malt-scraper/internal/profiles"
	"malt-scraper/internal/scraper"
	"malt-scraper/internal/scraper/workers"
	"malt-scraper/pkg/utils"
)

var (
	scrapeWorkers int
	scrapeOutput  string
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <profile url>...",
	Short: "Acquire one or more profiles and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScrape,
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeWorkers, "workers", 0, "Concurrent acquisitions (defaults to workers.count)")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "table", "Output format: table or json")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, urls []string) error {
	if scrapeOutput != "table" && scrapeOutput != "json" {
		return fmt.Errorf("unknown output format %q", scrapeOutput)
	}
	if scrapeWorkers <= 0 {
		scrapeWorkers = cfg.Workers.Count
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.GetGlobalLogger()

	pipeline, err := scraper.NewPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	service := profiles.NewService(st.repo, pipeline.Orchestrator, st.locker, logger)
	limiter := workers.NewLimiter(workers.LimiterConfig{
		PerMinute:    cfg.Workers.PerMinute,
		Burst:        cfg.Workers.Burst,
		MaxFailures:  cfg.Workers.MaxFailures,
		ResetTimeout: cfg.Workers.ResetTimeout,
	}, logger)
	pool := workers.NewPool(service, limiter, scrapeWorkers, logger)

	results := pool.Run(ctx, urls)

	out := cmd.OutOrStdout()
	if scrapeOutput == "json" {
		if err := writeJSON(out, results); err != nil {
			return err
		}
	} else {
		renderResults(out, results)
		renderStats(out, pool.Stats(), limiter.State())
	}

	if failed := countFailed(results); failed > 0 {
		return fmt.Errorf("%d of %d profiles failed", failed, len(results))
	}
	return ctx.Err()
}

func countFailed(results []workers.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

type jsonResult struct {
	URL     string      `json:"url"`
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w io.Writer, results []workers.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			out = append(out, jsonResult{URL: r.URL, Message: r.Err.Error(), Kind: utils.ErrorKind(r.Err)})
			continue
		}
		out = append(out, jsonResult{URL: r.URL, Status: true, Message: r.Result.Message, Data: r.Result.Record})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderResults(w io.Writer, results []workers.Result) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Profile", "Result", "Full name", "Title", "Skills", "Experiences", "Duration"})

	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.URL, utils.ErrorKind(r.Err), "", utils.ErrorMessage(r.Err), "", "", utils.FormatDuration(r.Duration)})
			continue
		}

		outcome := "scraped"
		if r.Result.Cached {
			outcome = "cached"
		}
		rec := r.Result.Record
		t.AppendRow(table.Row{rec.ProfileID, outcome, rec.FullName, rec.Title, len(rec.Skills), len(rec.Experience), utils.FormatDuration(r.Duration)})
	}
	t.Render()
}

func renderStats(w io.Writer, stats workers.PoolStats, breaker workers.CircuitState) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Processed", "Successful", "Failed", "Skipped", "Average", "Breaker"})
	t.AppendRow(table.Row{stats.Processed, stats.Successful, stats.Failed, stats.Skipped, utils.FormatDuration(stats.AverageProcessingTime()), breaker.String()})
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
