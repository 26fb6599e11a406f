package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
)

// newBatchCmd creates the batch subcommand.
func newBatchCmd() *cobra.Command {
	var (
		file    string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run a file of questions and summarize the answers by intent",
		Long: `Batch reads one question per line (blank lines and lines starting
with # are skipped), runs them through the assistant concurrently, and prints
how many landed in each intent along with blocked and degraded turns.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open queries: %w", err)
			}
			queries, err := readQueries(f)
			f.Close()
			if err != nil {
				return err
			}
			if len(queries) == 0 {
				return fmt.Errorf("no queries in %s", file)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			bar := ui.ProgressBar("queries", int64(len(queries)))

			start := time.Now()
			results := runBatch(ctx, a.Assistant, queries, workers, func() {
				if bar != nil {
					bar.Increment()
				}
			})
			ui.Close()

			summary := summarize(results, time.Since(start))
			return renderSummary(ui, summary)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file with one question per line")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "concurrent turns")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// readQueries returns the non-empty, non-comment lines of r.
func readQueries(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return out, nil
}

type batchResult struct {
	Query    string              `json:"query"`
	Response *assistant.Response `json:"response,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// runBatch processes queries on a bounded worker pool. Results keep input
// order. done is called once per finished query.
func runBatch(ctx context.Context, asst *assistant.Assistant, queries []string, workers int, done func()) []batchResult {
	if workers < 1 {
		workers = 1
	}

	results := make([]batchResult, len(queries))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				res := batchResult{Query: queries[i]}
				resp, err := asst.Process(ctx, queries[i], nil)
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Response = resp
				}
				results[i] = res
				if done != nil {
					done()
				}
			}
		}()
	}

	for i := range queries {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

type intentCount struct {
	Intent string `json:"intent"`
	Count  int    `json:"count"`
}

type batchSummary struct {
	Total    int           `json:"total"`
	Intents  []intentCount `json:"intents"`
	Blocked  int           `json:"blocked"`
	Degraded int           `json:"degraded"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"durationNs"`
	Results  []batchResult `json:"results"`
}

// summarize counts results per intent, most frequent first.
func summarize(results []batchResult, elapsed time.Duration) batchSummary {
	s := batchSummary{Total: len(results), Duration: elapsed, Results: results}

	counts := make(map[string]int)
	for _, r := range results {
		if r.Response == nil {
			s.Failed++
			continue
		}
		counts[string(r.Response.Intent)]++
		if !r.Response.Safety.Passed {
			s.Blocked++
		}
		if r.Response.Degraded {
			s.Degraded++
		}
	}

	for intent, n := range counts {
		s.Intents = append(s.Intents, intentCount{Intent: intent, Count: n})
	}
	sort.Slice(s.Intents, func(i, j int) bool {
		if s.Intents[i].Count != s.Intents[j].Count {
			return s.Intents[i].Count > s.Intents[j].Count
		}
		return s.Intents[i].Intent < s.Intents[j].Intent
	})
	return s
}

func renderSummary(ui *UI, s batchSummary) error {
	if ui.jsonMode {
		return ui.JSON(s)
	}

	ui.Section("Batch summary")
	rows := make([][]string, 0, len(s.Intents))
	for _, ic := range s.Intents {
		rows = append(rows, []string{ic.Intent, fmt.Sprintf("%d", ic.Count), fmt.Sprintf("%.0f%%", 100*float64(ic.Count)/float64(s.Total))})
	}
	ui.Table([]string{"Intent", "Count", "Share"}, rows)
	ui.Println("")
	ui.KeyValue("Queries", s.Total)
	ui.KeyValue("Blocked", s.Blocked)
	ui.KeyValue("Degraded", s.Degraded)
	ui.KeyValue("Elapsed", FormatDuration(s.Duration))

	if s.Failed > 0 {
		ui.Error("%d queries failed", s.Failed)
		for _, r := range s.Results {
			if r.Error != "" {
				ui.KeyValue(r.Query, r.Error)
			}
		}
	} else {
		ui.Success("All %d queries answered", s.Total)
	}
	return nil
}
