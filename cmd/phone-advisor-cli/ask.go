package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/assistant"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/catalog"
)

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var history []string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the advisor a question, or start an interactive session",
		Long: `Ask sends one question to the assistant and prints the answer.

Without a question it starts an interactive session in which earlier
questions are passed along as conversation history. Type "exit" to leave.`,
		Example: `  phone-advisor ask "best camera phone under 30000"
  phone-advisor ask "compare iPhone 15 Pro vs Pixel 8a" --json
  phone-advisor ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			defer ui.Close()

			if len(args) > 0 {
				_, err := askOnce(ctx, ui, a.Assistant, strings.Join(args, " "), history)
				return err
			}
			return runSession(ctx, ui, a.Assistant, cmd.InOrStdin())
		},
	}

	cmd.Flags().StringArrayVar(&history, "history", nil, "earlier turn to pass as conversation history (repeatable)")

	return cmd
}

// askOnce runs a single turn and renders it.
func askOnce(ctx context.Context, ui *UI, asst *assistant.Assistant, query string, history []string) (*assistant.Response, error) {
	spin := ui.NewSpinner("Thinking...")
	spin.Start()
	start := time.Now()
	resp, err := asst.Process(ctx, query, history)
	spin.Stop()
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("intent", string(resp.Intent)).
		Float64("confidence", resp.Confidence).
		Dur("latency", time.Since(start)).
		Msg("Turn complete")

	if err := renderResponse(ui, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// runSession reads questions line by line until EOF or "exit".
func runSession(ctx context.Context, ui *UI, asst *assistant.Assistant, in io.Reader) error {
	ui.Info("Ask me about phones. Type \"exit\" to quit.")

	var history []string
	scanner := bufio.NewScanner(in)
	for {
		if !ui.jsonMode {
			fmt.Fprint(ui.out, "> ")
		}
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit", "bye":
			ui.Success("Goodbye!")
			return nil
		}

		if _, err := askOnce(ctx, ui, asst, line, history); err != nil {
			if errors.Is(err, assistant.ErrEmptyQuery) {
				continue
			}
			return err
		}
		history = append(history, line)
		ui.Println("")
	}

	return scanner.Err()
}

// renderResponse prints a turn for humans, or as JSON with --json.
func renderResponse(ui *UI, resp *assistant.Response) error {
	if ui.jsonMode {
		return ui.JSON(resp)
	}

	if !resp.Safety.Passed {
		flags := make([]string, len(resp.Safety.Flags))
		for i, f := range resp.Safety.Flags {
			flags[i] = string(f)
		}
		ui.Warning("Request blocked (%s)", strings.Join(flags, ", "))
	}
	if resp.Degraded {
		ui.Warning("Answer degraded, showing top-rated phones")
	}

	ui.Println(resp.Message)

	if len(resp.Phones) > 0 {
		ui.Println("")
		ui.Table(phoneHeaders, phoneRows(resp.Phones))
	}

	if verbose {
		ui.Println("")
		ui.KeyValue("Intent", resp.Intent)
		ui.KeyValue("Confidence", fmt.Sprintf("%.2f", resp.Confidence))
	}
	return nil
}

var phoneHeaders = []string{"ID", "Name", "Price", "Category", "Rating", "Camera", "Performance", "Battery"}

func phoneRows(items []catalog.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.ID,
			it.Name,
			catalog.FormatINR(it.Price.Current),
			string(it.Category),
			fmt.Sprintf("%.1f", it.Rating.Overall),
			fmt.Sprintf("%.1f", it.Rating.Camera),
			fmt.Sprintf("%.1f", it.Rating.Performance),
			fmt.Sprintf("%.1f", it.Rating.Battery),
		})
	}
	return rows
}
