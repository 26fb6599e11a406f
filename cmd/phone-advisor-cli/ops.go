package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/app"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/cache"
	"github.com/spherical-ai/spherical/libs/phone-advisor/internal/monitoring"
)

// newCacheCmd creates the cache subcommand tree.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached generated answers",
	}
	cmd.AddCommand(newCachePurgeCmd())
	return cmd
}

func newCachePurgeCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Drop cached generated answers, e.g. after a catalog import",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			store, err := cache.New(ctx, app.CacheOptions(cfg))
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			n, err := store.Purge(ctx, prefix)
			if err != nil {
				return fmt.Errorf("purge cache: %w", err)
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			if outputJSON {
				return ui.JSON(map[string]interface{}{"removed": n, "prefix": prefix})
			}
			ui.Success("Removed %d cached entries under %q", n, prefix)
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", cache.GenerationPrefix, "key prefix to remove")

	return cmd
}

// newAuditCmd creates the audit subcommand tree.
func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect turn audit events",
	}
	cmd.AddCommand(newAuditTailCmd())
	return cmd
}

func newAuditTailCmd() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream audit events published by running servers (requires the redis cache)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if channel == "" {
				channel = cfg.Audit.Channel
			}
			if channel == "" {
				return fmt.Errorf("no audit channel configured, set audit.channel or --channel")
			}

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := cache.New(ctx, app.CacheOptions(cfg))
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			defer store.Close()

			sub, ok := store.(cache.Subscriber)
			if !ok {
				return fmt.Errorf("cache driver %q does not support pub/sub, use redis", cfg.Cache.Driver)
			}

			events, err := sub.Subscribe(ctx, channel)
			if err != nil {
				return err
			}

			ui := NewUI(cmd.OutOrStdout(), outputJSON, noColor)
			ui.Info("Tailing %s, press Ctrl+C to stop", channel)
			return tailEvents(ctx, ui, events)
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "pub/sub channel (default: audit.channel from config)")

	return cmd
}

// tailEvents prints events until the stream closes or ctx is done.
func tailEvents(ctx context.Context, ui *UI, events <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			if ui.jsonMode {
				fmt.Fprintln(ui.out, string(raw))
				continue
			}

			var ev monitoring.TurnEvent
			if err := json.Unmarshal(raw, &ev); err != nil {
				ui.Warning("Skipping malformed event: %v", err)
				continue
			}
			ui.Println(formatEvent(ev))
		}
	}
}

func formatEvent(ev monitoring.TurnEvent) string {
	line := fmt.Sprintf("%s  %-16s %-16s conf=%.2f results=%d %dms  %q",
		ev.OccurredAt.UTC().Format(time.TimeOnly), ev.Intent, ev.Outcome,
		ev.Confidence, ev.ResultCount, ev.LatencyMs, ev.Query)
	if len(ev.Flags) > 0 {
		line += "  [" + strings.Join(ev.Flags, ",") + "]"
	}
	return line
}
