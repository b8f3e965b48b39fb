package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/museum-events/internal/event"
	"github.com/pfrederiksen/museum-events/internal/monitor"
	"github.com/pfrederiksen/museum-events/internal/storage"
)

func newHealthCmd(g *globalOptions) *cobra.Command {
	var (
		format string
		alerts bool
	)

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Print the source health report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := ParseFormat(format)
			if err != nil {
				return err
			}

			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			store, err := storage.New(cfg.Output.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			log, err := store.LoadHealth()
			if err != nil {
				return err
			}

			mon := monitor.New(log, cfg.Thresholds(), nil)
			w := cmd.OutOrStdout()

			if outFormat == FormatJSON {
				return writeJSON(w, struct {
					Log    *monitor.HealthLog `json:"log"`
					Health monitor.Health     `json:"health"`
					Alerts []monitor.Alert    `json:"alerts"`
				}{mon.Log(), mon.CheckHealth(), mon.Alerts()})
			}

			if alerts {
				issue := mon.AlertIssue(mon.Alerts())
				if issue == "" {
					fmt.Fprintln(w, "No alerts.")
					return nil
				}
				fmt.Fprint(w, issue)
				return nil
			}

			fmt.Fprint(w, mon.Report())
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&alerts, "alerts", false, "Print only the alert issue body")

	return cmd
}

func newNormalizeDateCmd(g *globalOptions) *cobra.Command {
	var withTime bool

	cmd := &cobra.Command{
		Use:   "normalize-date TEXT...",
		Short: "Show how date (and time) strings are normalized",
		Example: `  museum-events normalize-date "July 15, 2025" 07/15/2025 "Sat., Sept. 6th"
  museum-events normalize-date --time "6pm-8pm" "noon"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := g.now()
			rows := [][]string{{"INPUT", "RESULT"}}
			for _, raw := range args {
				var result string
				if withTime {
					result = event.NormalizeTime(raw)
				} else if date, ok := event.NormalizeDateAt(raw, now); ok {
					result = date
				} else {
					result = "(unparseable)"
				}
				rows = append(rows, []string{quote(raw), result})
			}
			writeTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&withTime, "time", false, "Normalize times of day instead of dates")

	return cmd
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
