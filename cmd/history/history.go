// Package history provides the "sheetcheck history" command.
package history

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/sheetcheck/internal/config"
	"github.com/klytics/sheetcheck/internal/history"
	"github.com/klytics/sheetcheck/internal/output"
)

// NewCommand creates the "history" command.
func NewCommand() *cobra.Command {
	var (
		since string
		file  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past scan runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			var sinceTime time.Time
			if since != "" {
				var err error
				sinceTime, err = time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("invalid --since date %q (expected YYYY-MM-DD)", since)
				}
			}

			store := history.NewStore(config.Dir(), true)
			entries, err := store.ReadEntries()
			if err != nil {
				return err
			}
			entries = history.Filter(entries, sinceTime, file)

			w := output.NewWriter(jsonFlag)
			if jsonFlag {
				return w.WriteResult(entries)
			}

			if len(entries) == 0 {
				return w.WriteLn("No scan history.")
			}
			for _, e := range entries {
				w.WriteLn(fmt.Sprintf("%s  %-40s  %d findings, %d removed, %d unscored (threshold %d, %dms)",
					e.Timestamp.Format("2006-01-02 15:04:05"),
					e.InputFile, e.Findings, e.Removed, e.Unscored, e.Threshold, e.DurationMs))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&since, "since", "", "Only show scans on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&file, "file", "", "Only show scans whose input path contains this substring")

	return cmd
}
