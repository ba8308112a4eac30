// Package keywords provides the "sheetcheck keywords" command.
package keywords

import (
	"github.com/spf13/cobra"

	"github.com/klytics/sheetcheck/internal/config"
	"github.com/klytics/sheetcheck/internal/output"
	"github.com/klytics/sheetcheck/internal/rules"
)

// NewCommand creates the "keywords" command.
func NewCommand(cfg *config.Config) *cobra.Command {
	var keywordsFile string

	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Print the active formula risk keywords",
		Long: `Prints the keyword set used to select formula cells for scoring.
A formula is extracted as a finding when its text contains any keyword,
case-insensitively. Override the set with a YAML file holding a
"keywords" list.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")

			rs := rules.Default()
			if keywordsFile != "" {
				var err error
				rs, err = rules.Load(keywordsFile)
				if err != nil {
					return err
				}
			}

			w := output.NewWriter(jsonFlag)
			if jsonFlag {
				return w.WriteResult(map[string]any{"keywords": rs.Keywords()})
			}
			for _, k := range rs.Keywords() {
				if err := w.WriteLn(k); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keywordsFile, "keywords-file", cfg.KeywordsFile, "YAML file overriding the risk keyword set")

	return cmd
}
