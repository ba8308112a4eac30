// Package cmd contains all CLI commands for the sheetcheck binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cmdcompletion "github.com/klytics/sheetcheck/cmd/completion"
	"github.com/klytics/sheetcheck/cmd/doctor"
	cmdhistory "github.com/klytics/sheetcheck/cmd/history"
	"github.com/klytics/sheetcheck/cmd/keywords"
	cmdscan "github.com/klytics/sheetcheck/cmd/scan"
	"github.com/klytics/sheetcheck/cmd/version"
	"github.com/klytics/sheetcheck/internal/config"
)

var (
	jsonOutput bool
	verbose    bool
	modelName  string
	provider   string
	noColor    bool
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		cfg = &config.Config{Provider: "anthropic", RemoveThreshold: 5}
	}

	rootCmd := &cobra.Command{
		Use:   "sheetcheck",
		Short: "AI-assisted macro and formula safety scanner for spreadsheets",
		Long: `Sheetcheck — find out what a spreadsheet would really do.

Scans .xlsx, .xlsm, and .ods files for VBA macros and risk-associated
formulas, scores every finding 1-10 through an AI provider, and writes a
Markdown report plus a sanitized copy with flagged cells neutralized.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor || !cfg.Output.Color {
				color.NoColor = true
			}
		},
	}

	// Global persistent flags
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", defaultModel(cfg), "AI model name override")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", defaultProvider(cfg), "AI provider: anthropic | openai | ollama")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable ANSI color output")

	// Register subcommands
	rootCmd.AddCommand(cmdscan.NewCommand(cfg))
	rootCmd.AddCommand(keywords.NewCommand(cfg))
	rootCmd.AddCommand(cmdhistory.NewCommand())
	rootCmd.AddCommand(doctor.NewCommand())
	rootCmd.AddCommand(cmdcompletion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func defaultModel(cfg *config.Config) string {
	if m := os.Getenv("SHEETCHECK_MODEL"); m != "" {
		return m
	}
	return cfg.Model
}

func defaultProvider(cfg *config.Config) string {
	if p := os.Getenv("SHEETCHECK_PROVIDER"); p != "" {
		return p
	}
	if cfg.Provider != "" {
		return cfg.Provider
	}
	return "anthropic"
}
