// Package doctor provides the "sheetcheck doctor" command for checking system health.
package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/sheetcheck/internal/config"
)

// Check represents a single health check result.
type Check struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Message string `json:"message"`
}

// NewCommand creates the "doctor" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check system health and dependencies",
		Long:  "Run diagnostic checks to verify sheetcheck is properly configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := runChecks()

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(checks)
			}

			green := color.New(color.FgGreen).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()

			fmt.Println("Sheetcheck Doctor")
			fmt.Println("=================")
			fmt.Println()

			okCount, warnCount, errCount := 0, 0, 0
			for _, c := range checks {
				var icon string
				switch c.Status {
				case "ok":
					icon = green("✓")
					okCount++
				case "warning":
					icon = yellow("!")
					warnCount++
				case "error":
					icon = red("✗")
					errCount++
				}
				fmt.Printf("  %s %s: %s\n", icon, c.Name, c.Message)
			}

			fmt.Println()
			fmt.Printf("  %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

			if errCount > 0 {
				return fmt.Errorf("%d check(s) failed", errCount)
			}
			return nil
		},
	}
}

func runChecks() []Check {
	var checks []Check

	checks = append(checks, Check{
		Name:    "Go Runtime",
		Status:  "ok",
		Message: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH),
	})

	configDir := config.Dir()
	if info, err := os.Stat(configDir); err == nil && info.IsDir() {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "ok",
			Message: configDir,
		})
	} else {
		checks = append(checks, Check{
			Name:    "Config Directory",
			Status:  "warning",
			Message: fmt.Sprintf("%s not found — defaults apply", configDir),
		})
	}

	configFile := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "ok",
			Message: configFile,
		})
	} else {
		checks = append(checks, Check{
			Name:    "Config File",
			Status:  "warning",
			Message: "Not found — defaults apply",
		})
	}

	// Scoring needs at least one reachable provider.
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		checks = append(checks, Check{
			Name:    "AI Provider (Anthropic)",
			Status:  "ok",
			Message: "ANTHROPIC_API_KEY set",
		})
	} else if os.Getenv("OPENAI_API_KEY") != "" {
		checks = append(checks, Check{
			Name:    "AI Provider (OpenAI)",
			Status:  "ok",
			Message: "OPENAI_API_KEY set",
		})
	} else {
		if _, err := exec.LookPath("ollama"); err == nil {
			checks = append(checks, Check{
				Name:    "AI Provider (Ollama)",
				Status:  "ok",
				Message: "Ollama found in PATH",
			})
		} else {
			checks = append(checks, Check{
				Name:    "AI Provider",
				Status:  "error",
				Message: "No provider available — set ANTHROPIC_API_KEY or OPENAI_API_KEY, or install Ollama",
			})
		}
	}

	if cfg, err := config.Load(); err == nil && cfg.KeywordsFile != "" {
		if _, err := os.Stat(cfg.KeywordsFile); err == nil {
			checks = append(checks, Check{
				Name:    "Keywords File",
				Status:  "ok",
				Message: cfg.KeywordsFile,
			})
		} else {
			checks = append(checks, Check{
				Name:    "Keywords File",
				Status:  "error",
				Message: fmt.Sprintf("%s not found", cfg.KeywordsFile),
			})
		}
	}

	return checks
}
