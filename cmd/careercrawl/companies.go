package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/careercrawl/internal/adapter"
)

var companiesCmd = &cobra.Command{
	Use:   "companies",
	Short: "List all configured companies",
	Long:  "Reads the config and prints a table of all configured companies with their detected platform.",
	RunE:  runCompanies,
}

func init() {
	rootCmd.AddCommand(companiesCmd)
}

func runCompanies(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	allowed := make(map[string]bool, len(cfg.Retention.AllowList))
	for _, id := range cfg.Retention.AllowList {
		allowed[id] = true
	}

	fmt.Printf("%-20s %-25s %-16s %-9s %s\n", "ID", "Company", "Platform", "Status", "Retention")
	fmt.Println(strings.Repeat("─", 82))

	enabled, disabled := 0, 0
	for _, c := range cfg.Companies {
		status := "enabled"
		if !c.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		retention := cfg.Retention.Window.String()
		if c.KeepStale || allowed[c.ID] || cfg.Retention.Window <= 0 {
			retention = "keep all"
		}
		fmt.Printf("%-20s %-25s %-16s %-9s %s\n", c.ID, c.Name, adapter.Detect(c.CareersURL, ""), status, retention)
	}

	fmt.Printf("\nTotal: %d companies (%d enabled, %d disabled)\n", len(cfg.Companies), enabled, disabled)
	return nil
}
