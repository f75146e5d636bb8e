package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/careercrawl/internal/audit"
	"github.com/amishk599/careercrawl/internal/crawler"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Preview the changes a crawl would make (TUI)",
	Long:  "Shows the company picker TUI, crawls the chosen company without writing, and prints its reconciliation plan.",
	RunE:  runAuditCmd,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAuditCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Log output while the TUI is running corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := buildApp(context.Background(), cfg, silentLogger, appOptions{dryRun: true})
	if err != nil {
		return err
	}
	defer a.Close()

	targets, err := a.targets(context.Background())
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("No enabled companies in config.")
		return nil
	}

	opts := a.runOptions()
	opts.PlanOnly = true

	for {
		choice, err := audit.RunCompanyPicker(targets)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if choice < 0 {
			return nil
		}
		target := targets[choice]

		res, err := audit.RunLoader(target.CompanyName, cfg.Crawl.CompanyTimeout, func(ctx context.Context) (crawler.CompanyResult, error) {
			return a.crawler.CrawlCompany(ctx, target, opts), nil
		})
		if err != nil {
			fmt.Printf("Audit cancelled: %v\n", err)
			return nil
		}
		fmt.Println(audit.Report(res))
	}
}
