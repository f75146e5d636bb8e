package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/careercrawl/internal/crawler"
)

var (
	crawlCompany            string
	crawlLimit              int
	crawlConcurrency        int
	crawlCompanyConcurrency int
	crawlNoDetails          bool
	crawlMaxDetailFetches   int
	crawlDryRun             bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl all companies once and exit",
	Long:  "One-shot run: extracts, enriches, normalizes and reconciles every enabled company, then prints a summary.",
	RunE:  runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.StringVar(&crawlCompany, "company", "", "crawl only the company with this id")
	f.IntVar(&crawlLimit, "limit", 0, "crawl at most this many companies")
	f.IntVar(&crawlConcurrency, "concurrency", 0, "detail fetches per enrichment batch (default from config)")
	f.IntVar(&crawlCompanyConcurrency, "company-concurrency", 0, "companies crawled in parallel (default from config)")
	f.BoolVar(&crawlNoDetails, "no-details", false, "skip detail page enrichment")
	f.IntVar(&crawlMaxDetailFetches, "max-detail-fetches", -1, "cap detail fetches per company (default from config)")
	f.BoolVar(&crawlDryRun, "dry-run", false, "compute changes but do not write to the store")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger, appOptions{dryRun: crawlDryRun})
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		return err
	}
	defer a.Close()

	targets, err := a.targets(ctx)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("no companies to crawl")
	}

	opts := a.runOptions()
	opts.CompanyID = crawlCompany
	opts.Limit = crawlLimit
	opts.PlanOnly = crawlDryRun
	if crawlConcurrency > 0 {
		opts.Concurrency = crawlConcurrency
	}
	if crawlCompanyConcurrency > 0 {
		opts.CompanyConcurrency = crawlCompanyConcurrency
	}
	if crawlNoDetails {
		opts.FetchDetails = false
	}
	if crawlMaxDetailFetches >= 0 {
		opts.MaxDetailFetches = crawlMaxDetailFetches
	}

	summary := a.crawler.Run(ctx, targets, opts)
	printSummary(summary)
	if summary.Processed == 0 {
		return fmt.Errorf("no company matched the selection")
	}
	return nil
}

func printSummary(s crawler.Summary) {
	fmt.Printf("\n%-25s %-16s %-8s %5s %5s %5s %5s %5s %5s\n", "Company", "Platform", "Status", "Found", "Kept", "New", "Upd", "Mig", "Del")
	fmt.Println(strings.Repeat("─", 88))
	for _, r := range s.Results {
		fmt.Printf("%-25s %-16s %-8s %5d %5d %5d %5d %5d %5d\n",
			r.CompanyName, r.Platform, r.Status, r.Extracted, r.Kept, r.Inserted, r.Updated, r.Migrated, r.Deleted)
	}
	fmt.Printf("\nProcessed %d companies (%d failed), %d updated, %d new jobs\n",
		s.Processed, s.Failed, s.UpdatedCompanies, s.NewJobsFound)
	if s.Failed > 0 {
		fmt.Fprintln(os.Stderr, "some companies failed, see the log for details")
	}
}
