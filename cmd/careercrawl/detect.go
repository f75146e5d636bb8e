package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/careercrawl/internal/adapter"
	"github.com/amishk599/careercrawl/internal/model"
)

var detectCmd = &cobra.Command{
	Use:   "detect <careers-url>",
	Short: "Detect the platform of a careers page and list its jobs",
	Long:  "Fetches one careers page, prints the detected platform and the extracted listings. Nothing is written to the store.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	// Detection never touches persisted records.
	cfg.Store.Driver = "memory"

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Crawl.CompanyTimeout)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger, appOptions{dryRun: true})
	if err != nil {
		return err
	}
	defer a.Close()

	target := model.CrawlTarget{CompanyID: "detect", CompanyName: "detect", CareersURL: args[0]}
	start := time.Now()
	res := a.extractor.Extract(ctx, target)

	fmt.Printf("\nurl:      %s\n", target.CareersURL)
	platform := adapter.Detect(target.CareersURL, "")
	if len(res.Jobs) > 0 && res.Jobs[0].Platform != "" {
		platform = res.Jobs[0].Platform
	}
	fmt.Printf("platform: %s\n", platform)
	if res.Company != nil && res.Company.Name != "" {
		fmt.Printf("company:  %s\n", res.Company.Name)
	}
	fmt.Printf("jobs:     %d (%.1fs)\n\n", len(res.Jobs), time.Since(start).Seconds())

	if len(res.Jobs) == 0 {
		return nil
	}
	fmt.Printf("%-45s %-25s %s\n", "Title", "Location", "URL")
	fmt.Println(strings.Repeat("─", 110))
	for _, j := range res.Jobs {
		fmt.Printf("%-45s %-25s %s\n", truncate(j.Title, 45), truncate(j.Location, 25), j.URL)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
