package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	inputPath   string
	keywordFlag string
	noAI        bool
	concurrency int
)

var rootCmd = &cobra.Command{
	Use:   "gmaps-cleaner",
	Short: "Filter business-listing exports by category with AI assistance",
	Long: `gmaps-cleaner loads a CSV or Excel export of business listings, optionally
pre-filters it on rating thresholds, classifies each distinct business
category against your search criteria with an LLM, lets you refine the
selection, and writes the filtered rows back out (optionally split into
batches).`,
	SilenceUsage: true,
	RunE:         runClean,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "path to the CSV/TSV/XLSX file to analyze")
	rootCmd.Flags().StringVarP(&keywordFlag, "keyword", "k", "", "search criteria (prompted when omitted)")
	rootCmd.Flags().BoolVar(&noAI, "no-ai", false, "skip AI classification and export the pre-filtered rows")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 0, "max concurrent classification requests (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
