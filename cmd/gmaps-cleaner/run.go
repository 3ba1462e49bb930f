package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gmapscleaner/internal/classify"
	"gmapscleaner/internal/config"
	"gmapscleaner/internal/export"
	"gmapscleaner/internal/selection"
	"gmapscleaner/internal/store"
	"gmapscleaner/internal/table"
)

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	path := inputPath
	if path == "" {
		if path, err = prompt("Path to the CSV/Excel file to analyze"); err != nil {
			return err
		}
	}
	if path == "" {
		return fmt.Errorf("no input file selected")
	}

	t, err := table.Load(path, cfg.CategoryColumn)
	if err != nil {
		return err
	}
	color.Green("File '%s' loaded successfully. It contains %d rows.", filepath.Base(path), t.Len())

	if !noAI && cfg.APIKey() == "" {
		key, err := prompt(fmt.Sprintf("Enter your %s API key", cfg.LLMProvider))
		if err != nil {
			return err
		}
		if key == "" {
			return fmt.Errorf("API key not provided")
		}
		cfg.SetAPIKey(key)
	}

	var st *store.Store
	if cfg.CacheDBPath != "" {
		st, err = store.Open(cfg.CacheDBPath)
		if err != nil {
			color.Yellow("Classification cache unavailable (%v); continuing without it.", err)
			st = nil
		} else {
			defer st.Close()
		}
	}

	classifier := &classify.Classifier{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.APIKey(),
		Concurrency: cfg.Concurrency,
	}

	for {
		if err := runOnce(cmd.Context(), cfg, classifier, st, t, filepath.Base(path)); err != nil {
			return err
		}
		again, err := confirm("Process another keyword from the same file?", false)
		if err != nil || !again {
			return err
		}
	}
}

// runOnce drives one (file, keyword) pass: pre-filter, classify, refine,
// export. The loaded table is never mutated, so passes are independent.
func runOnce(ctx context.Context, cfg config.Config, classifier *classify.Classifier, st *store.Store, t *table.Table, sourceName string) error {
	startedAt := time.Now()

	filtered, removed, err := interactivePreFilter(t)
	if err != nil {
		return err
	}

	if noAI {
		return exportAndReport(cfg, st, t, filtered, nil, "prefiltered", sourceName, removed, startedAt)
	}

	manual, err := confirm("Manually refine the AI-selected categories afterwards?", false)
	if err != nil {
		return err
	}

	keyword := strings.TrimSpace(keywordFlag)
	if keyword == "" {
		if keyword, err = prompt("Enter the search criteria (e.g. medical weight loss clinic)"); err != nil {
			return err
		}
	}
	if keyword == "" {
		return fmt.Errorf("search criteria not provided")
	}

	categories := selection.DistinctCategories(filtered, cfg.CategoryColumn)
	color.Cyan("Processing %d unique categories from %d rows.", len(categories), filtered.Len())

	results := make(map[string]classify.Result, len(categories))
	remaining := categories
	if st != nil {
		hits, err := st.Lookup(keyword, cfg.LLMProvider, cfg.LLMModel, categories)
		if err != nil {
			log.Printf("cache lookup err=%v", err)
		} else if len(hits) > 0 {
			remaining = make([]string, 0, len(categories)-len(hits))
			for _, cat := range categories {
				if res, ok := hits[cat]; ok {
					results[cat] = res
				} else {
					remaining = append(remaining, cat)
				}
			}
			color.Cyan("%d categories answered from cache.", len(hits))
		}
	}

	cached := len(categories) - len(remaining)
	bar := newProgressBar(len(categories), "Classifying")
	_ = bar.Set(cached)

	fresh := classifier.Classify(ctx, remaining, keyword, func(done, total int) {
		_ = bar.Set(cached + done)
	})
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	for cat, res := range fresh {
		results[cat] = res
		if res.Status != classify.StatusOK {
			color.Yellow("Classification failed for category '%s' (%s): %s", cat, res.Status, res.Reply)
		}
	}
	if st != nil {
		if err := st.SaveResults(keyword, cfg.LLMProvider, cfg.LLMModel, fresh); err != nil {
			log.Printf("cache save err=%v", err)
		}
	}

	relevant := selection.RelevantRows(filtered, cfg.CategoryColumn, results)
	candidates := selection.DistinctCategories(relevant, cfg.CategoryColumn)

	final := relevant
	switch {
	case len(candidates) == 0:
		color.Yellow("No categories were marked as relevant by AI.")
	case manual:
		state := selection.NewState(candidates)
		if err := refineChecklist(state); err != nil {
			return err
		}
		final = state.Finalize(relevant, cfg.CategoryColumn)
		if state.KeptCount() == 0 {
			color.Yellow("No categories selected. No data will be exported.")
		} else {
			color.Green("Manual filtering applied: %d categories selected.", state.KeptCount())
		}
	default:
		color.Green("Using all %d categories marked as relevant by AI.", len(candidates))
	}

	return exportAndReport(cfg, st, t, final, categories, keyword, sourceName, removed, startedAt)
}

// interactivePreFilter loops previewing candidate thresholds until the user
// commits to a pair, mirroring how one tries a few cutoffs before settling.
func interactivePreFilter(t *table.Table) (*table.Table, int, error) {
	if !t.HasRatingColumns() {
		return t, 0, nil
	}

	use, err := confirm("Apply optional rating/count pre-filters?", false)
	if err != nil || !use {
		return t, 0, err
	}

	for {
		ratingIn, err := prompt("Minimum rating (e.g. 4.0, leave blank for none)")
		if err != nil {
			return nil, 0, err
		}
		countIn, err := prompt("Minimum rating count (e.g. 50, leave blank for none)")
		if err != nil {
			return nil, 0, err
		}

		th, warnings := table.ParseThresholds(ratingIn, countIn)
		for _, warning := range warnings {
			color.Yellow("%s", warning)
		}

		candidate, removed := table.PreFilter(t, th)
		fmt.Printf("%d rows remaining with these filters.\n", candidate.Len())

		keep, err := confirm("Keep these filters?", true)
		if err != nil {
			return nil, 0, err
		}
		if keep {
			return candidate, removed, nil
		}
	}
}

// refineChecklist is the terminal counterpart of the checkbox list: toggle
// by number, or all/none/done.
func refineChecklist(state *selection.State) error {
	categories := state.Categories()
	color.Cyan("%d categories have been marked as relevant by AI.", len(categories))

	for {
		for i, cat := range categories {
			mark := " "
			if state.IsKept(cat) {
				mark = "x"
			}
			fmt.Printf("  [%s] %2d. %s\n", mark, i+1, cat)
		}

		input, err := prompt("Toggle a category by number, or 'all', 'none', 'done'")
		if err != nil {
			return err
		}
		switch strings.ToLower(input) {
		case "done", "":
			return nil
		case "all":
			state.SelectAll()
		case "none":
			state.DeselectAll()
		default:
			var n int
			if _, err := fmt.Sscanf(input, "%d", &n); err != nil || n < 1 || n > len(categories) {
				color.Yellow("Enter a number between 1 and %d, or 'all', 'none', 'done'.", len(categories))
				continue
			}
			cat := categories[n-1]
			state.Set(cat, !state.IsKept(cat))
		}
	}
}

func exportAndReport(cfg config.Config, st *store.Store, loaded, final *table.Table, categories []string, keyword, sourceName string, removedByPrefilter int, startedAt time.Time) error {
	batch, err := confirm("Split the export into batches?", false)
	if err != nil {
		return err
	}

	var outPath string
	if batch {
		rows, err := promptInt("Max rows per file", cfg.RowsPerBatch)
		if err != nil || rows < 1 {
			color.Yellow("Invalid batch size; using %d.", cfg.RowsPerBatch)
			rows = cfg.RowsPerBatch
		}
		outPath, err = export.WriteFile(cfg.OutputDir, keyword, final, true, rows)
		if err != nil {
			return err
		}
	} else {
		name, err := promptWithDefault("Output filename", export.BaseName(keyword)+".csv")
		if err != nil {
			return err
		}
		if !strings.HasSuffix(strings.ToLower(name), ".csv") {
			name += ".csv"
		}
		outPath = name
		if !filepath.IsAbs(outPath) {
			outPath = filepath.Join(cfg.OutputDir, name)
		}
		if err := export.WriteCSVPath(outPath, final); err != nil {
			return err
		}
	}

	printStats(loaded.Len(), removedByPrefilter, len(categories), final.Len())

	if st != nil {
		if err := st.RecordRun(store.Run{
			SourceFile: sourceName,
			Keyword:    keyword,
			RowsIn:     loaded.Len(),
			RowsOut:    final.Len(),
			StartedAt:  startedAt,
		}); err != nil {
			log.Printf("record run err=%v", err)
		}
	}

	abs, err := filepath.Abs(outPath)
	if err != nil {
		abs = outPath
	}
	color.Green("DONE. %d rows written to %s", final.Len(), abs)
	return nil
}

func printStats(initial, removedByPrefilter, uniqueCategories, finalRows int) {
	afterPrefilter := initial - removedByPrefilter

	fmt.Println("\n--- Final Statistics ---")
	fmt.Printf("Initial rows in file: %d\n", initial)
	if removedByPrefilter > 0 {
		fmt.Printf("Rows removed by rating/count filter: %d\n", removedByPrefilter)
	}
	fmt.Printf("Rows removed by category filter: %d\n", afterPrefilter-finalRows)
	if uniqueCategories > 0 {
		fmt.Printf("Unique categories processed: %d\n", uniqueCategories)
	}
	fmt.Printf("Rows kept: %d\n", finalRows)
	fmt.Printf("Total rows removed from original file: %d\n", initial-finalRows)
	fmt.Println("------------------------")
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
	)
}
