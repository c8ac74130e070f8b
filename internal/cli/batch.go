package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sambitsargam/ChainLens-sub000/internal/pipeline"
	"github.com/sambitsargam/ChainLens-sub000/internal/worker"
)

var (
	concurrency       int
	outputDir         string
	batchTimeout      time.Duration
	batchSkipClassify bool
	batchNoCache      bool
	batchNoFooter     bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <pairs-file>",
	Short: "Compare many article pairs from a file in parallel",
	Long: `Batch runs one comparison per line of the pairs file:
- each non-comment line is "reference<TAB>candidate"
- blank lines and lines starting with # are skipped
- pairs run in parallel with a configurable worker count
- every pair gets its own JSON and Markdown report

Example:
  chainlens batch pairs.tsv
  chainlens batch pairs.tsv --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), map[string]string{
			"concurrency":       "concurrency.workers",
			"max-discrepancies": "classify.max_discrepancies",
		})
	},
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 2, "number of pairs compared at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./chainlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for the batch")
	batchCmd.Flags().Int("max-discrepancies", 10, "discrepancies classified per comparison")
	batchCmd.Flags().BoolVar(&batchSkipClassify, "skip-classify", false, "report the diffs only, without classification")
	batchCmd.Flags().BoolVar(&batchNoCache, "no-cache", false, "disable the embedding cache")
	batchCmd.Flags().BoolVar(&batchNoFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if batchNoCache {
		cfg.Cache.Enabled = false
	}
	if batchNoFooter {
		cfg.Output.IncludeFooter = false
	}

	workers := cfg.Concurrency.Workers

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  ChainLens Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Pairs file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", workers)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	pcfg := pipeline.ConfigFromModel(cfg)
	pcfg.SkipClassification = batchSkipClassify

	p, err := buildPipeline(ctx, cfg, pcfg)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, workers)

	fmt.Fprintf(os.Stderr, "⚙️  Comparing pairs with %d workers...\n\n", workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for i, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ line %d %s: %v\n", result.Pair.Line, result.Pair, result.Error)
			continue
		}

		slug := fmt.Sprintf("%03d-%s", i+1, sanitizeFilename(result.Report.Topic))
		jsonPath := filepath.Join(outputDir, slug+".json")
		mdPath := filepath.Join(outputDir, slug+".md")

		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Pair, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Pair, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (similarity %.2f, %d discrepancies)\n",
			result.Report.Topic, result.Report.Comparison.GlobalSimilarity, len(result.Report.Discrepancies))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d pairs\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d comparisons failed", failureCount)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a report topic into a safe file name stem
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")
	if s == "" {
		s = "report"
	}

	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
