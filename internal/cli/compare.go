package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sambitsargam/ChainLens-sub000/internal/pipeline"
)

var (
	outJSON        string
	outMD          string
	topic          string
	requestTimeout time.Duration
	skipClassify   bool
	noCache        bool
	noFooter       bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <reference> <candidate>",
	Short: "Compare a candidate article against a reference article",
	Long: `Compare segments both articles into sentences and finds the ones that have
no close counterpart on the other side:
- sentences added in the candidate
- sentences missing from the candidate

Each discrepancy is then classified by every configured provider and the
votes are aggregated by majority. Articles can be local files (text or HTML)
or http(s) URLs.

Example:
  chainlens compare https://en.wikipedia.org/wiki/Laksa https://grokipedia.com/page/Laksa
  chainlens compare ref.txt cand.txt --json report.json --md report.md
  chainlens compare ref.html cand.html --skip-classify --threshold 0.8`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd.Flags(), compareFlagKeys)
	},
	RunE: runCompare,
}

// Flags that override configuration keys
var compareFlagKeys = map[string]string{
	"threshold":         "compare.embedding_threshold",
	"lexical-threshold": "compare.lexical_threshold",
	"max-sentences":     "compare.max_sentences",
	"max-unmatched":     "compare.max_unmatched",
	"max-discrepancies": "classify.max_discrepancies",
	"providers":         "classify.providers",
	"ua":                "http.user_agent",
	"http-proxy":        "http.http_proxy",
	"https-proxy":       "http.https_proxy",
}

func init() {
	rootCmd.AddCommand(compareCmd)

	// Output flags
	compareCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (JSON goes to stdout when no output path is set)")
	compareCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	compareCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Comparison flags
	compareCmd.Flags().StringVar(&topic, "topic", "", "topic passed to classifiers (default: reference title)")
	compareCmd.Flags().Float64("threshold", 0.85, "embedding similarity at or above which sentences match")
	compareCmd.Flags().Float64("lexical-threshold", 0.90, "lexical similarity at or above which sentences match")
	compareCmd.Flags().Int("max-sentences", 40, "sentences scanned per article")
	compareCmd.Flags().Int("max-unmatched", 10, "stop scanning an article after this many unmatched sentences")
	compareCmd.Flags().Int("max-discrepancies", 10, "discrepancies classified per comparison")
	compareCmd.Flags().StringSlice("providers", nil, "classification providers in priority order (openai, gemini, grok, anthropic, ollama)")
	compareCmd.Flags().BoolVar(&skipClassify, "skip-classify", false, "report the diff only, without classification")
	compareCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the embedding cache")

	// HTTP flags
	compareCmd.Flags().DurationVar(&requestTimeout, "timeout", 5*time.Minute, "overall comparison timeout")
	compareCmd.Flags().String("ua", "", "HTTP User-Agent for article fetches")
	compareCmd.Flags().String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	compareCmd.Flags().String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	pcfg := pipeline.ConfigFromModel(cfg)
	pcfg.Topic = topic
	pcfg.SkipClassification = skipClassify

	if verbose {
		fmt.Fprintf(os.Stderr, "Reference: %s\n", args[0])
		fmt.Fprintf(os.Stderr, "Candidate: %s\n", args[1])
		fmt.Fprintf(os.Stderr, "Timeout:   %v\n", requestTimeout)
		fmt.Fprintf(os.Stderr, "Cache:     %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p, err := buildPipeline(ctx, cfg, pcfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "⚙️  Comparing articles...\n")
	report, err := p.CompareSources(ctx, args[0], args[1])
	if err != nil {
		return fmt.Errorf("compare failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "✓ %d added, %d missing, %d classified\n",
		report.Comparison.Stats.AddedCount, report.Comparison.Stats.MissingCount, len(report.Discrepancies))

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON == "" && outMD == "" {
		if err := renderer.WriteJSON(cmd.OutOrStdout(), report); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		renderer.RenderSummary(os.Stderr, report)
		return nil
	}

	if err := renderer.RenderReport(os.Stderr, report, outJSON, outMD); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	return nil
}
