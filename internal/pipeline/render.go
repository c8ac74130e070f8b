package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

const rule = "═══════════════════════════════════════════════════════════"

// Renderer writes reports as JSON, Markdown and a terminal summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderReport writes the requested files and prints the summary to w.
// Empty paths are skipped.
func (r *Renderer) RenderReport(w io.Writer, report *model.Report, jsonPath, mdPath string) error {
	if jsonPath != "" {
		if err := r.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote JSON: %s\n", jsonPath)
	}

	if mdPath != "" {
		if err := r.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(w, "✓ Wrote Markdown: %s\n", mdPath)
	}

	r.RenderSummary(w, report)
	return nil
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	var buf bytes.Buffer
	if err := r.WriteJSON(&buf, report); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// WriteJSON encodes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, []byte(r.Markdown(report)))
}

// Markdown renders the report as a Markdown document
func (r *Renderer) Markdown(report *model.Report) string {
	var sb strings.Builder
	cmp := report.Comparison

	fmt.Fprintf(&sb, "# ChainLens report: %s\n\n", orDash(report.Topic))
	fmt.Fprintf(&sb, "- **Reference:** %s\n", orDash(report.ReferenceTitle))
	fmt.Fprintf(&sb, "- **Candidate:** %s\n", orDash(report.CandidateTitle))
	fmt.Fprintf(&sb, "- **Global similarity:** %.2f (%s", cmp.GlobalSimilarity, cmp.Method)
	if cmp.Stats.EmbeddingProvider != "" {
		fmt.Fprintf(&sb, " via %s", cmp.Stats.EmbeddingProvider)
	}
	sb.WriteString(")\n")
	fmt.Fprintf(&sb, "- **Sentences:** %d reference, %d candidate\n", cmp.Stats.SourceCount, cmp.Stats.TargetCount)
	fmt.Fprintf(&sb, "- **Unmatched:** %d added in candidate, %d missing from candidate\n", cmp.Stats.AddedCount, cmp.Stats.MissingCount)
	fmt.Fprintf(&sb, "- **Generated:** %s (`%s`)\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"), report.ID)

	if len(report.Warnings) > 0 {
		sb.WriteString("## Warnings\n\n")
		for _, w := range report.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
		sb.WriteString("\n")
	}

	if len(report.Discrepancies) > 0 {
		r.writeLabelCounts(&sb, report)
		r.writeDiscrepancies(&sb, report.Discrepancies)
	} else {
		writeSentenceList(&sb, "Added in candidate", cmp.AddedInCandidate)
		writeSentenceList(&sb, "Missing from candidate", cmp.MissingInCandidate)
	}

	if r.includeFooter {
		sb.WriteString("---\n\n")
		sb.WriteString("_Generated by ChainLens. Labels are the opinion of the listed models, not verdicts on the truth of either article._\n")
	}

	return sb.String()
}

func (r *Renderer) writeLabelCounts(sb *strings.Builder, report *model.Report) {
	sb.WriteString("## Labels\n\n")
	sb.WriteString("| Label | Count |\n|---|---|\n")
	for _, label := range model.Labels() {
		if n := report.LabelCounts[label]; n > 0 {
			fmt.Fprintf(sb, "| %s | %d |\n", label, n)
		}
	}
	sb.WriteString("\n")
}

func (r *Renderer) writeDiscrepancies(sb *strings.Builder, discrepancies []model.Discrepancy) {
	sb.WriteString("## Discrepancies\n\n")
	for i, d := range discrepancies {
		fmt.Fprintf(sb, "### %d. %s (%s)\n\n", i+1, d.ConsensusLabel, d.Side)
		fmt.Fprintf(sb, "> %s\n\n", d.Claim)

		if d.CounterpartContext != nil {
			fmt.Fprintf(sb, "**Context:** %s\n\n", *d.CounterpartContext)
		}

		fmt.Fprintf(sb, "**Confidence:** %.2f", d.Confidence)
		if d.Disagreement {
			sb.WriteString(" (providers disagree)")
		}
		sb.WriteString("\n\n")

		sb.WriteString("| Provider | Label | Explanation |\n|---|---|---|\n")
		for _, v := range d.Votes {
			if v.Failed() {
				fmt.Fprintf(sb, "| %s | (failed: %s) | %s |\n", v.Provider, orDash(v.ErrorKind), cell(v.Error))
				continue
			}
			fmt.Fprintf(sb, "| %s | %s | %s |\n", v.Provider, v.Label, cell(v.Explanation))
		}
		sb.WriteString("\n")
	}
}

func writeSentenceList(sb *strings.Builder, heading string, sentences []model.Sentence) {
	if len(sentences) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", heading)
	for _, s := range sentences {
		fmt.Fprintf(sb, "- %s\n", s.Text)
	}
	sb.WriteString("\n")
}

// RenderSummary prints a short human summary
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	cmp := report.Comparison

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  ChainLens: %s\n", orDash(report.Topic))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Similarity:    %.2f (%s)\n", cmp.GlobalSimilarity, cmp.Method)
	fmt.Fprintf(w, "Added:         %d\n", cmp.Stats.AddedCount)
	fmt.Fprintf(w, "Missing:       %d\n", cmp.Stats.MissingCount)

	if len(report.Discrepancies) > 0 {
		fmt.Fprintf(w, "Classified:    %d\n", len(report.Discrepancies))
		for _, label := range model.Labels() {
			if n := report.LabelCounts[label]; n > 0 {
				fmt.Fprintf(w, "  %-22s %d\n", label, n)
			}
		}
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warning)
	}
	fmt.Fprintln(w)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// cell flattens text for a Markdown table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
