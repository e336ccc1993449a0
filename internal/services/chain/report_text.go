package chain

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// RenderText formats an analysis as a human-readable report. The layout is
// stable so downstream consumers can diff successive reports.
func RenderText(analysis *Analysis) string {
	var b strings.Builder

	report := analysis.Report
	metrics := analysis.Metrics

	fmt.Fprintf(&b, "Options Chain Analysis: %s\n", report.Ticker)
	fmt.Fprintf(&b, "Date: %s\n\n", report.AnalysisDate.Format("2006-01-02"))

	fmt.Fprintf(&b, "Sentiment: %s (score %.2f, confidence %s)\n",
		titleCase(string(report.Sentiment.Classification)),
		report.Sentiment.Score, report.Sentiment.Confidence)

	if metrics.RatioUnbounded {
		fmt.Fprintf(&b, "Call/Put Ratio: undefined (%s calls, no puts)\n",
			humanize.Comma(int64(metrics.Calls)))
	} else {
		fmt.Fprintf(&b, "Call/Put Ratio: %.2f (%s calls / %s puts)\n",
			metrics.CallPutRatio,
			humanize.Comma(int64(metrics.Calls)),
			humanize.Comma(int64(metrics.Puts)))
	}

	fmt.Fprintf(&b, "Contracts: %s across %s strikes, volume %s\n",
		humanize.Comma(int64(metrics.TotalContracts)),
		humanize.Comma(int64(metrics.DistinctStrikes)),
		humanize.CommafWithDigits(metrics.TotalVolume, 0))

	if report.MaxPain != nil {
		fmt.Fprintf(&b, "Max Pain: %.2f (confidence %s)\n",
			report.MaxPain.Strike, report.MaxPain.Confidence)
	}

	b.WriteString("\n")
	writeLevels(&b, "Support", report.KeyLevels.Support)
	writeLevels(&b, "Resistance", report.KeyLevels.Resistance)

	fmt.Fprintf(&b, "\nRisk: %s", titleCase(string(report.RiskAssessment.Level)))
	if analysis.Risk.HedgingPattern {
		b.WriteString(" (hedging pattern detected)")
	}
	b.WriteString("\n")
	for _, factor := range report.RiskAssessment.Factors {
		fmt.Fprintf(&b, "  - %s\n", factor)
	}

	if len(report.Evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for _, line := range report.Evidence {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	if len(report.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, line := range report.Warnings {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	return b.String()
}

func writeLevels(b *strings.Builder, label string, levels []float64) {
	if len(levels) == 0 {
		fmt.Fprintf(b, "%s: none identified\n", label)
		return
	}
	parts := make([]string, len(levels))
	for i, level := range levels {
		parts[i] = fmt.Sprintf("%.2f", level)
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(parts, ", "))
}

func titleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
