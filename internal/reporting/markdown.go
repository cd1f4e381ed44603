package reporting

import (
	"fmt"
	"strings"
	"time"
)

// riskiestLimit caps the lowest-score table in the markdown report.
const riskiestLimit = 10

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Wallet Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))

	// Run
	sb.WriteString("## Run\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.Run.RunID))
	sb.WriteString(fmt.Sprintf("| Strategy | %s |\n", r.Run.Strategy))
	sb.WriteString(fmt.Sprintf("| Selection | %s |\n", r.Run.SelectReason))
	sb.WriteString(fmt.Sprintf("| Wallets | %d |\n", r.Run.WalletCount))
	sb.WriteString(fmt.Sprintf("| Skipped Records | %d |\n", r.Run.SkippedRecords))
	sb.WriteString(fmt.Sprintf("| Started | %s |\n", formatMillis(r.Run.StartedAt)))
	sb.WriteString(fmt.Sprintf("| Finished | %s |\n", formatMillis(r.Run.FinishedAt)))
	sb.WriteString("\n")

	// Summary
	sb.WriteString("## Score Summary\n\n")
	if r.Summary.WalletCount == 0 {
		sb.WriteString("No wallets scored.\n\n")
		return sb.String()
	}
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Wallets | %d |\n", r.Summary.WalletCount))
	sb.WriteString(fmt.Sprintf("| Baseline (no borrows) | %d |\n", r.Summary.BaselineCount))
	sb.WriteString(fmt.Sprintf("| Min | %d |\n", r.Summary.Min))
	sb.WriteString(fmt.Sprintf("| Max | %d |\n", r.Summary.Max))
	sb.WriteString(fmt.Sprintf("| Mean | %.2f |\n", r.Summary.Mean))
	sb.WriteString(fmt.Sprintf("| Median | %.2f |\n", r.Summary.Median))
	sb.WriteString(fmt.Sprintf("| Std Dev | %.2f |\n", r.Summary.StdDev))
	sb.WriteString("\n")

	// Distribution
	sb.WriteString("## Distribution\n\n")
	sb.WriteString("| Range | Wallets |\n")
	sb.WriteString("|-------|---------|\n")
	for _, row := range r.Distribution {
		sb.WriteString(fmt.Sprintf("| %d-%d | %d |\n", row.Lower, row.Upper, row.Count))
	}
	sb.WriteString("\n")

	// Riskiest wallets: Scores is sorted DESC, so walk from the tail
	sb.WriteString("## Riskiest Wallets\n\n")
	sb.WriteString("| Wallet | Score |\n")
	sb.WriteString("|--------|-------|\n")
	for i, shown := len(r.Scores)-1, 0; i >= 0 && shown < riskiestLimit; i, shown = i-1, shown+1 {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", r.Scores[i].WalletID, r.Scores[i].Score))
	}
	sb.WriteString("\n")

	return sb.String()
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}
