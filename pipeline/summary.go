package pipeline

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/scigo-housing/pkg/log"
)

// TopFeatures は要約に表示する特徴量の数
const TopFeatures = 5

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
)

// PrintSummary writes the metrics of both partitions (two decimals), the
// cross-validation score if any, and the top features to w.
func PrintSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, bold("Model performance"))
	for _, name := range []string{log.PartitionTraining, log.PartitionTest} {
		m, ok := r.Reports[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  %-9s MSE: %s  RMSE: %s  R2: %s\n",
			name,
			green(fmt.Sprintf("%.2f", m.MSE)),
			green(fmt.Sprintf("%.2f", m.RMSE)),
			green(fmt.Sprintf("%.2f", m.R2)),
		)
	}

	if r.CV != nil {
		fmt.Fprintf(w, "  %s (%s, %d folds): %s ± %.2f\n",
			"cv", r.CV.Scoring, len(r.CV.Scores),
			yellow(fmt.Sprintf("%.2f", r.CV.Mean)), r.CV.Std)
	}

	n := min(TopFeatures, len(r.Ranking))
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("Top %d features", n)))
	for i, fi := range r.Ranking[:n] {
		fmt.Fprintf(w, "  %d. %-8s %s\n", i+1, fi.Feature, cyan(fmt.Sprintf("%.2f", fi.Importance)))
	}
}
