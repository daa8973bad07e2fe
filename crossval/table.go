package crossval

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
)

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

// TablePrint writes one row per strategy with its mean, exclusions and fold scores
func (s Summary) TablePrint(w io.Writer, prefix, indent string, indentGrowth int) error {
	if _, err := fmt.Fprintf(w, "%s%sCross Validation (%s):\n", prefix, strings.Repeat(indent, indentGrowth), s.Metric); err != nil {
		return err
	}
	if len(s.Strategies) == 0 {
		_, err := fmt.Fprintf(w, "%s%sNone\n", prefix, strings.Repeat(indent, indentGrowth+1))
		return err
	}

	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	header := []string{"Strategy", "Mean", "Excluded"}
	for i := range s.Strategies[0].Folds {
		header = append(header, fmt.Sprintf("Fold %d", i))
	}
	if _, err := fmt.Fprintf(tbl, "%s%s%s\t\n", prefix, strings.Repeat(indent, indentGrowth+1), strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, st := range s.Strategies {
		row := []string{st.Name.String(), formatScore(st.Mean), fmt.Sprintf("%d", st.Excluded)}
		for _, v := range st.Folds {
			row = append(row, formatScore(v))
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t\n", prefix, strings.Repeat(indent, indentGrowth+1), strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
