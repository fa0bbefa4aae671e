package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/KaramelBytes/schemalock-cli/internal/metadata"
	"github.com/KaramelBytes/schemalock-cli/internal/source"
)

// renderSchema prints the feature lists, one row per feature.
func renderSchema(w io.Writer, doc *metadata.Document) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Feature", "Kind"})
	i := 1
	for _, c := range doc.FeatureSchema.Categorical {
		t.AppendRow(table.Row{i, c, "categorical"})
		i++
	}
	for _, n := range doc.FeatureSchema.Numerical {
		t.AppendRow(table.Row{i, n, "numerical"})
		i++
	}
	if i == 1 {
		_, _ = fmt.Fprintln(w, "(no features)")
	} else {
		t.Render()
	}
	_, _ = fmt.Fprintf(w, "Categorical: %d, Numerical: %d\n", len(doc.FeatureSchema.Categorical), len(doc.FeatureSchema.Numerical))
	if len(doc.Blocklist) > 0 {
		_, _ = fmt.Fprintf(w, "Blocklist (%d): %s\n", len(doc.Blocklist), strings.Join(doc.Blocklist, ", "))
	}
	if doc.Thresholds != nil {
		_, _ = fmt.Fprintf(w, "Thresholds: low=%s high=%s\n", formatFloat(doc.Thresholds.Low), formatFloat(doc.Thresholds.High))
	}
}

// renderColumns prints the column layout of an opened dataset.
func renderColumns(w io.Writer, tbl *source.Table) {
	_, _ = fmt.Fprintf(w, "Dataset: %s\n", tbl.Name)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Column", "Type", "Feature kind", "Nullable"})
	for _, c := range tbl.Cols {
		t.AppendRow(table.Row{c.Name, c.Type, c.Kind.String(), c.Nullable})
	}
	t.Render()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
