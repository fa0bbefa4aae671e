package analysis

import (
	"fmt"
	"strings"
)

const maxCellWidth = 80

// Markdown renders the profile as a compact plain-text report.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if p.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", p.Name)
	}
	if p.Rows > 0 {
		if p.Processed > 0 && p.Processed < p.Rows {
			fmt.Fprintf(&b, "Rows: ~%d (processed %d)\n", p.Rows, p.Processed)
		} else {
			fmt.Fprintf(&b, "Rows: %d\n", p.Rows)
		}
	}
	fmt.Fprintf(&b, "Columns: %d\n\n", len(p.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Cols {
		writeColumn(&b, c)
	}

	if len(p.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		writeRow(&b, p.Columns(), safeName)
		seps := make([]string, len(p.Cols))
		for i := range seps {
			seps[i] = "---"
		}
		writeRow(&b, seps, nil)
		for _, row := range p.Samples {
			cells := make([]string, len(p.Cols))
			copy(cells, row)
			writeRow(&b, cells, truncateCell)
		}
	}
	if len(p.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range p.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeColumn(b *strings.Builder, c ColumnProfile) {
	total := c.NonNull + c.Missing
	missPct := 0.0
	if total > 0 {
		missPct = float64(c.Missing) * 100.0 / float64(total)
	}
	name := safeName(c.Name)
	if c.Unit != "" {
		name = fmt.Sprintf("%s [%s]", name, c.Unit)
	}
	fmt.Fprintf(b, "- %s: %s (non-null %d, missing %.1f%%)", name, c.Kind, c.NonNull, missPct)
	switch c.Kind {
	case KindNumeric:
		fmt.Fprintf(b, "; min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
	case KindCategorical:
		if len(c.TopValues) > 0 {
			b.WriteString("; top: ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(b, "%s(%d)", safeVal(kv.Value), kv.Count)
			}
			if c.Unique > len(c.TopValues) {
				fmt.Fprintf(b, "; unique=%d", c.Unique)
			}
		}
	case KindText:
		if len(c.ExampleTexts) > 0 {
			b.WriteString("; e.g., ")
			for i, ex := range c.ExampleTexts {
				if i > 0 {
					b.WriteString(" | ")
				}
				b.WriteString(safeVal(ex))
			}
		}
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string, format func(string) string) {
	b.WriteString("| ")
	for i, c := range cells {
		if i > 0 {
			b.WriteString(" | ")
		}
		if format != nil {
			c = format(c)
		}
		b.WriteString(c)
	}
	b.WriteString(" |\n")
}

func truncateCell(s string) string {
	if len(s) > maxCellWidth {
		s = s[:maxCellWidth-3] + "..."
	}
	return safeVal(s)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
