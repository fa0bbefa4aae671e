package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/schemalock-cli/internal/analysis"
	"github.com/KaramelBytes/schemalock-cli/internal/source"
)

// datasetFlags selects what to read from a dataset reference.
type datasetFlags struct {
	table      string
	sheetName  string
	sheetIndex int
	delimiter  string
	decimal    string
	thousands  string
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.table, "table", "", "table name for database sources (schema.table allowed)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX sheet name")
	cmd.Flags().IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX 1-based sheet position in workbook order (default first sheet)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ','|';'|'tab'|'|'")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numeric detection: '.'|'comma'")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator: ','|'.'|'space'")
}

func (f *datasetFlags) spec(path string) (source.Spec, error) {
	spec := source.Spec{
		Path:       path,
		Table:      f.table,
		Sheet:      f.sheetName,
		SheetIndex: f.sheetIndex,
		Logger:     log,
		Profile:    profileOptions(),
	}
	if f.delimiter != "" {
		switch f.delimiter {
		case ",":
			spec.Delimiter = ','
		case "\t", "tab":
			spec.Delimiter = '\t'
		case ";":
			spec.Delimiter = ';'
		case "|", "pipe":
			spec.Delimiter = '|'
		default:
			return spec, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
		}
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		spec.Profile.DecimalSeparator = ','
	case ".", "dot":
		spec.Profile.DecimalSeparator = '.'
	case "":
	default:
		return spec, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		spec.Profile.ThousandsSeparator = ','
	case ".":
		spec.Profile.ThousandsSeparator = '.'
	case "space", " ":
		spec.Profile.ThousandsSeparator = ' '
	case "":
	default:
		return spec, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	return spec, nil
}

func (f *datasetFlags) open(ctx context.Context, path string) (*source.Table, error) {
	spec, err := f.spec(path)
	if err != nil {
		return nil, err
	}
	return source.Open(ctx, spec)
}

func profileOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg == nil {
		return opt
	}
	if cfg.SampleRows > 0 {
		opt.SampleRows = cfg.SampleRows
	}
	if cfg.MaxRows > 0 {
		opt.MaxRows = cfg.MaxRows
	}
	return opt
}
