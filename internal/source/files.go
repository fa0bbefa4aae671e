package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/schemalock-cli/internal/analysis"
)

type csvOpener struct{}

func (csvOpener) CanOpen(path string) bool { return hasSuffixFold(path, ".csv", ".tsv") }

func (csvOpener) Open(_ context.Context, spec Spec) (*Table, error) {
	if err := requireFile(spec.Path); err != nil {
		return nil, err
	}
	opt := spec.Profile
	if spec.Delimiter != 0 {
		opt.Delimiter = spec.Delimiter
	}
	p, err := analysis.ProfileCSV(spec.Path, opt)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", spec.Path, err)
	}
	spec.Logger.Debug("profiled csv", slog.String("path", spec.Path), slog.Int("rows", p.Rows), slog.Int("columns", len(p.Cols)))
	return fromProfile(p), nil
}

type xlsxOpener struct{}

func (xlsxOpener) CanOpen(path string) bool { return hasSuffixFold(path, ".xlsx") }

func (xlsxOpener) Open(_ context.Context, spec Spec) (*Table, error) {
	if err := requireFile(spec.Path); err != nil {
		return nil, err
	}
	p, err := analysis.ProfileXLSX(spec.Path, spec.Profile, spec.Sheet, spec.SheetIndex)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", spec.Path, err)
	}
	if spec.Sheet != "" {
		p.Name = fmt.Sprintf("%s (sheet: %s)", p.Name, spec.Sheet)
	}
	spec.Logger.Debug("profiled xlsx", slog.String("path", spec.Path), slog.String("sheet", spec.Sheet), slog.Int("rows", p.Rows))
	return fromProfile(p), nil
}
