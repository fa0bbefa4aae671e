package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/features"
	"github.com/KaramelBytes/schemalock-cli/internal/metadata"
	"github.com/KaramelBytes/schemalock-cli/internal/source"
)

var (
	sanCategorical []string
	sanNumerical   []string
	sanBlocklist   []string
	sanDropPart    bool
	sanTarget      string
	sanOutput      string
	sanNoSave      bool
	sanLow         string
	sanHigh        string
	sanJSON        bool
	sanDataset     datasetFlags
)

var sanitizeCmd = &cobra.Command{
	Use:   "sanitize <dataset>",
	Short: "Resolve feature lists against a dataset and save the feature schema",
	Long: `Resolve requested categorical and numerical features against the dataset's actual
column names, drop blocklisted and target columns, add the remaining numeric and
boolean columns as numerical features, and save the result as JSON metadata.

Datasets: .csv, .tsv, .xlsx, .parquet, sqlite:<file>, duckdb:<file>, postgres://...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := sanDataset.open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		req, err := sanitizeRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		out, err := runSanitize(tbl, req)
		if err != nil {
			return err
		}
		return printSanitize(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, sanJSON)
	},
}

func init() {
	rootCmd.AddCommand(sanitizeCmd)
	f := sanitizeCmd.Flags()
	f.StringSliceVarP(&sanCategorical, "categorical", "c", nil, "categorical feature names (repeatable or comma-separated)")
	f.StringSliceVarP(&sanNumerical, "numerical", "n", nil, "numerical feature names (repeatable or comma-separated)")
	f.StringSliceVar(&sanBlocklist, "blocklist", nil, "extra columns to exclude, on top of the built-in and configured blocklist")
	f.BoolVar(&sanDropPart, "drop-part", false, "exclude the part-identifier column from both lists")
	f.StringVar(&sanTarget, "target", "", "target column to exclude (default from config, \"price\")")
	f.StringVarP(&sanOutput, "output", "o", "", "metadata file to write (default from config)")
	f.BoolVar(&sanNoSave, "no-save", false, "do not write the metadata file")
	f.StringVar(&sanLow, "low", "", "low threshold to store with the schema (requires --high)")
	f.StringVar(&sanHigh, "high", "", "high threshold to store with the schema (requires --low)")
	f.BoolVar(&sanJSON, "json", false, "print the metadata document as JSON instead of a table")
	sanDataset.register(sanitizeCmd)
}

// sanitizeRequest carries everything one sanitize run needs besides the data.
type sanitizeRequest struct {
	categorical []string
	numerical   []string
	opts        features.Options
	output      string
	save        bool
	thresholds  *metadata.Thresholds
}

type sanitizeOutcome struct {
	dataset string
	result  features.Result
	doc     *metadata.Document
	path    string
	saved   bool
}

func sanitizeRequestFromFlags(cmd *cobra.Command) (sanitizeRequest, error) {
	req := sanitizeRequest{
		categorical: sanCategorical,
		numerical:   sanNumerical,
		opts: features.Options{
			Blocklist:  append(append([]string{}, cfg.Blocklist...), sanBlocklist...),
			DropPart:   cfg.DropPart,
			Target:     cfg.TargetColumn,
			PartColumn: cfg.PartColumn,
		},
		output: cfg.MetadataPath,
		save:   cfg.Persist && !sanNoSave,
	}
	if cmd.Flags().Changed("drop-part") {
		req.opts.DropPart = sanDropPart
	}
	if cmd.Flags().Changed("target") {
		req.opts.Target = sanTarget
	}
	if sanOutput != "" {
		req.output = sanOutput
	}
	switch {
	case sanLow == "" && sanHigh == "":
	case sanLow == "" || sanHigh == "":
		return req, apperr.InvalidValue("--low and --high must be given together")
	default:
		t, err := metadata.ParseThresholds(sanLow, sanHigh)
		if err != nil {
			return req, err
		}
		req.thresholds = t
	}
	return req, nil
}

// runSanitize resolves features against tbl and persists the schema when
// req.save is set.
func runSanitize(tbl *source.Table, req sanitizeRequest) (*sanitizeOutcome, error) {
	res := features.Sanitize(tbl, req.categorical, req.numerical, req.opts)
	log.Info("features resolved",
		"dataset", tbl.Name,
		"categorical", len(res.Categorical),
		"numerical", len(res.Numerical),
		"blocklist", res.Blocklist.Len(),
		"unresolved", len(res.Unresolved))

	schema := metadata.FeatureSchema{Categorical: res.Categorical, Numerical: res.Numerical}
	doc, err := metadata.Save(req.output, schema, res.Blocklist.Entries(), req.thresholds, req.save)
	if err != nil {
		return nil, err
	}
	out := &sanitizeOutcome{dataset: tbl.Name, result: res, doc: doc, path: req.output, saved: doc != nil}
	if doc == nil {
		// Persistence off: build the same document for display.
		if out.doc, err = metadata.Build(schema, res.Blocklist.Entries(), req.thresholds); err != nil {
			return nil, err
		}
	} else {
		log.Info("metadata saved", "path", req.output)
	}
	return out, nil
}

func printSanitize(w, ew io.Writer, out *sanitizeOutcome, asJSON bool) error {
	for _, name := range out.result.Unresolved {
		_, _ = fmt.Fprintf(ew, "⚠ Warning: column %q not found in %s; skipped\n", name, out.dataset)
	}
	if asJSON {
		b, err := out.doc.Encode()
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	_, _ = fmt.Fprintf(w, "Dataset: %s\n", out.dataset)
	renderSchema(w, out.doc)
	if out.saved {
		_, _ = fmt.Fprintf(w, "✓ Saved feature metadata to %s\n", out.path)
	} else {
		_, _ = fmt.Fprintln(w, "Metadata not saved (persistence disabled)")
	}
	if len(out.result.Unresolved) > 0 {
		_, _ = fmt.Fprintf(w, "Skipped: %s\n", strings.Join(out.result.Unresolved, ", "))
	}
	return nil
}
