package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/schemalock-cli/internal/features"
	"github.com/KaramelBytes/schemalock-cli/internal/metadata"
	"github.com/KaramelBytes/schemalock-cli/internal/source"
)

var (
	schemaJSON    bool
	schemaDataset datasetFlags
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect or verify a saved feature schema",
}

var schemaShowCmd = &cobra.Command{
	Use:   "show [metadata.json]",
	Short: "Show a saved feature schema (default path from config)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := metadata.Load(metadataPathArg(args, 0))
		if err != nil {
			return err
		}
		if schemaJSON {
			b, err := doc.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		}
		renderSchema(cmd.OutOrStdout(), doc)
		return nil
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check <metadata.json> <dataset>",
	Short: "Verify that every saved feature still exists in a dataset",
	Long: `Reload a saved feature schema and verify that each feature column exists in the
dataset under exactly the saved name. Exits non-zero when any column is missing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := metadata.Load(args[0])
		if err != nil {
			return err
		}
		tbl, err := schemaDataset.open(cmd.Context(), args[1])
		if err != nil {
			return err
		}
		missing := checkSchema(cmd.OutOrStdout(), doc, tbl)
		if missing > 0 {
			return fmt.Errorf("%d feature column(s) missing from %s", missing, tbl.Name)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ All %d features present in %s\n", len(doc.Features()), tbl.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaCheckCmd)
	schemaShowCmd.Flags().BoolVar(&schemaJSON, "json", false, "print the raw JSON document")
	schemaDataset.register(schemaCheckCmd)
}

func metadataPathArg(args []string, i int) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}
	return cfg.MetadataPath
}

// checkSchema renders one row per saved feature and returns how many are
// absent from tbl. Numerical features whose column is no longer numeric or
// boolean are flagged but not counted as missing.
func checkSchema(w io.Writer, doc *metadata.Document, tbl *source.Table) int {
	present := make(map[string]struct{}, len(tbl.Cols))
	for _, c := range tbl.Columns() {
		present[c] = struct{}{}
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Feature", "Kind", "Status"})

	missing := 0
	check := func(name, kind string) {
		status := "✓ ok"
		if _, ok := present[name]; !ok {
			status = "✗ missing"
			missing++
			log.Warn("feature column missing", "feature", name, "dataset", tbl.Name)
		} else if kind == "numerical" && tbl.Kind(name) == features.KindOther {
			status = "⚠ not numeric"
		}
		t.AppendRow(table.Row{name, kind, status})
	}
	for _, c := range doc.FeatureSchema.Categorical {
		check(c, "categorical")
	}
	for _, n := range doc.FeatureSchema.Numerical {
		check(n, "numerical")
	}
	t.Render()
	return missing
}
