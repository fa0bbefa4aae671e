package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/schemalock-cli/internal/utils"
)

var (
	inspOutput  string
	inspDataset datasetFlags
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dataset>",
	Short: "Show the columns of a dataset and how they classify as features",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := inspDataset.open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		renderColumns(&buf, tbl)
		if tbl.Profile != nil {
			buf.WriteString("\n")
			buf.WriteString(tbl.Profile.Markdown())
		}
		if inspOutput != "" {
			if err := utils.EnsureParentDir(inspOutput); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(inspOutput, buf.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote summary to %s\n", inspOutput)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(buf.Bytes())
		return err
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspOutput, "output", "o", "", "write the summary to a file instead of stdout")
	inspDataset.register(inspectCmd)
}
