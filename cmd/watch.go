package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apperr "github.com/KaramelBytes/schemalock-cli/internal/errors"
	"github.com/KaramelBytes/schemalock-cli/internal/source"
	"github.com/KaramelBytes/schemalock-cli/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <dataset>",
	Short: "Re-run sanitize whenever a dataset file changes",
	Long: `Run sanitize once, then again each time the dataset file settles after a change.
Accepts the same flags as sanitize. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		req, err := sanitizeRequestFromFlags(cmd)
		if err != nil {
			return err
		}
		file, ok := source.LocalPath(path)
		if !ok {
			return apperr.Unsupported("watch supports local dataset files only, got %q", path)
		}
		w, err := watch.New(file, watch.Options{
			SettleDelay: time.Duration(cfg.WatchSettleMs) * time.Millisecond,
			Logger:      log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
		pass := func(ctx context.Context) {
			tbl, err := sanDataset.open(ctx, path)
			if err == nil {
				var res *sanitizeOutcome
				if res, err = runSanitize(tbl, req); err == nil {
					err = printSanitize(out, errOut, res, sanJSON)
				}
			}
			if err != nil {
				// A half-written file must not end the watch.
				_, _ = fmt.Fprintln(errOut, "✗ Error:", err)
				log.Error("sanitize failed", "path", path, "error", err)
			}
		}
		pass(ctx)
		_, _ = fmt.Fprintf(out, "Watching %s (Ctrl-C to stop)\n", w.Path())
		return w.Run(ctx, pass)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	// watch shares the sanitize flag set and its bound variables.
	watchCmd.Flags().AddFlagSet(sanitizeCmd.Flags())
}
