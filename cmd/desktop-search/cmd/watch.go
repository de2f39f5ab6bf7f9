package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/radhakrish-venkat/desktop-search/internal/async"
	"github.com/radhakrish-venkat/desktop-search/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [root...]",
	Short: "Watch roots and keep the index fresh",
	Long: `Watch runs an initial indexing pass, then observes the roots for
filesystem changes and triggers incremental passes once a burst of
changes settles. Runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := args
		if len(roots) == 0 {
			roots = cfg.Sources.Roots
		}
		if len(roots) == 0 {
			return fmt.Errorf("no roots to watch: pass directories or configure sources.roots")
		}
		warnRemotesUnsupported()

		sources, err := localSources(roots)
		if err != nil {
			return err
		}

		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		ctx := cmd.Context()
		if _, err := eng.Build(ctx, sources, false); err != nil {
			return err
		}

		// Refreshes are funneled through the runner so a long pass and
		// a new burst never build concurrently.
		runner := async.NewRunner(2)
		defer runner.Shutdown()

		w, err := watcher.New(roots, cfg.Watch.Debounce, func(paths []string) {
			slog.Info("changes settled, refreshing index", slog.Int("paths", len(paths)))
			_, ok := runner.Submit("refresh", func(taskCtx context.Context, progress func(int, int)) error {
				_, err := eng.Build(taskCtx, sources, false)
				return err
			})
			if !ok {
				slog.Debug("refresh already queued, dropping trigger")
			}
		})
		if err != nil {
			return err
		}

		fmt.Printf("Watching %d root(s). Press Ctrl-C to stop.\n", len(roots))
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
