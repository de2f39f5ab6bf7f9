package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/radhakrish-venkat/desktop-search/internal/extract"
	"github.com/radhakrish-venkat/desktop-search/internal/source"
)

var indexFull bool

var indexCmd = &cobra.Command{
	Use:   "index [root...]",
	Short: "Build or refresh the search index",
	Long: `Index builds the search index over the configured roots, or over
the roots given as arguments. With an existing index only changed
documents are reprocessed; --full discards it and rebuilds from
scratch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roots := args
		if len(roots) == 0 {
			roots = cfg.Sources.Roots
		}
		if len(roots) == 0 {
			return fmt.Errorf("no roots to index: pass directories or configure sources.roots")
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

		stats, err := eng.Build(cmd.Context(), sources, indexFull)
		if err != nil {
			return err
		}

		fmt.Printf("Indexed %d documents (%d new, %d modified, %d deleted, %d skipped), %d unique terms\n",
			stats.TotalFiles, stats.NewFiles, stats.ModifiedFiles,
			stats.DeletedFiles, stats.SkippedFiles, stats.UniqueTerms)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "rebuild the index from scratch")
	rootCmd.AddCommand(indexCmd)
}

// localSources constructs one local source per root directory.
func localSources(roots []string) ([]source.Source, error) {
	extractor := &extract.Plain{MaxFileSize: cfg.Index.MaxFileSize}
	sources := make([]source.Source, 0, len(roots))
	for _, root := range roots {
		src, err := source.NewLocal(root, extractor, cfg.Index.MaxFileSize)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
