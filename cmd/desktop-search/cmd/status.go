package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	dserrors "github.com/radhakrish-venkat/desktop-search/internal/errors"
	"github.com/radhakrish-venkat/desktop-search/internal/fingerprint"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		stats, err := eng.Stats()
		if err != nil {
			if dserrors.GetCode(err) == dserrors.ErrCodeFileNotFound {
				fmt.Println("No index exists yet. Run 'desktop-search index' first.")
				return nil
			}
			return err
		}

		fmt.Printf("Documents:    %d\n", stats.TotalFiles)
		fmt.Printf("Unique terms: %d\n", stats.UniqueTerms)
		fmt.Printf("Last pass:    %d new, %d modified, %d deleted, %d skipped\n",
			stats.NewFiles, stats.ModifiedFiles, stats.DeletedFiles, stats.SkippedFiles)

		fps, err := fingerprint.Open(cfg.FingerprintPath())
		if err == nil {
			defer fps.Close()
			if last, err := fps.LastUpdated(cmd.Context()); err == nil && !last.IsZero() {
				fmt.Printf("Last updated: %s\n", last.Format("2006-01-02 15:04:05"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
