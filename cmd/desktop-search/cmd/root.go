// Package cmd implements the desktop-search command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/radhakrish-venkat/desktop-search/internal/config"
	"github.com/radhakrish-venkat/desktop-search/internal/engine"
	"github.com/radhakrish-venkat/desktop-search/internal/logging"
)

var (
	cfgPath   string
	debugMode bool

	cfg        *config.Config
	logCleanup = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "desktop-search",
	Short: "Local-first document search",
	Long: `desktop-search indexes documents from local directories and
configured remote sources into a single searchable index, kept fresh
with incremental passes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.Logging.Level
		logCfg.WriteToStderr = cfg.Logging.Console
		if debugMode {
			logCfg.Level = "debug"
			logCfg.WriteToStderr = true
		}

		logCleanup, err = logging.SetupDefault(logCfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logCleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging to stderr")
}

// newEngine builds an engine from the loaded config.
func newEngine() (*engine.Engine, error) {
	return engine.New(engine.Options{
		SnapshotPath:    cfg.SnapshotPath(),
		FingerprintPath: cfg.FingerprintPath(),
		LockPath:        cfg.LockPath(),
		Workers:         cfg.Index.Workers,
		CacheSize:       cfg.Search.CacheSize,
	})
}

func warnRemotesUnsupported() {
	if len(cfg.Sources.Remotes) > 0 {
		slog.Warn("remote sources are configured but this build has no remote client; indexing local roots only")
	}
}
