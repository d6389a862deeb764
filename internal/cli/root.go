package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lazypower/memboost/internal/config"
	"github.com/lazypower/memboost/internal/store"
)

var (
	cfgFile string
	vp      = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "memboost",
	Short: "Memory pressure monitor and reclaimer for a single host",
	Long: `Memboost watches host memory pressure, reclaims cache on demand or
automatically, and records every action in a durable event log.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.memboost/config.yaml)")
	rootCmd.PersistentFlags().String("db", "", "event log database path")
	rootCmd.PersistentFlags().Uint64("threshold-mb", 0, "candidate RSS threshold in MB")
	rootCmd.PersistentFlags().Duration("throttle", 0, "minimum interval between automatic boosts")

	vp.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	vp.BindPFlag("rss_threshold_mb", rootCmd.PersistentFlags().Lookup("threshold-mb"))
	vp.BindPFlag("throttle_interval", rootCmd.PersistentFlags().Lookup("throttle"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(topCmd)
	rootCmd.AddCommand(boostCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	if err := config.Init(vp, cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
}

// resolvePolicy returns the fully-merged policy. Flags not set on the
// command line are ignored by viper, so file and env values survive.
func resolvePolicy() (config.Policy, error) {
	return config.Resolve(vp)
}

// openStore opens the event log at the configured or default path.
func openStore(pol config.Policy) (*store.DB, error) {
	path := pol.Database.Path
	if path == "" {
		var err error
		path, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}
	return store.Open(path)
}
