package cmd

import (
	"fmt"
	"os"

	"github.com/pp9653/warera-ranking-sys/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "warera-ranking",
	Short: "Warera country roster manager",
	Long: `Warera Ranking fetches the weekly damage ranking of a country from the Warera API,
keeps the top players in a local cache and lets officers assign them to battalions
and award weekly medals.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console encoding at debug level gives readable ISO8601 timestamps for CLI errors.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
