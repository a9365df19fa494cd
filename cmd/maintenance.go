package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var yesConfirm bool

// cacheCmd is the parent command for cache maintenance.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local roster cache",
}

// cacheClearCmd deletes the cached roster of a country.
var cacheClearCmd = &cobra.Command{
	Use:   "clear <country>",
	Short: "Delete the cached players, assignments and medals of a country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		prompt := fmt.Sprintf("This deletes every cached player, battalion assignment and medal of %s.", args[0])
		if !confirm(yesConfirm, prompt) {
			a.log.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		if err := a.service.Clear(cmd.Context(), args[0], true); err != nil {
			return err
		}
		fmt.Printf("Cache of %s cleared\n", args[0])
		return nil
	},
}

// dbCmd is the parent command for database maintenance.
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and maintain the cache database",
}

// dbInfoCmd prints row counts.
var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache database statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		info, err := a.service.Store().Info(cmd.Context())
		if err != nil {
			return err
		}
		info.Location = a.dbLocation()
		if jsonOutput {
			return printJSON(os.Stdout, info)
		}

		tw := newTable(os.Stdout)
		fmt.Fprintf(tw, "Driver\t%s\n", info.Driver)
		fmt.Fprintf(tw, "Location\t%s\n", info.Location)
		fmt.Fprintf(tw, "Countries\t%d\n", info.Countries)
		fmt.Fprintf(tw, "Players\t%d\n", info.Players)
		fmt.Fprintf(tw, "Medals\t%d\n", info.Medals)
		if info.SizeBytes > 0 {
			fmt.Fprintf(tw, "Size\t%s\n", humanize.Bytes(uint64(info.SizeBytes)))
		}
		return tw.Flush()
	},
}

// dbVacuumCmd compacts the database.
var dbVacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Compact the cache database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.service.Store().Vacuum(cmd.Context()); err != nil {
			return err
		}
		a.log.Info("Database compacted")
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	dbInfoCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")

	cacheCmd.AddCommand(cacheClearCmd)
	dbCmd.AddCommand(dbInfoCmd)
	dbCmd.AddCommand(dbVacuumCmd)
	RootCmd.AddCommand(cacheCmd)
	RootCmd.AddCommand(dbCmd)
}
