package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/pp9653/warera-ranking-sys/feature/roster/models"

	"github.com/spf13/cobra"
)

var (
	jsonOutput      bool
	battalionFilter string
)

// fetchCmd refreshes a country from the API.
var fetchCmd = &cobra.Command{
	Use:   "fetch <country>",
	Short: "Fetch the weekly ranking of a country and update the cache",
	Long: `Pages through the weekly damage ranking, intersects it with the country's citizens,
resolves their details and merges the top players into the cache.
Battalion assignments and medals already in the cache are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		view, err := a.service.Refresh(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, view)
		}
		return printRoster(os.Stdout, view, "")
	},
}

// rosterCmd prints the cached roster.
var rosterCmd = &cobra.Command{
	Use:   "roster <country>",
	Short: "Show the cached roster of a country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		view, err := a.service.Roster(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, view)
		}

		filter := ""
		if battalionFilter != "" {
			b, ok := models.NormalizeBattalion(battalionFilter)
			if !ok {
				return fmt.Errorf("unknown battalion %q, expected one of %s or %s",
					battalionFilter, strings.Join(models.Battalions, ", "), models.BattalionUnassigned)
			}
			filter = b
		}
		return printRoster(os.Stdout, view, filter)
	},
}

func init() {
	fetchCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the merged roster as JSON")
	rosterCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the merged roster as JSON")
	rosterCmd.Flags().StringVar(&battalionFilter, "battalion", "", "Only show players of this battalion")

	RootCmd.AddCommand(fetchCmd)
	RootCmd.AddCommand(rosterCmd)
}
