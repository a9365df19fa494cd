package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// statsCmd prints battalion aggregates.
var statsCmd = &cobra.Command{
	Use:   "stats <country>",
	Short: "Show soldiers and damage per battalion",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.service.Stats(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, stats)
		}
		return printStats(os.Stdout, stats)
	},
}

// countriesCmd lists the country catalogue.
var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List countries with their weekly damage and active population",
	Long: `Lists the country catalogue from the API. When the API cannot be reached the
last stored copy is shown instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		countries, err := a.service.Countries(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, countries)
		}
		return printCountries(os.Stdout, countries)
	},
}

func init() {
	statsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
	countriesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")

	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(countriesCmd)
}
