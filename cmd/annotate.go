package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var medalWeek string

// assignCmd puts players into a battalion.
var assignCmd = &cobra.Command{
	Use:   "assign <country> <battalion> <username>...",
	Short: "Assign cached players to a battalion",
	Long: `Assigns one or more cached players to CONDOR, YAGUARETE or CARPINCHO.
Use UNASSIGNED to remove players from their battalion. Usernames are case-insensitive;
names that match no cached player are skipped.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		usernames := args[2:]
		n, err := a.service.Assign(cmd.Context(), args[0], args[1], usernames)
		if err != nil {
			return err
		}
		if n < len(usernames) {
			a.log.Warn("Some usernames matched no cached player", zap.Int("requested", len(usernames)), zap.Int("assigned", n))
		}
		fmt.Printf("Assigned %d of %d players\n", n, len(usernames))
		return nil
	},
}

// medalCmd awards a weekly medal.
var medalCmd = &cobra.Command{
	Use:   "medal <country> <username> <gold|silver|bronze>",
	Short: "Award a weekly medal to a cached player",
	Long: `Awards a medal for the current ISO week, or for --week. A player holds at most one
medal per week; awarding again replaces it.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		week, err := a.service.Award(cmd.Context(), args[0], args[1], args[2], medalWeek)
		if err != nil {
			return err
		}
		fmt.Printf("Awarded %s to %s for %s\n", args[2], args[1], week)
		return nil
	},
}

// medalsCmd prints the medal history of a player.
var medalsCmd = &cobra.Command{
	Use:   "medals <country> <username>",
	Short: "Show the medal history of a player",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		medals, err := a.service.Medals(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(os.Stdout, medals)
		}
		if len(medals) == 0 {
			fmt.Println("No medals")
			return nil
		}

		weeks := make([]string, 0, len(medals))
		for week := range medals {
			weeks = append(weeks, week)
		}
		sort.Strings(weeks)

		tw := newTable(os.Stdout)
		fmt.Fprintln(tw, "WEEK\tMEDAL")
		for _, week := range weeks {
			fmt.Fprintf(tw, "%s\t%s\n", week, medals[week])
		}
		return tw.Flush()
	},
}

func init() {
	medalCmd.Flags().StringVar(&medalWeek, "week", "", "Week id (week_<year>_<week>), defaults to the current ISO week")
	medalsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")

	RootCmd.AddCommand(assignCmd)
	RootCmd.AddCommand(medalCmd)
	RootCmd.AddCommand(medalsCmd)
}
