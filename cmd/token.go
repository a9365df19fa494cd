package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var revealToken bool

// tokenCmd is the parent command for credential management.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the Warera API token",
}

// tokenSetCmd stores the API token.
var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the API token (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		token := ""
		if len(args) == 1 {
			token = args[0]
		} else {
			fmt.Print("Paste the API token: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token = line
		}

		if err := a.service.SetToken(cmd.Context(), token); err != nil {
			return err
		}
		fmt.Println("Token saved")
		return nil
	},
}

// tokenShowCmd prints the stored API token.
var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored API token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		token, err := a.service.Token(cmd.Context())
		if err != nil {
			return err
		}
		switch {
		case token == "":
			fmt.Println("No token stored")
		case revealToken:
			fmt.Println(token)
		default:
			fmt.Println(maskToken(token))
		}
		return nil
	},
}

// maskToken keeps the first and last four characters.
func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func init() {
	tokenShowCmd.Flags().BoolVar(&revealToken, "reveal", false, "Print the full token")

	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	RootCmd.AddCommand(tokenCmd)
}
