package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// appKeyCmd represents the app-key command
var appKeyCmd = &cobra.Command{
	Use:   "app-key",
	Short: "Manage the token signing key",
	Long:  `Manage the key that signs and verifies access tokens.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'app-key' requires a subcommand generate")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(appKeyCmd)
}
