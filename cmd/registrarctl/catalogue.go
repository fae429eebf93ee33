package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// catalogueCmd represents the catalogue command
var catalogueCmd = &cobra.Command{
	Use:   "catalogue",
	Short: "Manage the catalogue",
	Long: `Manage departments, programs, courses, curricula, instructors, students
and sections declared in a YAML catalogue file.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'catalogue' requires a subcommand (load)")
		fmt.Println()
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(catalogueCmd)
}
