package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "registrarctl",
	Short: "Run and manage the registrar API server",
	Long: `Run and manage the registrar API server: departments, programs, courses,
sections, instructors and students, with student registration and grading.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
