package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/registrar/pkg/audit"
	"github.com/doodlesbykumbi/registrar/pkg/catalogue"
)

// catalogueLoadCmd represents the catalogue load command
var catalogueLoadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Load a catalogue file",
	Long: `Load a YAML catalogue file into the registrar database.

Records are matched on their natural keys and created when missing. The
file is applied in one transaction: any error leaves the database as it
was. With --dry-run the file is checked against the database and nothing
is written.

A running server picks up new instructors and students after a cache
reload, or loads the file itself when started with --catalogue.

Example:
  registrarctl catalogue load catalogue.yml
  registrarctl catalogue load --dry-run catalogue.yml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		result, err := loadCatalogueFile(cmd.Context(), args[0], dryRun)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load catalogue: %v\n", err)
			os.Exit(1)
		}

		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	},
}

func init() {
	catalogueCmd.AddCommand(catalogueLoadCmd)
	catalogueLoadCmd.Flags().Bool("dry-run", false, "validate without writing")
}

func loadCatalogueFile(ctx context.Context, filename string, dryRun bool) (*catalogue.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	database, err := openDatabase(cfg, false)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue file: %w", err)
	}
	defer func() { _ = file.Close() }()

	result, err := catalogue.NewLoader(database).WithDryRun(dryRun).LoadFromReader(ctx, file)
	event := audit.CatalogueLoadEvent{File: filename, DryRun: dryRun, Success: err == nil}
	if err != nil {
		event.ErrorMessage = err.Error()
		audit.Log(event)
		return nil, err
	}
	event.SHA256 = result.SHA256
	for _, n := range result.Created {
		event.Created += n
	}
	audit.Log(event)
	return result, nil
}
