package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/registrar/pkg/token"
)

// appKeyGenerateCmd represents the app-key > generate command
var appKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a token signing key",
	Long: `
Generate a token signing key

Use this command to generate a new Base64-encoded 256 bit key. Place it into
the environment of the registrar server. Tokens issued under one key are
rejected once the server runs with another.

Example:

$ export REGISTRAR_APP_KEY="$(registrarctl app-key generate)"
`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := token.GenerateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s", key)
	},
}

func init() {
	appKeyCmd.AddCommand(appKeyGenerateCmd)
}
