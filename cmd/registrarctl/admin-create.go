package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/registrar/pkg/entity"
	"github.com/doodlesbykumbi/registrar/pkg/model"
)

const adminPasswordEnv = "REGISTRAR_ADMIN_PASSWORD"

// adminCreateCmd represents the admin create command
var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an administrator",
	Long: `Create an administrator account.

The password is taken from --password, then from REGISTRAR_ADMIN_PASSWORD,
and otherwise read as one line from standard input.

A running server picks up the new administrator after a cache reload
(POST /admin/cache/reload, or a write to its --reload-trigger file).

Example:
  registrarctl admin create --email root@example.edu --first-name Root --last-name Admin
  echo "$PASSWORD" | registrarctl admin create --email root@example.edu -f Root -l Admin`,
	Run: func(cmd *cobra.Command, args []string) {
		email, _ := cmd.Flags().GetString("email")
		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")
		password, _ := cmd.Flags().GetString("password")
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")

		if password == "" {
			password = os.Getenv(adminPasswordEnv)
		}
		if password == "" {
			var err error
			if password, err = readPassword(os.Stdin); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to read password: %v\n", err)
				os.Exit(1)
			}
		}

		admin := &model.Admin{User: model.User{
			Email:     email,
			FirstName: firstName,
			LastName:  lastName,
			Password:  password,
		}}
		if err := createAdmin(cmd.Context(), admin, !noMigrate); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create administrator: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created administrator %s (id %d)\n", admin.Email, admin.ID)
	},
}

func init() {
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().StringP("email", "e", "", "administrator email")
	adminCreateCmd.Flags().StringP("first-name", "f", "", "administrator first name")
	adminCreateCmd.Flags().StringP("last-name", "l", "", "administrator last name")
	adminCreateCmd.Flags().String("password", "", "administrator password")
	adminCreateCmd.Flags().Bool("no-migrate", false, "skip running database migrations first")
	_ = adminCreateCmd.MarkFlagRequired("email")
}

func readPassword(r io.Reader) (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func createAdmin(ctx context.Context, admin *model.Admin, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, err := openDatabase(cfg, migrate)
	if err != nil {
		return err
	}
	_, err = entity.New[model.Admin](database).Create(ctx, admin)
	return err
}
