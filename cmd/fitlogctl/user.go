package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/bentonah/fitlog/internal/domain"
	"github.com/bentonah/fitlog/internal/persistence/postgres"
)

var (
	userUsername string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create an account with a bcrypt-hashed password.

The password is taken from --password, or read from the first line of stdin
when the flag is omitted:

  $ echo 's3cret' | fitlogctl user create --username alice`,
	RunE: func(cmd *cobra.Command, args []string) error {
		password := userPassword
		if password == "" {
			var err error
			if password, err = readPassword(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		pool, err := openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		creds := domain.NewCredentialService(postgres.NewRepository(pool), cfg.BcryptCost, nil)
		user, err := creds.Register(ctx, userUsername, password)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return fmt.Errorf("username %q is already taken", userUsername)
			}
			return err
		}

		color.Green("✓ created user %s", user.Username)
		fmt.Printf("  id: %s\n", color.New(color.Faint).Sprint(user.ID))
		return nil
	},
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required (use --password or stdin)")
	}
	return password, nil
}

func init() {
	userCreateCmd.Flags().StringVar(&userUsername, "username", "", "account username")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "account password (read from stdin when omitted)")
	_ = userCreateCmd.MarkFlagRequired("username")
	userCmd.AddCommand(userCreateCmd)
}
