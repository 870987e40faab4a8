package main

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jwaldner/litsync/internal/models"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store remote library credentials",
	Long: `Login validates an API key against the remote library and stores
it for future sync operations.`,
	Example: `  litsync login --user 1234567
  litsync login --user 1234567 --key P9NiFoyLeZu2bZNvvuQPDWsd`,
	RunE: runLogin,
}

var (
	loginUserID string
	loginKey    string
)

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginUserID, "user", "u", "",
		"Numeric user ID of the remote library (required)")
	loginCmd.Flags().StringVarP(&loginKey, "key", "k", "",
		"API key (will prompt if not provided)")

	_ = loginCmd.MarkFlagRequired("user")
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if loginKey == "" {
		var err error
		loginKey, err = promptSecret("API key: ")
		if err != nil {
			return fmt.Errorf("read API key: %w", err)
		}
	}

	credentials := &models.Credentials{
		APIKey: loginKey,
		UserID: loginUserID,
	}
	if !credentials.Valid() {
		return models.ErrNoCredentials
	}

	apiClient.Library.SetCredentials(credentials)
	status := apiClient.Library.ValidateKey(ctx)
	if !status.Valid {
		if jsonOutput {
			printJSON(status)
		} else {
			printError("API key rejected: %s", status.Err)
		}
		return fmt.Errorf("invalid credentials")
	}

	if err := apiClient.Creds.Store(credentials); err != nil {
		return fmt.Errorf("store credentials: %w", err)
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":     true,
			"user_id":     loginUserID,
			"total_items": status.TotalItems,
		})
	} else {
		printSuccess("Logged in as user %s (%d items in library)",
			loginUserID, status.TotalItems)
	}

	return nil
}

func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	// Read without echo
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)

	if err != nil {
		return "", err
	}

	return string(secret), nil
}
