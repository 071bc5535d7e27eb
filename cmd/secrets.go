package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobmate/ingestion-service/internal/config"
)

func secretsCMD() *cobra.Command {
	secrets := &cobra.Command{
		Use:   "secrets",
		Short: "Manage upstream credentials in the OS keychain",
	}

	var appID string
	setKey := &cobra.Command{
		Use:   "set-adzuna-key",
		Short: "Read the Adzuna API key from stdin and store it for --app-id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appID == "" {
				appID = os.Getenv("ADZUNA_APP_ID")
			}
			if appID == "" {
				return errors.New("--app-id or ADZUNA_APP_ID is required")
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read key: %w", err)
			}
			if err := config.SetAdzunaKey(appID, strings.TrimSpace(line)); err != nil {
				return fmt.Errorf("keyring: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored key for %s\n", config.AdzunaKeyringAccount(appID))
			return nil
		},
	}
	setKey.Flags().StringVar(&appID, "app-id", "", "Adzuna application id")

	secrets.AddCommand(setKey)
	return secrets
}
