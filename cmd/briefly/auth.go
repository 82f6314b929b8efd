package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/config"
	"github.com/brieflyhq/briefly/internal/mail"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth <user-id>",
		Short: "Authenticate a user's Gmail account",
		Long: `Authenticate a user's Gmail account using OAuth2.

This command will:
1. Start a local web server
2. Open your browser to authenticate with Google
3. Save the encrypted token for future scans

Run this once per user before their first scan.`,
		Args: cobra.ExactArgs(1),
		RunE: runAuth,
	}

	return cmd
}

func runAuth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := args[0]

	oauthConfig, err := config.LoadGoogleConfig()
	if err != nil {
		return err
	}

	token, err := mail.AuthenticateInteractive(ctx, oauthConfig)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveCredential(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	slog.Info("Stored encrypted Gmail credential", "user_id", userID)
	fmt.Println(cli.FormatSuccess("Gmail connected for " + userID))
	fmt.Println(cli.FormatInfo("Run 'briefly scan " + userID + "' to build the first brief"))

	return nil
}
