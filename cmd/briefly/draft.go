package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/storage"
)

func draftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft <user-id>",
		Short: "Draft a reply to an email in the user's voice",
		Long: `Generate a reply draft matching the user's communication style.

The email body is read from stdin unless --body is given:

  briefly draft me@example.com --from boss@corp.com --subject "Q3 numbers" < email.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runDraft,
	}

	cmd.Flags().String("from", "", "sender of the email being replied to")
	cmd.Flags().String("subject", "", "subject of the email being replied to")
	cmd.Flags().String("body", "", "email body (defaults to stdin)")

	return cmd
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := args[0]

	sender, _ := cmd.Flags().GetString("from")
	subject, _ := cmd.Flags().GetString("subject")
	body, _ := cmd.Flags().GetString("body")

	if body == "" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read email body from stdin: %w", err)
		}
		body = strings.TrimSpace(string(raw))
	}
	if body == "" {
		return fmt.Errorf("email body is empty; pass --body or pipe it on stdin")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	profile, err := store.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		profile = &model.PersonaProfile{UserID: userID, Plan: model.PlanFree}
	}

	classifier, err := initClassifier()
	if err != nil {
		return err
	}
	defer classifier.Close()

	msg := model.Message{Sender: sender, Subject: subject, Body: body}
	draft, err := classifier.DraftReply(ctx, msg, profile)
	if err != nil {
		return fmt.Errorf("failed to draft reply: %w", err)
	}

	fmt.Println(cli.RenderBox("Draft reply", draft))
	return nil
}
