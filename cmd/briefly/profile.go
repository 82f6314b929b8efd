package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/storage"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the persona that guides classification",
	}

	cmd.AddCommand(profileShowCmd())
	cmd.AddCommand(profileSetCmd())

	return cmd
}

func profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a user's persona profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			profile, err := store.GetProfile(ctx, args[0])
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					fmt.Println(cli.FormatInfo("No profile yet. Create one with 'briefly profile set'"))
					return nil
				}
				return fmt.Errorf("failed to load profile: %w", err)
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Email:    %s\n", profile.Email)
			fmt.Fprintf(&b, "Role:     %s\n", profile.Role)
			fmt.Fprintf(&b, "Focus:    %s\n", strings.Join(profile.CurrentFocus, ", "))
			fmt.Fprintf(&b, "Critical: %s\n", strings.Join(profile.CriticalCategories, ", "))
			fmt.Fprintf(&b, "Style:    %s\n", profile.CommunicationStyle)
			fmt.Fprintf(&b, "Context:  %s\n", profile.BusinessContext)
			fmt.Fprintf(&b, "Plan:     %s", profile.Plan)
			if profile.IsAdmin {
				b.WriteString(" (admin)")
			}

			fmt.Println(cli.RenderBox("Profile: "+profile.UserID, b.String()))
			return nil
		},
	}
}

func profileSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Create or update a user's persona profile",
		Long: `Create or update the persona used to judge what matters in the inbox.

Only the flags you pass are changed; everything else keeps its stored
value.`,
		Args: cobra.ExactArgs(1),
		RunE: runProfileSet,
	}

	cmd.Flags().String("email", "", "user's email address")
	cmd.Flags().String("role", "", "what the user does (e.g. \"startup founder\")")
	cmd.Flags().StringSlice("focus", nil, "current focus areas")
	cmd.Flags().StringSlice("critical", nil, "categories that are always critical")
	cmd.Flags().String("style", "", "communication style for reply drafts")
	cmd.Flags().String("context", "", "business context for the classifier")
	cmd.Flags().String("plan", "", "plan tier (free, pro)")

	return cmd
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := args[0]

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

	if v, _ := cmd.Flags().GetString("email"); cmd.Flags().Changed("email") {
		profile.Email = v
	}
	if v, _ := cmd.Flags().GetString("role"); cmd.Flags().Changed("role") {
		profile.Role = v
	}
	if v, _ := cmd.Flags().GetStringSlice("focus"); cmd.Flags().Changed("focus") {
		profile.CurrentFocus = v
	}
	if v, _ := cmd.Flags().GetStringSlice("critical"); cmd.Flags().Changed("critical") {
		profile.CriticalCategories = v
	}
	if v, _ := cmd.Flags().GetString("style"); cmd.Flags().Changed("style") {
		profile.CommunicationStyle = v
	}
	if v, _ := cmd.Flags().GetString("context"); cmd.Flags().Changed("context") {
		profile.BusinessContext = v
	}
	if v, _ := cmd.Flags().GetString("plan"); cmd.Flags().Changed("plan") {
		profile.Plan = v
	}

	if err := store.SaveProfile(ctx, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Println(cli.FormatSuccess("Profile saved for " + userID))
	return nil
}
