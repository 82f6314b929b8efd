package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brieflyhq/briefly/internal/cli"
	"github.com/brieflyhq/briefly/internal/model"
	"github.com/brieflyhq/briefly/internal/service"
)

func briefCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brief",
		Short: "Read and manage stored briefs",
	}

	cmd.AddCommand(briefListCmd())
	cmd.AddCommand(briefReadCmd())

	return cmd
}

func briefListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <user-id>",
		Short: "List stored summaries, most important first",
		Args:  cobra.ExactArgs(1),
		RunE:  runBriefList,
	}

	cmd.Flags().String("lane", "", "filter by lane (priority, other)")
	cmd.Flags().String("category", "", "filter by category (critical, high, standard, low)")
	cmd.Flags().Bool("unread", false, "only unread summaries")
	cmd.Flags().Int("limit", 20, "max summaries to show")
	cmd.Flags().Int("offset", 0, "pagination offset")

	return cmd
}

func runBriefList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	userID := args[0]

	laneFlag, _ := cmd.Flags().GetString("lane")
	categoryFlag, _ := cmd.Flags().GetString("category")
	unread, _ := cmd.Flags().GetBool("unread")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	filter := service.SummaryFilter{UnreadOnly: unread, Limit: limit, Offset: offset}

	if laneFlag != "" {
		lane := model.Lane(strings.ToLower(laneFlag))
		if lane != model.LanePriority && lane != model.LaneOther {
			return fmt.Errorf("unknown lane %q (use priority or other)", laneFlag)
		}
		filter.Lane = lane
	}
	if categoryFlag != "" {
		category := model.Category(strings.ToUpper(categoryFlag))
		switch category {
		case model.CategoryCritical, model.CategoryHigh, model.CategoryStandard, model.CategoryLow:
			filter.Category = category
		default:
			return fmt.Errorf("unknown category %q (use critical, high, standard or low)", categoryFlag)
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summaries, err := store.ListSummaries(ctx, userID, filter)
	if err != nil {
		return fmt.Errorf("failed to list summaries: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println(cli.FormatInfo("No summaries match"))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Brief for %s (%d)", userID, len(summaries))))
	for i := range summaries {
		fmt.Println(renderSummary(&summaries[i]))
	}

	return nil
}

// renderSummary formats one stored summary for the terminal.
func renderSummary(s *model.Summary) string {
	var b strings.Builder

	header := fmt.Sprintf("%s %s", cli.CategoryIcon(string(s.Category)), s.Subject)
	switch s.Category {
	case model.CategoryCritical:
		header = cli.CriticalStyle.Render(header)
	case model.CategoryHigh:
		header = cli.HighStyle.Render(header)
	default:
		header = cli.BoldStyle.Render(header)
	}
	if !s.IsRead {
		header += cli.WarningStyle.Render(" ●")
	}
	b.WriteString(header + "\n")

	meta := fmt.Sprintf("  %s · %s · score %d", s.Sender, s.Lane, s.ImportanceScore)
	if s.MatchScore != nil {
		meta += fmt.Sprintf(" · match %.0f%%", *s.MatchScore)
	}
	b.WriteString(cli.SubtleStyle.Render(meta) + "\n")

	b.WriteString("  " + s.Summary + "\n")
	if s.ActionRequired != "" && s.ActionRequired != "No immediate action required" {
		b.WriteString("  " + cli.WarningStyle.Render("→ "+s.ActionRequired) + "\n")
	}
	b.WriteString(cli.SubtleStyle.Render("  "+s.MessageID+" · "+s.DeepLink) + "\n")

	return b.String()
}

func briefReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <user-id> <message-id>",
		Short: "Mark a summary as read",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.MarkSummaryRead(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to mark summary read: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Marked as read"))
			return nil
		},
	}
}
