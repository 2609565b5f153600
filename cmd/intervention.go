package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"esilogis/internal/bootstrap"
	"esilogis/internal/bootstrap/logging"
	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/usecase/intervention"
)

// operatorActor is the identity CLI reads run under.
var operatorActor = intervention.Actor{Role: domain.RoleAdmin}

var interventionCmd = &cobra.Command{
	Use:   "intervention",
	Short: "Inspect interventions",
}

var interventionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List interventions",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		planned, _ := cmd.Flags().GetBool("planned")
		list := svc.Lifecycle.ListInterventions
		if planned {
			list = svc.Lifecycle.ListPlanned
		}
		items, err := list(ctx, operatorActor)
		if err != nil {
			logging.Error(ctx, "list interventions failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "list interventions")
		}

		if len(items) == 0 {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), "no interventions"); err != nil {
				return errs.Wrap(err, "write list output")
			}
			return nil
		}

		for _, item := range items {
			assignees := make([]string, 0, len(item.Assignees))
			for _, p := range item.Assignees {
				assignees = append(assignees, p.FullName())
			}
			assigneeValue := "-"
			if len(assignees) > 0 {
				assigneeValue = strings.Join(assignees, ",")
			}
			plannedAt := "-"
			if item.PlannedAt != nil {
				plannedAt = item.PlannedAt.Format(time.DateOnly)
			}

			if _, err := fmt.Fprintf(
				cmd.OutOrStdout(),
				"#%d [%s] %s priority=%s planned=%s assignees=%s description=%s\n",
				item.ID,
				item.Status,
				item.Type,
				item.Priority,
				plannedAt,
				assigneeValue,
				item.Description,
			); err != nil {
				return errs.Wrap(err, "write list item")
			}
		}
		return nil
	}),
}

var interventionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show intervention detail and history",
	RunE: withApp(func(cmd *cobra.Command, svc *bootstrap.Services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		id, _ := cmd.Flags().GetUint64("id")
		item, err := svc.Lifecycle.GetIntervention(ctx, operatorActor, id)
		if err != nil {
			logging.Error(ctx, "show intervention failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "show intervention")
		}

		out := cmd.OutOrStdout()
		lines := []string{
			fmt.Sprintf("ID: %d", item.ID),
			fmt.Sprintf("Status: %s", item.Status),
			fmt.Sprintf("Type: %s", item.Type),
			fmt.Sprintf("Priority: %s", item.Priority),
			fmt.Sprintf("Description: %s", item.Description),
			fmt.Sprintf("CreatedAt: %s", item.CreatedAt.Format(time.RFC3339)),
			fmt.Sprintf("UpdatedAt: %s", item.UpdatedAt.Format(time.RFC3339)),
		}
		if item.Location != nil {
			lines = append(lines, fmt.Sprintf("Location: %s", item.Location.Name))
		}
		if item.Equipment != nil {
			lines = append(lines, fmt.Sprintf("Equipment: %s (%s)", item.Equipment.Name, item.Equipment.Status))
		}
		if item.PlannedAt != nil {
			lines = append(lines, fmt.Sprintf("PlannedAt: %s", item.PlannedAt.Format(time.DateOnly)))
		}
		if item.IsRecurring {
			lines = append(lines, fmt.Sprintf("Recurrence: every %d days", item.RecurrenceInterval))
		}
		if item.ResolutionSummary != nil {
			lines = append(lines, fmt.Sprintf("Resolution: %s", *item.ResolutionSummary))
		}
		for _, p := range item.Assignees {
			lines = append(lines, fmt.Sprintf("Assignee: %s (person %d)", p.FullName(), p.ID))
		}
		if _, err := fmt.Fprintln(out, strings.Join(lines, "\n")); err != nil {
			return errs.Wrap(err, "write show output")
		}

		if len(item.History) == 0 {
			if _, err := fmt.Fprintln(out, "\nHistory: none"); err != nil {
				return errs.Wrap(err, "write show history")
			}
			return nil
		}
		if _, err := fmt.Fprintln(out, "\nHistory:"); err != nil {
			return errs.Wrap(err, "write show history")
		}
		for _, entry := range item.History {
			notes := ""
			if entry.Notes != nil {
				notes = " notes=" + *entry.Notes
			}
			if _, err := fmt.Fprintf(out, "- %s %s by person %d%s\n", entry.LoggedAt.Format(time.RFC3339), entry.Action, entry.LoggedByID, notes); err != nil {
				return errs.Wrap(err, "write show history")
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(interventionCmd)
	interventionCmd.AddCommand(interventionListCmd)
	interventionCmd.AddCommand(interventionShowCmd)

	interventionListCmd.Flags().Bool("planned", false, "Only preventive interventions, by planned date")
	interventionShowCmd.Flags().Uint64("id", 0, "Intervention id")
	_ = interventionShowCmd.MarkFlagRequired("id")
}
