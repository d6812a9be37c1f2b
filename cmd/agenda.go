package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/model"
	"github.com/gtaskall/gtaskall/internal/view"
)

func stateMark(s model.State) string {
	switch s {
	case model.StateCompleted:
		return "[x]"
	case model.StateInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func writeTaskLine(w io.Writer, t model.Task) {
	line := fmt.Sprintf("  %s %s", stateMark(t.State), t.Title)
	if !t.Due.IsZero() {
		line += " (due " + t.Due.Format("2006-01-02") + ")"
	}
	if t.AccountEmail != "" {
		line += " <" + t.AccountEmail + ">"
	}
	line += " " + t.Key()
	fmt.Fprintln(w, line)
}

func newAgendaCmd() *cobra.Command {
	var (
		dbPath  string
		filter  string
		groupBy string
		days    int
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show tasks from all accounts, grouped by due date",
		Long: `Fetch tasks from every connected account and show them as an agenda.

By default tasks are grouped into date buckets (overdue, today, tomorrow,
this week, next week, future, no date). Use --days to show a day-by-day
window instead, and --group to group by account, list, or color.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			app, err := openApp(ctx, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			engine, err := app.syncedTasks(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = engine.Close(ctx) }()

			opts := view.Options{
				GroupBy:    view.GroupBy(groupBy),
				Filter:     filter,
				WindowDays: days,
			}
			result := view.Aggregate(engine.Tasks(), opts, time.Now())

			out := cmd.OutOrStdout()
			if days > 0 {
				for _, bucket := range result.Window {
					fmt.Fprintf(out, "%s (%s)\n", bucket.Date.Format("2006-01-02"), bucket.Date.Format("Monday"))
					if len(bucket.Tasks) == 0 {
						fmt.Fprintln(out, "  -")
					}
					for _, t := range bucket.Tasks {
						writeTaskLine(out, t)
					}
					fmt.Fprintln(out)
				}
				return nil
			}

			empty := true
			for _, group := range result.Groups {
				if len(group.Tasks) == 0 {
					continue
				}
				empty = false
				fmt.Fprintf(out, "%s\n", group.Key)
				for _, t := range group.Tasks {
					writeTaskLine(out, t)
				}
				fmt.Fprintln(out)
			}
			if empty {
				fmt.Fprintln(out, "No tasks. Connect an account with 'gtaskall accounts add'.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "only show tasks whose title or notes contain this text")
	cmd.Flags().StringVar(&groupBy, "group", string(view.GroupByDate), "group tasks by: date, account, list, color")
	cmd.Flags().IntVar(&days, "days", 0, "show a window of N consecutive days instead of buckets")

	return cmd
}
