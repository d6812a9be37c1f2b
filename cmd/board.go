package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/model"
	"github.com/gtaskall/gtaskall/internal/view"
)

func newBoardCmd() *cobra.Command {
	var (
		dbPath string
		filter string
	)

	cmd := &cobra.Command{
		Use:   "board",
		Short: "Show tasks from all accounts as a three-column board",
		Long: `Fetch tasks from every connected account and show them as a board with
three columns: to do, in progress, and done.`,
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

			tasks := view.Filter(engine.Tasks(), filter)

			columns := []struct {
				title string
				state model.State
			}{
				{"To do", model.StateTodo},
				{"In progress", model.StateInProgress},
				{"Done", model.StateCompleted},
			}

			out := cmd.OutOrStdout()
			for _, col := range columns {
				fmt.Fprintf(out, "%s\n", col.title)
				n := 0
				for _, t := range tasks {
					if t.State != col.state {
						continue
					}
					writeTaskLine(out, t)
					n++
				}
				if n == 0 {
					fmt.Fprintln(out, "  -")
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	cmd.Flags().StringVar(&filter, "filter", "", "only show tasks whose title or notes contain this text")

	return cmd
}
