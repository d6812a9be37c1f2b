package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gtaskall/gtaskall/internal/model"
	"github.com/gtaskall/gtaskall/internal/mutate"
	syncpkg "github.com/gtaskall/gtaskall/internal/sync"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create and modify tasks",
		Long: `Create and modify tasks on the remote store.

Tasks are addressed by key, the LIST/ID pair printed by 'gtaskall agenda'
and 'gtaskall board'. Changes are written to the owning Google account
immediately.`,
	}

	cmd.AddCommand(newTaskCompleteCmd())
	cmd.AddCommand(newTaskReopenCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskRescheduleCmd())
	cmd.AddCommand(newTaskEditCmd())
	cmd.AddCommand(newTaskAddCmd())

	return cmd
}

// openMutator runs one sync cycle so the snapshot holds current task
// keys, then wires the mutation layer over it. One-shot commands have
// no scheduler, so the mutator gets no follow-up notifier.
func openMutator(cmd *cobra.Command, dbPath string) (*app, *syncpkg.Engine, *mutate.Mutator, error) {
	ctx := cmd.Context()

	app, err := openApp(ctx, dbPath)
	if err != nil {
		return nil, nil, nil, err
	}

	engine, err := app.syncedTasks(ctx)
	if err != nil {
		_ = app.Close()
		return nil, nil, nil, err
	}

	mutator := mutate.NewMutator(app.client, engine, app.registry, nil, app.logger)
	return app, engine, mutator, nil
}

func newTaskCompleteCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "complete KEY",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			t, err := mutator.Complete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %q\n", t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	return cmd
}

func newTaskReopenCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "reopen KEY",
		Short: "Reopen a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			t, err := mutator.Uncomplete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened %q\n", t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	return cmd
}

func parseColumn(name string) (model.State, error) {
	switch name {
	case "todo":
		return model.StateTodo, nil
	case "in-progress":
		return model.StateInProgress, nil
	case "done":
		return model.StateCompleted, nil
	default:
		return model.StateTodo, fmt.Errorf("unknown column %q (want todo, in-progress, or done)", name)
	}
}

func newTaskMoveCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "move KEY COLUMN",
		Short: "Move a task between board columns",
		Long: `Move a task to another board column: todo, in-progress, or done.

Moving to in-progress stashes the due date until the task moves back to
todo; moving to done records a completion timestamp.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := parseColumn(args[1])
			if err != nil {
				return err
			}

			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			t, err := mutator.MoveToColumn(cmd.Context(), args[0], col)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to %s\n", t.Title, args[1])
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	return cmd
}

func newTaskRescheduleCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "reschedule KEY DATE",
		Short: "Change a task's due date",
		Long: `Change a task's due date. DATE is YYYY-MM-DD, or "none" to clear it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var due time.Time
			if args[1] != "none" {
				parsed, err := time.Parse("2006-01-02", args[1])
				if err != nil {
					return fmt.Errorf("parsing date %q: %w", args[1], err)
				}
				due = parsed
			}

			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			t, err := mutator.Reschedule(cmd.Context(), args[0], due)
			if err != nil {
				return err
			}
			if due.IsZero() {
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared due date of %q\n", t.Title)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Rescheduled %q to %s\n", t.Title, due.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "edit KEY",
		Short: "Edit a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit mutate.Edit
			flags := cmd.Flags()
			if flags.Changed("title") {
				v, _ := flags.GetString("title")
				edit.Title = &v
			}
			if flags.Changed("notes") {
				v, _ := flags.GetString("notes")
				edit.Notes = &v
			}
			if flags.Changed("color") {
				v, _ := flags.GetString("color")
				edit.Color = &v
			}
			if flags.Changed("recurring") {
				v, _ := flags.GetBool("recurring")
				edit.Recurring = &v
			}
			if edit.Title == nil && edit.Notes == nil && edit.Color == nil && edit.Recurring == nil {
				return fmt.Errorf("nothing to change, set at least one of --title, --notes, --color, --recurring")
			}

			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			t, err := mutator.EditTask(cmd.Context(), args[0], edit)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q\n", t.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("notes", "", "new notes")
	cmd.Flags().String("color", "", "new color, e.g. #FF8800")
	cmd.Flags().Bool("recurring", false, "mark the task recurring")
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		dbPath  string
		account string
		listID  string
		dueStr  string
		notes   string
		color   string
	)

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task in one of an account's lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := model.Task{
				Title: args[0],
				Notes: notes,
				Color: color,
				State: model.StateTodo,
			}
			if dueStr != "" {
				due, err := time.Parse("2006-01-02", dueStr)
				if err != nil {
					return fmt.Errorf("parsing --due %q: %w", dueStr, err)
				}
				t.Due = due
			}

			app, engine, mutator, err := openMutator(cmd, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			defer func() { _ = engine.Close(cmd.Context()) }()

			created, err := mutator.Create(cmd.Context(), account, listID, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", created.Title, created.Key())
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the local database (default from config)")
	cmd.Flags().StringVar(&account, "account", "", "email of the account to create the task in")
	cmd.Flags().StringVar(&listID, "list", "", "ID of the task list to create the task in")
	cmd.Flags().StringVar(&dueStr, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&notes, "notes", "", "task notes")
	cmd.Flags().StringVar(&color, "color", "", "task color, e.g. #FF8800")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("list")
	return cmd
}
