package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"todolist/internal/desktop"
	"todolist/internal/tui"
	"todolist/pkg/task"
)

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := a.store.Create(cmd.Context(), strings.Join(args, " "))
			if errors.Is(err, task.ErrEmptyText) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d. %s\n", a.store.IndexOf(t.ID)+1, t.Text)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			tasks := a.store.List()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			for i, t := range tasks {
				check := " "
				if t.Completed {
					check = "x"
				}
				fmt.Fprintf(out, "%d. [%s] %s  (%s)\n", i+1, check, t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			fmt.Fprintln(out, a.store.Stats())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tasks as a JSON document")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <n>",
		Short: "Flip the completion flag of task n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			if err := a.store.Toggle(cmd.Context(), i); err != nil {
				return err
			}
			t := a.store.List()[i]
			state := "open"
			if t.Completed {
				state = "done"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d. %s: %s\n", i+1, t.Text, state)
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <n>",
		Aliases: []string{"delete"},
		Short:   "Delete task n",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			list := a.store.List()
			if err := a.store.DeleteOne(cmd.Context(), i); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", list[i].Text)
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every completed task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.store.DeleteCompleted(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d completed\n", n)
			return nil
		},
	}
}

func (a *app) setAllCmd(use, short string, value bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.store.SetAllCompleted(cmd.Context(), value); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.store.Stats())
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), a.store.Stats())
			return nil
		},
	}
}

func (a *app) uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the desktop window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// the window closes the store before the process exits
			store := a.store
			a.store = nil
			desktop.Run(store, a.cfg, a.logger.WithPrefix("desktop"))
			return nil
		},
	}
}

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.store, a.logger.WithPrefix("tui"))
		},
	}
}

// parseIndex converts a 1-based task number into a list position.
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("task number %q: not a number", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("task number %d: %w", n, task.ErrIndexOutOfRange)
	}
	return n - 1, nil
}
