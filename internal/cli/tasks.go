package cli

import (
	"bufio"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/export"
	"github.com/sandeepkv93/todod/internal/model"
	"github.com/spf13/cobra"
)

var (
	ErrTaskNotFound = errors.New("cli: task not found")
	ErrNotConfirmed = errors.New("cli: clear not confirmed")
)

func addCmd(flags *rootFlags) *cobra.Command {
	var due, at string
	cmd := &cobra.Command{
		Use:   "add <text>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := s.app.Dispatch(cmd.Context(), app.AddIntent{
				Text:    strings.Join(args, " "),
				DueDate: due,
				DueTime: at,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", res.Message, res.Task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&at, "at", "", "due time, HH:MM")
	return cmd
}

func listCmd(flags *rootFlags) *cobra.Command {
	var filter, output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := model.ParseFilterMode(filter)
			if err != nil {
				return err
			}
			format, err := export.ParseFormat(output)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()

			now := s.app.Now()
			all := s.app.Store().Tasks()
			out := cmd.OutOrStdout()
			if err := export.Write(out, format, model.Filter(all, mode, now), now); err != nil {
				return err
			}
			if format == export.FormatText {
				fmt.Fprintln(out, model.Summarize(all, now).Line())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(model.FilterAll), "all, active, past-due or completed")
	cmd.Flags().StringVarP(&output, "output", "o", string(export.FormatText), "text, json or yaml")
	return cmd
}

func toggleCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "toggle <id>",
		Aliases: []string{"done"},
		Short:   "Mark a task completed, or active again",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTarget(cmd, flags, args[0], func(id int64) app.Intent { return app.ToggleIntent{ID: id} })
		},
	}
}

func removeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTarget(cmd, flags, args[0], func(id int64) app.Intent { return app.DeleteIntent{ID: id} })
		},
	}
}

func runTarget(cmd *cobra.Command, flags *rootFlags, raw string, build func(int64) app.Intent) error {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid task id: %s", raw)
	}
	s, err := openSession(cmd, flags, modeCLI)
	if err != nil {
		return err
	}
	defer s.Close()
	res, err := s.app.Dispatch(cmd.Context(), build(id))
	if err != nil {
		return err
	}
	if !res.Changed {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
	return nil
}

func clearCmd(flags *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()

			n := s.app.Store().CompletedCount()
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no completed tasks")
				return nil
			}
			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Delete %d completed task%s? [y/N] ", n, plural(n))
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					return ErrNotConfirmed
				}
			}
			res, err := s.app.Dispatch(cmd.Context(), app.ClearCompletedIntent{})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func exportCmd(flags *rootFlags) *cobra.Command {
	var output, filter string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write tasks to a file",
		Long:  "Write tasks to a file. The format follows the extension (.json, .yaml, .yml, anything else is text) unless --output is set.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if output == "" {
				output = formatFromExt(path)
			}
			format, err := export.ParseFormat(output)
			if err != nil {
				return err
			}
			mode, err := model.ParseFilterMode(filter)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()

			now := s.app.Now()
			tasks := model.Filter(s.app.Store().Tasks(), mode, now)
			if err := export.WriteFile(path, format, tasks, now); err != nil {
				return fmt.Errorf("export %s: %w", path, err)
			}
			s.logger.Info("exported tasks", "path", path, "format", format, "count", len(tasks))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d task%s to %s\n", len(tasks), plural(len(tasks)), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "text, json or yaml")
	cmd.Flags().StringVarP(&filter, "filter", "f", string(model.FilterAll), "all, active, past-due or completed")
	return cmd
}

func formatFromExt(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".yaml", ".yml":
		return strings.TrimPrefix(ext, ".")
	}
	return string(export.FormatText)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
