// Package cli is the todod command line: the root command runs the TUI and
// subcommands script the same task list.
package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandeepkv93/todod/internal/update"
	"github.com/spf13/cobra"
)

func Execute() error {
	return NewRoot().Execute()
}

// runTUI is replaced in tests.
var runTUI = func(ctx context.Context, m update.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type rootFlags struct {
	configPath string
	dbPath     string
	logLevel   string
}

func NewRoot() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "todod",
		Short:         "Todo list with due dates and desktop reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, modeTUI)
			if err != nil {
				return err
			}
			defer s.Close()
			m := update.NewModel(cmd.Context(), s.app, update.Options{
				Sound:          s.cfg.Sound,
				CheckInterval:  s.cfg.CheckInterval,
				StartReminders: true,
			})
			return runTUI(cmd.Context(), m)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $TODOD_CONFIG or ~/.config/todod/config.toml)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path, or :memory:")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		addCmd(flags),
		listCmd(flags),
		toggleCmd(flags),
		removeCmd(flags),
		clearCmd(flags),
		exportCmd(flags),
		notifyCmd(flags),
		watchCmd(flags),
	)
	return root
}
