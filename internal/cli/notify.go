package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/scheduler"
	"github.com/spf13/cobra"
)

var ErrNoResetSupport = errors.New("cli: notification permission is not stored for this platform")

func notifyCmd(flags *rootFlags) *cobra.Command {
	var reset, status bool
	cmd := &cobra.Command{
		Use:     "notify",
		Aliases: []string{"alerts"},
		Short:   "Enable or disable reminder notifications",
		Long: "Toggle reminder notifications. The first enable asks the desktop for permission; " +
			"--reset forgets a previous refusal so the next enable asks again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()
			out := cmd.OutOrStdout()

			switch {
			case reset:
				exec, ok := s.platform.(*notify.ExecPlatform)
				if !ok {
					return ErrNoResetSupport
				}
				if err := exec.ResetPermission(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "notification permission reset")
			case !status:
				res, err := s.app.Dispatch(cmd.Context(), app.ToggleNotificationsIntent{})
				if err != nil {
					return fmt.Errorf("%s: %w", res.Message, err)
				}
				fmt.Fprintln(out, res.Message)
			}

			view := s.app.Gate().Status()
			fmt.Fprintf(out, "notifications: %s\n", view.Text)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "forget the stored permission answer")
	cmd.Flags().BoolVar(&status, "status", false, "only print the current state")
	return cmd
}

func watchCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the reminder scheduler without the TUI until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(cmd, flags, modeCLI)
			if err != nil {
				return err
			}
			defer s.Close()

			if !s.app.Gate().IsActive() {
				s.logger.Warn("notifications are not active; reminders are skipped until `todod notify` enables them")
			}
			s.logger.Info("watching for due tasks", "interval", s.cfg.CheckInterval, "tasks", s.app.Store().Len())
			return s.app.Watch(ctx, func(ev scheduler.Event, delivered bool) {
				s.logger.Debug("reminder", "task_id", ev.TaskID, "kind", ev.Kind, "delivered", delivered)
			})
		},
	}
}
