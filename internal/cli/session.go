package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/sandeepkv93/todod/internal/app"
	"github.com/sandeepkv93/todod/internal/config"
	"github.com/sandeepkv93/todod/internal/logging"
	"github.com/sandeepkv93/todod/internal/notify"
	"github.com/sandeepkv93/todod/internal/storage"
	"github.com/spf13/cobra"
)

type sessionMode int

const (
	// modeCLI logs to stderr and prints notifications on stdout when
	// desktop notifications are off.
	modeCLI sessionMode = iota
	// modeTUI logs to a file and never rings the bell so the terminal
	// stays clean while Bubble Tea owns the screen.
	modeTUI
)

// session owns everything a command opened: config, log file, database
// and the app on top of them.
type session struct {
	cfg       config.RuntimeConfig
	app       *app.App
	kv        *storage.SQLiteKV
	platform  notify.Platform
	audio     notify.AudioCue
	logger    *log.Logger
	logCloser io.Closer
}

func openSession(cmd *cobra.Command, flags *rootFlags, mode sessionMode) (*session, error) {
	path := flags.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logOpts := logging.Options{Level: cfg.LogLevel, Writer: cmd.ErrOrStderr()}
	if mode == modeTUI {
		logOpts = logging.Options{Level: cfg.LogLevel, Path: cfg.ResolvedLogPath(), Writer: io.Discard, ReportTimestamp: true}
	}
	logger, logCloser, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	kv, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
	}

	var platform notify.Platform
	switch {
	case cfg.DesktopNotifications:
		platform = notify.NewExecPlatform(kv)
	case mode == modeTUI:
		platform = &notify.WriterPlatform{W: logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}).Writer()}
	default:
		platform = &notify.WriterPlatform{W: cmd.OutOrStdout()}
	}

	var audio notify.AudioCue = notify.NoopCue{}
	if cfg.Sound && mode == modeCLI {
		audio = notify.BellCue{W: cmd.OutOrStdout()}
	}

	a, err := app.New(cmd.Context(), app.Options{
		KV:              kv,
		Platform:        platform,
		Audio:           audio,
		Logger:          logger,
		CheckInterval:   cfg.CheckInterval,
		SchedulerBuffer: cfg.SchedulerBuffer,
		Closer:          kv,
	})
	if err != nil {
		kv.Close()
		logCloser.Close()
		return nil, err
	}
	logger.Debug("session opened", "db", cfg.DBPath, "desktop", cfg.DesktopNotifications)
	return &session{cfg: cfg, app: a, kv: kv, platform: platform, audio: audio, logger: logger, logCloser: logCloser}, nil
}

func (s *session) Close() error {
	err := s.app.Close()
	if cerr := s.logCloser.Close(); err == nil {
		err = cerr
	}
	return err
}
