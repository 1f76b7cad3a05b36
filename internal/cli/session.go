package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/smarttodo/internal/app"
	"github.com/sandeepkv93/smarttodo/internal/auth"
	"github.com/sandeepkv93/smarttodo/internal/config"
	"github.com/sandeepkv93/smarttodo/internal/notify"
	"github.com/sandeepkv93/smarttodo/internal/reminder"
	"github.com/sandeepkv93/smarttodo/internal/scheduler"
	"github.com/sandeepkv93/smarttodo/internal/storage"
)

const flushTimeout = 10 * time.Second

// session is everything one command invocation needs. The backend,
// coordinator and service are only built by openTasks.
type session struct {
	ctx  context.Context
	cfg  config.Config
	log  *logrus.Logger
	repo *storage.SQLiteRepository
	auth *auth.Manager

	backend notify.Backend
	local   *notify.Local
	coord   *reminder.Coordinator
	svc     *app.Service
}

func openSession(cmd *cobra.Command, opts *options) (*session, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	log := config.NewLogger(cfg.Log, cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = config.ContextWithLogger(ctx, log)

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open task store: %w", err)
	}
	mgr, err := auth.NewManager(repo, cfg, log)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}
	mgr.Restore()

	return &session{ctx: ctx, cfg: cfg, log: log, repo: repo, auth: mgr}, nil
}

// openBackend builds the configured notification backend. The local engine
// is started here and stopped by Close.
func (s *session) openBackend(cmd *cobra.Command) error {
	if s.backend != nil {
		return nil
	}
	switch s.cfg.Notify.Backend {
	case config.BackendNone:
		s.backend = notify.Noop{}
	case config.BackendCalendar:
		c, err := notify.NewCalendarFromConfig(s.ctx, s.cfg.Calendar, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("calendar backend: %w", err)
		}
		s.backend = c
	default:
		engine := scheduler.NewEngine(s.cfg.Notify.SchedulerBuffer)
		engine.Start()
		s.local = notify.NewLocal(engine, notify.ExecDesktopNotifier{})
		s.backend = s.local
	}
	s.log.WithField("backend", s.cfg.Notify.Backend).Debug("notification backend ready")
	return nil
}

// openTasks loads the signed-in user's tasks into a fresh coordinator.
func (s *session) openTasks(cmd *cobra.Command) error {
	if err := s.openBackend(cmd); err != nil {
		return err
	}
	s.coord = reminder.New(s.backend, reminder.WithContext(s.ctx), reminder.WithLogger(s.log))
	s.svc = app.NewService(s.repo, s.coord, s.auth, s.log)
	n := s.svc.Start(s.ctx)
	s.log.WithField("tasks", n).WithField("user_id", s.auth.CurrentUserID()).Debug("tasks loaded")
	return nil
}

func (s *session) Close() {
	if s.coord != nil {
		ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
		if err := s.coord.Flush(ctx); err != nil {
			s.log.WithError(err).Warn("pending reminder calls not flushed")
			s.coord.Abort()
		}
		cancel()
		s.coord.Close()
	}
	if s.local != nil {
		s.local.Engine().Stop()
	}
	if err := s.repo.Close(); err != nil {
		s.log.WithError(err).Error("close task store failed")
	}
}

// withTasks opens a session with tasks loaded, runs fn and closes it.
func withTasks(cmd *cobra.Command, opts *options, fn func(*session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.openTasks(cmd); err != nil {
		return err
	}
	return fn(s)
}

func withSession(cmd *cobra.Command, opts *options, fn func(*session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}
