package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/term"

	"photogallery/internal/config"
	"photogallery/internal/db"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/logger"
	"photogallery/internal/repository"
	"photogallery/internal/service"
	"photogallery/internal/session"
)

// The sweep hard-deletes accounts whose restore window has elapsed. It is
// meant for cron and refuses to run from a terminal unless -batch is given.
func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Sync() }()

	fs := flag.NewFlagSet("sweep", flag.ExitOnError)
	batch := fs.Bool("batch", false, "run even when attached to a terminal")
	_ = fs.Parse(os.Args[1:])

	mode := execMode(term.IsTerminal(int(os.Stdin.Fd())), *batch)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.LogLevel)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gallery := cfg.Gallery
	deps := service.UserDeps{
		Users:         repository.NewUserRepository(gormDB),
		Groups:        repository.NewGroupRepository(gormDB),
		Content:       service.NewPhotoService(repository.NewPhotoRepository(gormDB), gallery, log),
		Policy:        cfg.Groups,
		DefaultAvatar: gallery.DefaultAvatar,
		Log:           log.With(zap.String("job", "sweep")),
	}
	// The job acts as a guest in a throwaway session that is never saved.
	m, err := service.NewUserManager(ctx, deps, session.New("sweep", session.Data{}))
	if err != nil {
		log.Fatal("resolve actor", zap.Error(err))
	}

	report, err := m.SweepDeleted(ctx, mode)
	if errors.Is(err, apperrors.ErrInteractiveContext) {
		log.Error("refusing to sweep from an interactive terminal; pass -batch to override")
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("sweep deleted users", zap.Error(err))
	}
	if report.Refused > 0 {
		log.Warn("some expired accounts were kept", zap.Int("refused", report.Refused))
	}
}

func execMode(tty, forceBatch bool) service.ExecMode {
	if tty && !forceBatch {
		return service.Interactive
	}
	return service.Batch
}
