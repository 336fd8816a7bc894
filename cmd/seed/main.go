package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"photogallery/internal/auth"
	"photogallery/internal/config"
	"photogallery/internal/db"
	apperrors "photogallery/internal/errors"
	"photogallery/internal/logger"
	"photogallery/internal/model"
	"photogallery/internal/repository"
	"photogallery/internal/rights"
	"photogallery/internal/validation"
)

// seedGroup is one well-known group with its default rights.
type seedGroup struct {
	ID     uint
	Name   string
	Rights rights.Set
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer func() { _ = log.Sync() }()

	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	login := fs.String("login", envOr("ADMIN_LOGIN", "admin"), "login of the first administrator")
	email := fs.String("email", envOr("ADMIN_EMAIL", "admin@localhost.local"), "email of the first administrator")
	realName := fs.String("name", envOr("ADMIN_NAME", "Administrator"), "real name of the first administrator")
	_ = fs.Parse(os.Args[1:])

	gormDB, err := db.NewMySQL(cfg.MySQLDSN, cfg.LogLevel)
	if err != nil {
		log.Fatal("connect to database", zap.Error(err))
	}
	if err := db.Migrate(gormDB, log); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}

	ctx := context.Background()
	groupRepo := repository.NewGroupRepository(gormDB)
	userRepo := repository.NewUserRepository(gormDB)

	created, existing, err := seedGroups(ctx, groupRepo, defaultGroups(cfg.Groups))
	if err != nil {
		log.Fatal("seed groups", zap.Error(err))
	}
	log.Info("groups seeded", zap.Int("created", created), zap.Int("existing", existing))

	admins, err := userRepo.CountActiveInGroup(ctx, cfg.Groups.AdminID, 0)
	if err != nil {
		log.Fatal("count administrators", zap.Error(err))
	}
	if admins > 0 {
		log.Info("administrator already present, nothing to do", zap.Int64("admins", admins))
		return
	}

	password, err := adminPassword()
	if err != nil {
		log.Fatal("read administrator password", zap.Error(err))
	}
	id, err := seedAdmin(ctx, userRepo, groupRepo, cfg, *login, *email, *realName, password)
	if err != nil {
		log.Fatal("seed administrator", zap.Error(err))
	}
	log.Info("administrator created", zap.Uint("user_id", id), zap.String("login", *login))
}

func defaultGroups(g config.Groups) []seedGroup {
	return []seedGroup{
		{ID: g.GuestID, Name: "Guest", Rights: rights.Set{"admin": false, "delete": false, "edit": false, "upload": false}},
		{ID: g.DefaultID, Name: "Users", Rights: rights.Set{"admin": false, "delete": false, "edit": false, "upload": true}},
		{ID: g.AdminID, Name: "Administrators", Rights: rights.Set{"admin": true, "delete": true, "edit": true, "upload": true}},
	}
}

// seedGroups creates the missing well-known groups, leaving existing rows untouched.
func seedGroups(ctx context.Context, repo repository.GroupRepository, groups []seedGroup) (created int, existing int, err error) {
	for _, g := range groups {
		_, err := repo.FindByID(ctx, g.ID)
		if err == nil {
			existing++
			continue
		}
		if !errors.Is(err, apperrors.ErrGroupNotFound) {
			return created, existing, fmt.Errorf("error checking group %d: %w", g.ID, err)
		}
		encoded, err := rights.Encode(g.Rights)
		if err != nil {
			return created, existing, err
		}
		if err := repo.Create(ctx, &model.Group{ID: g.ID, Name: g.Name, UserRights: encoded}); err != nil {
			return created, existing, fmt.Errorf("error creating group %d: %w", g.ID, err)
		}
		created++
	}
	return created, existing, nil
}

// seedAdmin creates the first administrator with the admin group's rights.
func seedAdmin(ctx context.Context, users repository.UserRepository, groups repository.GroupRepository,
	cfg *config.Config, login, email, realName, password string) (uint, error) {
	if !validation.IsLogin(login) {
		return 0, fmt.Errorf("invalid login %q", login)
	}
	if len(password) < 6 {
		return 0, errors.New("password must be at least 6 characters")
	}
	group, err := groups.FindByID(ctx, cfg.Groups.AdminID)
	if err != nil {
		return 0, fmt.Errorf("load admin group: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	user := &model.User{
		Login:        login,
		Password:     hash,
		Email:        email,
		RealName:     realName,
		RegDate:      now,
		LastActivity: now,
		Avatar:       cfg.Gallery.DefaultAvatar,
		GroupID:      group.ID,
		UserRights:   group.UserRights,
	}
	if err := users.Create(ctx, user); err != nil {
		return 0, fmt.Errorf("create administrator: %w", err)
	}
	return user.ID, nil
}

// adminPassword takes ADMIN_PASSWORD, or prompts without echo on a terminal.
func adminPassword() (string, error) {
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" {
		return pw, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("ADMIN_PASSWORD is not set and stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Administrator password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(pw)), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
