package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/chatstore-backend/pkg/config"
	"github.com/angelmondragon/chatstore-backend/pkg/db"
	"github.com/angelmondragon/chatstore-backend/pkg/logger"
	"github.com/angelmondragon/chatstore-backend/pkg/migrate"
)

type command func(ctx context.Context, sqlDB *sql.DB, target string) error

var commands = map[string]command{
	"up":     gooseCommand("up"),
	"down":   gooseCommand("down"),
	"status": gooseCommand("status"),
	"redo":   gooseCommand("redo"),
	"version": func(ctx context.Context, sqlDB *sql.DB, target string) error {
		if target == "" {
			return fmt.Errorf("-version is required for -cmd=version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, target)
	},
}

func gooseCommand(name string) command {
	return func(ctx context.Context, sqlDB *sql.DB, _ string) error {
		return migrate.Run(ctx, sqlDB, name)
	}
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: validate|"+strings.Join(commandNames(), "|"))
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the migration after this long")
	flag.Parse()

	// validate only reads the embedded files
	if *cmd == "validate" {
		if err := migrate.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}
	run, ok := commands[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q\n", *cmd)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	cfg, err := config.Load()
	exitOnErr(ctx, logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOnErr(ctx, logg, "connect database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	exitOnErr(ctx, logg, "extract sql.DB", err)

	start := time.Now()
	err = run(ctx, sqlDB, *version)
	exitOnErr(ctx, logg, "migrate "+*cmd, err)
	logg.Info(logg.WithField(ctx, "duration_ms", time.Since(start).Milliseconds()), "migrate.done")
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func exitOnErr(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, step+" failed", err)
	os.Exit(1)
}
