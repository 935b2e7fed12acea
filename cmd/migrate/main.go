package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|redo|status|version|create|validate")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set; create writes here (default "+migrate.SourceDir+")")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	// create and validate never touch the database
	switch *cmd {
	case "create":
		if *name == "" {
			exit("-name is required for create")
		}
		target := *dir
		if target == "" {
			target = migrate.SourceDir
		}
		path, err := migrate.Create(target, *name, time.Now())
		if err != nil {
			exit("create migration: %v", err)
		}
		fmt.Println("created", path)
		return
	case "validate":
		if err := migrate.Validate(source(*dir)); err != nil {
			exit("invalid migrations: %v", err)
		}
		fmt.Println("migrations ok")
		return
	case "version":
		if *version == "" {
			exit("-version is required for version")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		exit("load config: %v", err)
	}
	if cfg.DB.IsSQLite() {
		exit("goose migrations target postgres; sqlite schemas come from the models at startup")
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "migrate.db_unavailable", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "migrate.db_unavailable", err)
	}
	runner, err := migrate.NewRunner(sqlDB, source(*dir), logg)
	if err != nil {
		fail(ctx, logg, "migrate.invalid_source", err)
	}
	if err := runner.Command(ctx, *cmd, *version); err != nil {
		fail(ctx, logg, "migrate.failed", err)
	}
	logg.Info(ctx, "migrate.done")
}

func source(dir string) fs.FS {
	if dir == "" {
		return migrate.Embedded()
	}
	return os.DirFS(dir)
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}

func exit(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
