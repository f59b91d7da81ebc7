package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/annisahuljannah/cadoobag/pkg/config"
	"github.com/annisahuljannah/cadoobag/pkg/db"
	"github.com/annisahuljannah/cadoobag/pkg/logger"
	"github.com/annisahuljannah/cadoobag/pkg/migrate"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "directory with migration files")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		os.Stderr.WriteString("usage: migrate [-dir path] <command> [args]\n")
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "cadoobag-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})
	ctx := context.Background()

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "database connection failed", err)
		os.Exit(1)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		logg.Error(ctx, "unwrapping sql.DB failed", err)
		os.Exit(1)
	}

	if err := migrate.Run(ctx, sqlDB, *dir, command, args[1:]...); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "command", command), "migration complete")
}
