package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/limbo/habitstreak/internal/service"
	"github.com/limbo/habitstreak/pkg/config"
)

var CLI struct {
	EnvFile string `help:"Path to the .env file. Missing file is ignored." default:"./configs/.env" type:"path"`

	Serve         ServeCmd         `cmd:"" default:"1" help:"Migrate, backfill stats and serve the HTTP API."`
	Migrate       MigrateCmd       `cmd:"" help:"Apply database migrations and exit."`
	BackfillStats BackfillStatsCmd `cmd:"" name:"backfill-stats" help:"Create missing user stats from the ledger and exit."`
}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	service.InitValidator()

	ctx := kong.Parse(&CLI,
		kong.Name("habitstreak"),
		kong.Description("Habit tracking API with streaks and lifetime stats"),
		kong.UsageOnError(),
	)
	cfg, err := config.Load(CLI.EnvFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err = ctx.Run(cfg); err != nil {
		slog.Error("command failed", slog.String("command", ctx.Command()), slog.String("error", err.Error()))
		os.Exit(1)
	}
}
