package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"ridecover/internal/shared/config"
	"ridecover/internal/shared/logger"
)

// Globals передаются в Run каждой команды
type Globals struct {
	Config config.Config
	Log    *logger.Logger
}

type CLI struct {
	LogLevel string `help:"Minimum log level (debug|info|warn|error)" env:"LOG_LEVEL" default:"info"`
	Pretty   bool   `help:"Indent JSON log lines" env:"LOG_PRETTY"`

	Serve         ServeCmd         `cmd:"" default:"1" help:"Run the coverage service (HTTP, AMQP consumers, scheduler)"`
	Setup         SetupCmd         `cmd:"" help:"Initialize the driving SDK for one driver and wait for the outcome"`
	CheckSettings CheckSettingsCmd `cmd:"" help:"Run settings diagnostics for one driver"`
	RefreshPeriod RefreshPeriodCmd `cmd:"" help:"Re-evaluate the insurance period for one driver"`
	Token         TokenCmd         `cmd:"" help:"Issue a JWT for a driver or an internal service"`
	VerifyToken   VerifyTokenCmd   `cmd:"" help:"Validate a JWT and print its claims"`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("ridecover"),
		kong.Description("Insurance period and device diagnostics bridge for ride-hailing drivers."),
		kong.UsageOnError(),
	)

	log := logger.NewLoggerWithOptions("coverage-service", logger.Options{
		MinLevel: cli.LogLevel,
		Pretty:   cli.Pretty,
		Caller:   true,
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "config_invalid",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err = kctx.Run(&Globals{Config: cfg, Log: log})
	kctx.FatalIfErrorf(err)
}
