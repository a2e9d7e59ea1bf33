package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/FACorreiaa/go-trip-assistant/config"
)

// Context is handed to every command's Run method.
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
	In     io.Reader
}

var CLI struct {
	Verbose bool `help:"Log at debug level." short:"v"`

	Migrate MigrateCmd `cmd:"" help:"Apply the embedded database migrations."`
	Token   TokenCmd   `cmd:"" help:"Mint a bearer token for local testing."`
	Chat    ChatCmd    `cmd:"" help:"Talk to the assistant from the terminal."`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name("tripctl"),
		kong.Description("Operator tooling for the trip assistant backend"),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level}))

	cfg, err := config.InitConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = kctx.Run(&Context{Config: &cfg, Logger: logger, Out: os.Stdout, In: os.Stdin})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
