// Command treasuryd serves the treasury ledger over Connect RPC.
package main

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/mmynk/treasury/pkg/logging"
)

var (
	version = "dev"
	cli     struct {
		LogLevel  string           `help:"Log level (debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
		JWTSecret string           `help:"HMAC secret for caller bearer tokens." env:"JWT_SECRET" required:""`
		Version   kong.VersionFlag `help:"Print the version and exit."`

		Serve ServeCmd `cmd:"" default:"withargs" help:"Start the treasury server."`
		Token TokenCmd `cmd:"" help:"Issue a bearer token for a wallet address (development)."`
	}
)

// Globals carries flags shared by every command.
type Globals struct {
	JWTSecret string
	Version   string
	Logger    *slog.Logger
}

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("treasuryd"),
		kong.Description("Treasury ledger with atomic batched settlement."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger := logging.SetupWithLevel(logging.ParseLevel(cli.LogLevel))
	err := cmd.Run(&Globals{JWTSecret: cli.JWTSecret, Version: version, Logger: logger})
	cmd.FatalIfErrorf(err)
}
