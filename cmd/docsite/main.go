package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/cmd/docsite/commands"
	derrors "git.home.luguber.info/inful/docsite/internal/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("docsite"),
		kong.Description("Multi-version documentation site generator"),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&cli)
	code := derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	cancel()
	os.Exit(code)
}
