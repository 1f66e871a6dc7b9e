package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/playbook"
	"git.home.luguber.info/inful/docsite/internal/publish"
)

// GenerateCmd implements the 'generate' command. Everything after the command
// name is handed to the generator unparsed.
type GenerateCmd struct {
	Args []string `arg:"" optional:"" help:"Generator flags followed by the playbook file"`

	stdout io.Writer
}

func (g *GenerateCmd) Run(ctx context.Context, root *CLI) error {
	env := environ()
	pb, pbErr := playbook.Build(g.Args, env)

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var reg *prom.Registry
	if pbErr == nil {
		if err := root.configureLogging(pb); err != nil {
			return err
		}
		if pb.Metrics.Enabled {
			reg = prom.NewRegistry()
			rec = metrics.NewPrometheusRecorder(reg)
		}
	}

	// The generator receives the resolution result, failures included.
	resolved := func() (*playbook.Playbook, error) { return pb, pbErr }
	res, err := newGenerator(rec, resolved).Generate(ctx, g.Args, env)
	if reg != nil && pb.Metrics.Textfile != "" {
		writeTextfile(reg, pb.Metrics.Textfile)
	}
	if err != nil {
		return err
	}
	g.report(res)
	return nil
}

func (g *GenerateCmd) report(res *publish.Result) {
	w := g.stdout
	if w == nil {
		w = os.Stdout
	}
	for _, d := range res.Destinations {
		_, _ = fmt.Fprintf(w, "Site generated: %d files (%d bytes) to %s %s\n", d.Files, d.Bytes, d.Provider, d.Path)
	}
}

func writeTextfile(reg *prom.Registry, path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Warn("Failed to create metrics directory", logfields.Path(path), logfields.Error(err))
		return
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		slog.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}
