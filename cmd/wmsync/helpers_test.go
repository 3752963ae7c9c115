package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/nao1215/wmsync/internal/config"
)

// newTestApp returns a runtime that logs nowhere and captures stdout.
func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	cfg := config.NewConfig()
	cfg.Env = &config.Environment{}
	return &app{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		stdout: out,
	}, out
}
