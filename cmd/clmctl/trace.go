package main

import (
	"os"

	"github.com/cml-go/cml/internal/config"
	"github.com/cml-go/cml/internal/trace"
)

// openTrace opens cfg.TracePath for event recording if set, returning a
// nil *trace.Recorder (a legal, zero-overhead no-op) otherwise. The
// returned close func is always safe to defer, even when no file was
// opened.
func openTrace(cfg config.Scheduler) (*trace.Recorder, func()) {
	if cfg.TracePath == "" {
		return nil, func() {}
	}
	f, err := os.Create(cfg.TracePath)
	if err != nil {
		return nil, func() {}
	}
	return trace.NewRecorder(f), func() { f.Close() }
}
