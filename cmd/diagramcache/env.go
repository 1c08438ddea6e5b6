package main

import (
	"io"
	"os"
	"time"

	diagramcache "github.com/alnah/go-diagramcache"
	"github.com/alnah/go-diagramcache/internal/config"
)

// RendererFactory builds the renderer selected by cfg. The returned close
// function releases its resources and is never nil on success.
type RendererFactory func(cfg config.RendererConfig) (diagramcache.Renderer, func(), error)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now         func() time.Time
	Stdout      io.Writer
	Stderr      io.Writer
	NewRenderer RendererFactory
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:         time.Now,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		NewRenderer: newRenderer,
	}
}

// newRenderer returns mmdc or the headless browser renderer.
func newRenderer(cfg config.RendererConfig) (diagramcache.Renderer, func(), error) {
	if cfg.Kind == config.RendererBrowser {
		r := diagramcache.NewBrowserRenderer(cfg.ScriptURL, cfg.Timeout)
		if err := r.Start(); err != nil {
			_ = r.Close()
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	}

	m, err := diagramcache.NewMermaidCLI(cfg.Binary)
	if err != nil {
		return nil, nil, err
	}
	m.Args = cfg.Args
	return m, func() {}, nil
}
