// Package runtime provides a context type that holds the engine, logger and
// configuration for use throughout the application. This avoids passing
// multiple parameters through every command.
package runtime

import (
	"context"

	"bulkpilot.dev/bulkpilot/internal/config"
	"bulkpilot.dev/bulkpilot/internal/engine"
	"bulkpilot.dev/bulkpilot/internal/git"
	"bulkpilot.dev/bulkpilot/internal/github"
	"bulkpilot.dev/bulkpilot/internal/output"
)

// Context provides access to the engine and output for commands
type Context struct {
	Context context.Context
	Engine  *engine.Engine
	Client  github.Client
	Splog   *output.Splog
	Config  *config.Config
}

// NewContext builds a Context from an explicit client and config.
// Used by tests to inject fakes.
func NewContext(ctx context.Context, client github.Client, cfg *config.Config, splog *output.Splog) *Context {
	fallback := git.NewFallback(cfg.Paths.ScratchDir)
	eng := engine.New(client, fallback, splog, engine.Options{Workers: cfg.Batch.Workers})
	return &Context{
		Context: ctx,
		Engine:  eng,
		Client:  client,
		Splog:   splog,
		Config:  cfg,
	}
}

// GetContext creates the runtime context for a CLI invocation: loads config,
// builds the authenticated GitHub client and wires the engine.
func GetContext(ctx context.Context) (*Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	splog, err := output.NewSplogWithConfig(cfg.Log.File)
	if err != nil {
		return nil, err
	}

	client, err := github.NewClient(ctx, github.Options{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff(),
	})
	if err != nil {
		return nil, err
	}

	return NewContext(ctx, client, cfg, splog), nil
}
