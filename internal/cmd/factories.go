package cmd

import (
	"context"

	adapterclaude "github.com/renato0307/forge/internal/adapters/claude"
	adapternotify "github.com/renato0307/forge/internal/adapters/notify"
	adapterpty "github.com/renato0307/forge/internal/adapters/pty"
	adapterstorage "github.com/renato0307/forge/internal/adapters/storage"
	"github.com/renato0307/forge/internal/config"
	"github.com/renato0307/forge/internal/ports"
	"github.com/renato0307/forge/internal/server"
	"github.com/renato0307/forge/internal/supervisor"
)

// Container holds all dependencies for the application
type Container struct {
	Store       ports.Store
	Supervisor  *supervisor.Supervisor
	Broadcaster *server.Broadcaster
	Server      *server.Server
}

// NewContainer creates a Container with all dependencies wired. ctx bounds
// the lifetime of timers and continuation loops.
func NewContainer(ctx context.Context, listenAddr string) (*Container, error) {
	store, err := adapterstorage.NewSQLiteRepository(config.GetDBPath())
	if err != nil {
		return nil, err
	}

	broadcaster := server.NewBroadcaster()
	sink := server.NewEventSink(broadcaster)
	notifier := adapternotify.NewNotifier()
	runner := adapterclaude.NewRunner()

	sup := supervisor.New(ctx, store, sink, notifier, runner, config.GetClaudeBackupDir())
	sup.SetPtyManager(adapterpty.NewManager(sup))

	srv := server.New(sup, store, broadcaster, listenAddr)

	return &Container{
		Store:       store,
		Supervisor:  sup,
		Broadcaster: broadcaster,
		Server:      srv,
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
