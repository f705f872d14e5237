package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/renato0307/forge/internal/logging"
)

// ServeCmd runs the supervisor core with its HTTP/SSE command surface
type ServeCmd struct {
	Listen string `help:"Listen address for the command surface" default:"127.0.0.1:7737"`
}

// Run starts the core and blocks until interrupted
func (s *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listen := s.Listen
	if listen == "127.0.0.1:7737" && cli.settings.ListenAddr != nil {
		listen = *cli.settings.ListenAddr
	}

	container, err := NewContainer(ctx, listen)
	if err != nil {
		return err
	}
	defer container.Close()

	logging.Logger.Info("Forge core starting", "listen", listen)
	return container.Server.ListenAndServe(ctx)
}
