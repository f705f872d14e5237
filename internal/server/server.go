// Package server binds the supervisor's command surface to a local HTTP
// endpoint: commands as POST requests (GET for read-only lookups), events
// as an SSE stream. This is
// the reference IPC binding for a renderer UI.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/renato0307/forge/internal/logging"
	"github.com/renato0307/forge/internal/ports"
	"github.com/renato0307/forge/internal/supervisor"
)

// Server hosts the command endpoints and the event stream.
type Server struct {
	sup         *supervisor.Supervisor
	store       ports.Store
	broadcaster *Broadcaster
	httpServer  *http.Server
}

// New creates a Server for the given supervisor and broadcaster.
func New(sup *supervisor.Supervisor, store ports.Store, broadcaster *Broadcaster, addr string) *Server {
	s := &Server{
		sup:         sup,
		store:       store,
		broadcaster: broadcaster,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/events", s.handleEvents)

	r.Route("/workspace", func(r chi.Router) {
		r.Post("/open", s.handleWorkspaceOpen)
		r.Get("/list", s.handleWorkspaceList)
		r.Get("/{id}", s.handleWorkspaceGet)
		r.Post("/{id}/pin", s.handleWorkspacePin)
		r.Get("/{id}/sessions", s.handleActiveSessions)
	})

	r.Route("/memory", func(r chi.Router) {
		r.Post("/store", s.handleMemoryStore)
		r.Post("/search", s.handleMemorySearch)
		r.Post("/list", s.handleMemoryList)
		r.Post("/delete", s.handleMemoryDelete)
	})

	r.Post("/agent/route", s.handleRoute)

	r.Route("/shell", func(r chi.Router) {
		r.Post("/spawn", s.handleShellSpawn)
		r.Get("/list", s.handleShellList)
		r.Post("/write", s.handleShellWrite)
		r.Post("/resize", s.handleShellResize)
		r.Post("/kill", s.handleShellKill)
		r.Post("/openExternal", s.handleOpenExternal)
		r.Post("/openPath", s.handleOpenPath)
	})

	r.Route("/continuation", func(r chi.Router) {
		r.Post("/start", s.handleContinuationStart)
		r.Post("/stop", s.handleContinuationStop)
		r.Post("/state", s.handleContinuationState)
	})

	r.Post("/ensemble/synthesis", s.handleSynthesis)
	r.Post("/window/focus", s.handleWindowFocus)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	logging.Logger.Info("Command surface listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleEvents is the SSE endpoint delivering all tagged events.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	client, err := s.broadcaster.addClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer s.broadcaster.removeClient(client)

	select {
	case <-r.Context().Done():
	case <-client.done:
	}
}
