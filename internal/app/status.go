package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vk/trimgrid/internal/ctxlog"
)

// statusRouter exposes liveness and the live job table.
func (a *App) statusRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", a.healthHandler)
	r.Get("/jobs", a.listJobsHandler)
	r.Get("/jobs/{id}", a.getJobHandler)
	return r
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run_id": a.runID})
}

func (a *App) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs := a.graph.Snapshot()
	counts := make(map[string]int, 4)
	for _, st := range jobs {
		counts[st.State.String()]++
	}
	a.writeJSON(w, http.StatusOK, map[string]any{
		"run_id": a.runID,
		"counts": counts,
		"jobs":   jobs,
	})
}

func (a *App) getJobHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := a.graph.Job(id); !ok {
		a.writeJSON(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	for _, st := range a.graph.Snapshot() {
		if st.ID == id {
			a.writeJSON(w, http.StatusOK, st)
			return
		}
	}
}

func (a *App) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.logger.Debug("Encoding status response failed.", "status", status, "error", err)
	}
}

// startStatusServer binds the port synchronously so that a busy port fails
// the run up front, then serves in the background.
func (a *App) startStatusServer(ctx context.Context, port int) error {
	logger := ctxlog.FromContext(ctx)
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start status server: %w", err)
	}

	a.httpServer = &http.Server{Addr: addr, Handler: a.statusRouter(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/jobs", addr))
		if err := a.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeStatusServer() {
	if a.httpServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()

	a.logger.Debug("Shutting down status server...")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("Status server shutdown failed", "error", err)
	}
}
