package net

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/gorilla/mux"

	"localboard/internal/export"
	"localboard/internal/state"
)

// Canvas is the size every client draws on; exports use it too.
type Canvas struct {
	Width, Height int
}

// NewRouter wires the hub and the read-only board endpoints.
func NewRouter(h *Hub, canvas Canvas) *mux.Router {
	r := mux.NewRouter()
	r.Use(accessLog)

	r.Methods(http.MethodGet).Path("/ws").HandlerFunc(h.ServeWS)
	r.Methods(http.MethodGet).Path("/api/history").HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ops, ok := snapshot(h, w, req)
		if !ok {
			return
		}
		data, err := state.EncodeOperations(ops)
		if err != nil {
			log.Printf("[HTTP] Failed to encode history: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	})
	r.Methods(http.MethodGet).Path("/export.png").HandlerFunc(exportHandler(h, canvas, "image/png", export.PNG))
	r.Methods(http.MethodGet).Path("/export.pdf").HandlerFunc(exportHandler(h, canvas, "application/pdf", export.PDF))
	return r
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		log.Printf("[HTTP] %s %s %d %s", r.Method, r.URL, m.Code, m.Duration)
	})
}

func snapshot(h *Hub, w http.ResponseWriter, r *http.Request) ([]state.Operation, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ops, err := h.Snapshot(ctx)
	if err != nil {
		log.Printf("[HTTP] Snapshot failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		return nil, false
	}
	return ops, true
}

// exportHandler renders on the request goroutine, never on the hub loop, so a
// slow flood fill cannot stall other clients.
func exportHandler(h *Hub, canvas Canvas, contentType string,
	render func(w io.Writer, ops []state.Operation, width, height int) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ops, ok := snapshot(h, w, r)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := render(&buf, ops, canvas.Width, canvas.Height); err != nil {
			log.Printf("[HTTP] Export failed: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(buf.Bytes())
	}
}

// Serve runs the HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Printf("[HTTP] Listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
