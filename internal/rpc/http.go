package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Someblueman/codeanalysis/internal/tool"
)

// maxBodyBytes caps POST /api/execute bodies.
const maxBodyBytes = 8 << 20

// APIServer exposes a tool.Service over plain HTTP.
type APIServer struct {
	svc     *tool.Service
	timeout time.Duration
	logger  *slog.Logger
}

// NewAPIServer builds the HTTP front end.
func NewAPIServer(svc *tool.Service, timeout time.Duration, logger *slog.Logger) *APIServer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &APIServer{svc: svc, timeout: timeout, logger: logger}
}

// executeView is ExecuteResponse with the output inlined as JSON.
type executeView struct {
	Success     bool            `json:"success"`
	Output      json.RawMessage `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	ContentType string          `json:"content_type"`
}

// Handler returns the HTTP routes.
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/spec", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.svc.GetSpec())
	})
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	return mux
}

func (s *APIServer) handleExecute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, executeView{Error: fmt.Sprintf("read body: %v", err), ContentType: tool.ContentTypeJSON})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	resp := s.svc.ExecuteContext(ctx, body, r.Header.Get("Content-Type"))
	s.logger.Debug("http execute", "success", resp.Success, "bytes", len(body))

	// Tool failures are part of the response contract, not transport errors.
	writeJSON(w, http.StatusOK, executeView{
		Success:     resp.Success,
		Output:      resp.Output,
		Error:       resp.Error,
		ContentType: resp.ContentType,
	})
}

func (s *APIServer) newHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ServeContext serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *APIServer) ServeContext(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ServeContext on an existing listener.
func (s *APIServer) Serve(ctx context.Context, ln net.Listener) error {
	server := s.newHTTPServer(ln.Addr().String())
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
