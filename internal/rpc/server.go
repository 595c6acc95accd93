// Package rpc serves the analysis tool over JSON-RPC 2.0 and HTTP.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/Someblueman/codeanalysis/internal/config"
	"github.com/Someblueman/codeanalysis/internal/tool"
)

// JSON-RPC method names.
const (
	MethodGetSpec = "ToolService.GetSpec"
	MethodExecute = "ToolService.Execute"
)

// ExecuteParams are the parameters of ToolService.Execute. Input travels as
// base64 in JSON.
type ExecuteParams struct {
	Input       []byte `json:"input"`
	ContentType string `json:"content_type"`
}

// Options configures a Server.
type Options struct {
	// Timeout bounds each Execute call; zero disables it.
	Timeout time.Duration
	Framing string
	Logger  *slog.Logger
}

// Server exposes a tool.Service to JSON-RPC connections.
type Server struct {
	svc     *tool.Service
	timeout time.Duration
	framing string
	logger  *slog.Logger

	wg sync.WaitGroup
}

// NewServer builds a server instance.
func NewServer(svc *tool.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Framing == "" {
		opts.Framing = config.FramingVSCode
	}
	return &Server{
		svc:     svc,
		timeout: opts.Timeout,
		framing: opts.Framing,
		logger:  opts.Logger,
	}
}

func objectCodec(framing string) jsonrpc2.ObjectCodec {
	if framing == config.FramingLine {
		return jsonrpc2.PlainObjectCodec{}
	}
	return jsonrpc2.VSCodeObjectCodec{}
}

// Handler returns the JSON-RPC handler. Requests on one connection are
// served concurrently.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.AsyncHandler(jsonrpc2.HandlerWithError(s.handle))
}

func (s *Server) handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case MethodGetSpec:
		return s.svc.GetSpec(), nil
	case MethodExecute:
		if req.Params == nil || string(*req.Params) == "null" {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
		}
		var params ExecuteParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		resp := s.svc.ExecuteContext(ctx, params.Input, params.ContentType)
		s.logger.Debug("execute", "success", resp.Success, "bytes", len(params.Input))
		return resp, nil
	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

// ServeConn serves one connection until the peer disconnects or ctx ends.
func (s *Server) ServeConn(ctx context.Context, rwc io.ReadWriteCloser) {
	stream := jsonrpc2.NewBufferedStream(rwc, objectCodec(s.framing))
	conn := jsonrpc2.NewConn(ctx, stream, s.Handler())
	select {
	case <-conn.DisconnectNotify():
	case <-ctx.Done():
		_ = conn.Close()
	}
}

// Serve accepts connections on ln until ctx ends, then closes the listener
// and waits for open connections to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	s.logger.Info("json-rpc listening", "addr", ln.Addr().String(), "framing", s.framing)
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				cancel()
				s.wg.Wait()
				return ctx.Err()
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(ctx, nc)
		}()
	}
}

// ListenAndServe listens on addr and serves until ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
