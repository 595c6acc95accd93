package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Someblueman/codeanalysis/internal/analysis"
	"github.com/Someblueman/codeanalysis/internal/rpc"
	"github.com/Someblueman/codeanalysis/internal/tool"
)

func newSpecCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "spec",
		Short: "Print the tool description and parameter schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			svc := tool.NewService(newEngine(cfg, logger), logger)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(svc.GetSpec())
		},
	}
}

func newExecCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "exec",
		Short: "Run one request JSON from stdin and print the response JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.Timeout)
			defer cancel()

			engine := newEngine(cfg, logger)
			done := make(chan string, 1)
			go func() { done <- engine.Bridge(data) }()

			var out string
			select {
			case out = <-done:
			case <-ctx.Done():
				out = analysis.EncodeResponse(analysis.Response{Error: "analysis timed out: " + ctx.Err().Error()})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

func newServeCmd(c *cli) *cobra.Command {
	var addr, httpAddr, framing string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC tool service and optional HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if flags.Changed("http") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if flags.Changed("framing") {
				cfg.Server.Framing = framing
			}
			if err := cfg.Normalize(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc := tool.NewService(newEngine(cfg, logger), logger)
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				srv := rpc.NewServer(svc, rpc.Options{
					Timeout: cfg.Server.Timeout,
					Framing: cfg.Server.Framing,
					Logger:  logger,
				})
				return srv.ListenAndServe(gctx, cfg.Server.Addr)
			})
			if cfg.Server.HTTPAddr != "" {
				g.Go(func() error {
					api := rpc.NewAPIServer(svc, cfg.Server.Timeout, logger)
					return api.ServeContext(gctx, cfg.Server.HTTPAddr)
				})
			}

			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				logger.Info("shutdown complete")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "JSON-RPC listen address (default :50053)")
	cmd.Flags().StringVar(&httpAddr, "http", "", "HTTP API listen address (disabled when empty)")
	cmd.Flags().StringVar(&framing, "framing", "", "JSON-RPC framing (vscode, line)")
	return cmd
}
