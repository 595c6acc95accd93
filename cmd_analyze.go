package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Someblueman/codeanalysis/internal/analysis"
	"github.com/Someblueman/codeanalysis/internal/batch"
	"github.com/Someblueman/codeanalysis/internal/config"
	"github.com/Someblueman/codeanalysis/internal/report"
)

const stdinPath = "-"

func newActionCmd(c *cli, action, short string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   action + " [paths...]",
		Short: short,
		Long:  short + ". Paths may be files or directories; with no path or \"-\" the source is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer, err := report.RendererFor(format)
			if err != nil {
				return err
			}
			cfg, logger, err := c.load(cmd)
			if err != nil {
				return err
			}
			engine := newEngine(cfg, logger)

			entries, err := collectEntries(cmd, engine, cfg, logger, action, args)
			if err != nil {
				return err
			}
			if err := renderer.Render(cmd.OutOrStdout(), entries); err != nil {
				return fmt.Errorf("render %s: %w", renderer.Name(), err)
			}

			failed := 0
			for _, entry := range entries {
				if entry.Err != nil {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources could not be read", failed, len(entries))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON, "Output format (json, markdown, text)")
	return cmd
}

func collectEntries(cmd *cobra.Command, engine *analysis.Engine, cfg config.Config, logger *slog.Logger, action string, args []string) ([]report.Entry, error) {
	if len(args) == 0 {
		args = []string{stdinPath}
	}

	var entries []report.Entry
	for _, arg := range args {
		if arg == stdinPath {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return nil, fmt.Errorf("read stdin: %w", err)
			}
			entries = append(entries, report.Entry{
				Path:     "<stdin>",
				Response: engine.Execute(analysis.Request{Action: action, Code: string(data)}),
			})
			continue
		}

		idx, err := batch.BuildFileIndex(cmd.Context(), arg, batch.IndexOptions{
			Extensions:  cfg.Batch.Extensions,
			ExcludeDirs: cfg.Batch.ExcludeDirs,
		})
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", arg, err)
		}
		logger.Debug("indexed sources", "root", arg, "files", len(idx.Files))

		results, err := batch.Run(cmd.Context(), engine, idx.Files, batch.RunOptions{
			Action:  action,
			Workers: cfg.Batch.Workers,
			Logger:  logger,
			OnProgress: func(completed, total int, file batch.FileRecord) {
				logger.Debug("analyzed", "path", file.RelPath, "completed", completed, "total", total)
			},
		})
		if err != nil {
			return nil, err
		}
		for _, res := range results {
			entries = append(entries, report.Entry{
				Path:     displayPath(arg, idx, res.File),
				Response: res.Response,
				Err:      res.Err,
			})
		}
	}
	return entries, nil
}

// displayPath keeps a file argument as typed and joins directory results
// onto the argument.
func displayPath(arg string, idx *batch.FileIndex, file batch.FileRecord) string {
	if len(idx.Files) == 1 && file.AbsPath != "" && filepath.Base(arg) == file.RelPath {
		if abs, err := filepath.Abs(arg); err == nil && abs == file.AbsPath {
			return arg
		}
	}
	return filepath.Join(arg, file.RelPath)
}
