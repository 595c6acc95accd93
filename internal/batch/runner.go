package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Someblueman/codeanalysis/internal/analysis"
)

// Result is the outcome of analyzing one file. Err is set only when the file
// could not be read; analysis faults live in Response.
type Result struct {
	File     FileRecord
	Digest   string
	Response analysis.Response
	Err      error
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func(completed, total int, file FileRecord)

// RunOptions configures a batch run.
type RunOptions struct {
	Action     string
	Workers    int
	OnProgress ProgressFunc
	Logger     *slog.Logger
}

// Run analyzes files with a bounded number of workers. Files
// with identical content are analyzed once. Results come back sorted by
// relative path; the returned error is non-nil only when ctx ends early.
func Run(ctx context.Context, engine *analysis.Engine, files []FileRecord, opts RunOptions) ([]Result, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		mu        sync.Mutex
		completed int
		shared    singleflight.Group
		memo      sync.Map
	)
	results := make([]Result, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, file := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			res := Result{File: file}
			data, err := os.ReadFile(file.AbsPath)
			if err != nil {
				logger.Warn("read source failed", "path", file.RelPath, "error", err)
				res.Err = fmt.Errorf("read %s: %w", file.RelPath, err)
			} else {
				res.Digest = hashContents(data)
				key := opts.Action + ":" + res.Digest
				value, _, _ := shared.Do(key, func() (any, error) {
					if cached, ok := memo.Load(key); ok {
						return cached, nil
					}
					resp := engine.Execute(analysis.Request{Action: opts.Action, Code: string(data)})
					memo.Store(key, resp)
					return resp, nil
				})
				res.Response = value.(analysis.Response)
			}
			results[i] = res

			mu.Lock()
			completed++
			c := completed
			mu.Unlock()
			if opts.OnProgress != nil {
				opts.OnProgress(c, len(files), file)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].File.RelPath < results[j].File.RelPath
	})
	return results, nil
}

func hashContents(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
