// Package batch runs the document corrector over many files concurrently.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MeKo-Tech/folio/internal/pipeline"
)

// Result summarizes a batch run.
type Result struct {
	Items       []ItemResult
	Duration    time.Duration
	WorkerCount int
	Succeeded   int
	Failed      int
}

// ProcessBatch discovers images from the given paths and corrects them with
// a pool of workers. With ContinueOnError set, per-file failures are recorded
// in the result; otherwise the first failure cancels the remaining work.
func ProcessBatch(ctx context.Context, paths []string, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	files, err := discoverImageFiles(paths, cfg.Recursive, cfg.IncludePatterns, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no image files found")
	}

	proc, err := pipeline.NewProcessor(cfg.Pipeline, cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	items := make([]ItemResult, len(files))
	sem := make(chan struct{}, cfg.Workers)

	var wg sync.WaitGroup
	start := time.Now()
	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-runCtx.Done():
				items[i] = ItemResult{Path: path, Err: runCtx.Err()}
				return
			}
			defer func() { <-sem }()

			item := processSingleImage(runCtx, proc, path, &cfg)
			items[i] = item
			if item.Err != nil {
				slog.Error("batch item failed", "file", path, "error", item.Err)
				if !cfg.ContinueOnError {
					cancel()
				}
			}
		}(i, path)
	}
	wg.Wait()

	res := &Result{
		Items:       items,
		Duration:    time.Since(start),
		WorkerCount: cfg.Workers,
	}
	for _, item := range items {
		if item.Err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}

	if !cfg.ContinueOnError && res.Failed > 0 {
		return res, firstError(items)
	}
	return res, nil
}

func firstError(items []ItemResult) error {
	for _, item := range items {
		if item.Err != nil {
			return item.Err
		}
	}
	return nil
}
