// Package workerpool runs batches of independent tasks with bounded
// parallelism. The observation refresh uses it to fan out one fetch per
// (country, indicator) pair without flooding the upstream API.
package workerpool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Config configures the worker pool.
type Config struct {
	MaxConcurrent int // Maximum concurrent tasks (default: 8)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 8}
}

// Pool manages concurrent task execution with bounded parallelism.
// It uses a semaphore to limit outstanding tasks and processes results
// as they complete, allowing new tasks to start immediately.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a new worker pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 8
	}
	return &Pool{
		config: config,
		logger: logger.Named("worker-pool"),
	}
}

// Task represents a unit of work to be processed.
type Task[T any] struct {
	ID      string                               // For logging/tracking
	Execute func(ctx context.Context) (T, error) // The work to be executed
}

// Result represents the result of a task.
type Result[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all tasks with bounded parallelism.
// Returns results in completion order (not submission order).
// Continues processing all tasks even if some fail.
func Process[T any](
	ctx context.Context,
	pool *Pool,
	tasks []Task[T],
	onProgress func(completed, total int),
) []Result[T] {
	if len(tasks) == 0 {
		return nil
	}

	results := make([]Result[T], 0, len(tasks))
	resultsChan := make(chan Result[T], len(tasks))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, task := range tasks {
		wg.Add(1)
		go func(task Task[T]) {
			defer wg.Done()

			// Acquire semaphore slot (blocks if at max concurrency)
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- Result[T]{ID: task.ID, Result: zero, Err: ctx.Err()}
				return
			}

			result, err := task.Execute(ctx)
			resultsChan <- Result[T]{
				ID:     task.ID,
				Result: result,
				Err:    err,
			}
		}(task)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	completed := 0
	for result := range resultsChan {
		results = append(results, result)
		completed++
		if onProgress != nil {
			onProgress(completed, len(tasks))
		}
	}

	return results
}
