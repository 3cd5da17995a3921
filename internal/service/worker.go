package service

import (
	"context"
	"errors"
	"sync"

	"github.com/vanshika/circuitcycle/backend/internal/domain"
)

// TaskError accumulates multiple errors produced during bulk publishing.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := "multiple errors:"
	for _, err := range e.Errors {
		msg += " " + err.Error() + ";"
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// BinWriter upserts a single bin.
type BinWriter interface {
	UpsertBin(ctx context.Context, bin domain.Bin) error
}

// BulkPublisher pushes large bin fleets to the graph using a worker pool.
type BulkPublisher struct {
	writer  BinWriter
	workers int
}

// NewBulkPublisher creates a BulkPublisher with the provided concurrency.
func NewBulkPublisher(writer BinWriter, workers int) *BulkPublisher {
	if workers <= 0 {
		workers = 4
	}
	return &BulkPublisher{
		writer:  writer,
		workers: workers,
	}
}

// PublishBins upserts the bins concurrently.
func (bp *BulkPublisher) PublishBins(ctx context.Context, bins []domain.Bin) error {
	return bp.run(ctx, len(bins), func(idx int) error {
		return bp.writer.UpsertBin(ctx, bins[idx])
	})
}

func (bp *BulkPublisher) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
					return
				}
			}
		}
	}

	for i := 0; i < bp.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}

	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
