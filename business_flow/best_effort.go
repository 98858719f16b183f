package businessflow

import (
	"context"
	"fmt"
	"sync"

	"github.com/amirphl/orochi-partners/logging"
	"golang.org/x/sync/errgroup"
)

// BestEffortTask is one post-commit side effect. Its failure never affects
// other tasks or the operation that dispatched it.
type BestEffortTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// BestEffortDispatcher runs batches of independent tasks after the
// authoritative transaction has committed. Tasks are at-most-once: a failed
// task is logged and counted, never retried.
type BestEffortDispatcher interface {
	// Dispatch starts the batch and returns immediately
	Dispatch(ctx context.Context, batch string, tasks ...BestEffortTask)
	// Go runs a single fire-and-forget task outside any batch limit
	Go(ctx context.Context, name string, fn func(ctx context.Context) error)
	// Wait blocks until every dispatched task has finished
	Wait()
}

type BestEffortDispatcherImpl struct {
	limit int
	wg    sync.WaitGroup
}

// NewBestEffortDispatcher creates a dispatcher running at most limit tasks of a
// batch concurrently. A limit <= 0 means no limit.
func NewBestEffortDispatcher(limit int) *BestEffortDispatcherImpl {
	return &BestEffortDispatcherImpl{limit: limit}
}

func (d *BestEffortDispatcherImpl) Dispatch(ctx context.Context, batch string, tasks ...BestEffortTask) {
	if len(tasks) == 0 {
		return
	}
	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		var g errgroup.Group
		if d.limit > 0 {
			g.SetLimit(d.limit)
		}
		for _, task := range tasks {
			g.Go(func() error {
				d.run(detached, batch, task)
				return nil
			})
		}
		_ = g.Wait()

		logging.Ctx(detached).Debug().Str("batch", batch).Int("tasks", len(tasks)).Msg("best-effort batch finished")
	}()
}

func (d *BestEffortDispatcherImpl) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	detached := context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(detached, "", BestEffortTask{Name: name, Run: fn})
	}()
}

func (d *BestEffortDispatcherImpl) Wait() {
	d.wg.Wait()
}

func (d *BestEffortDispatcherImpl) run(ctx context.Context, batch string, task BestEffortTask) {
	logger := logging.Ctx(ctx).With().Str("batch", batch).Str("task", task.Name).Logger()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task.Run(ctx)
	}()

	if err != nil {
		bestEffortTasks.WithLabelValues(task.Name, "failure").Inc()
		logger.Error().Err(err).Msg("best-effort task failed")
		return
	}
	bestEffortTasks.WithLabelValues(task.Name, "success").Inc()
}
