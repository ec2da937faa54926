package state

import (
	"context"
	"errors"
	"fmt"
)

// Task produces the full collection for a Job.
type Task[T any] func(ctx context.Context) ([]T, error)

// Job is one issued intent waiting to run. Run is safe to call from any
// goroutine; the returned action is applied separately so the caller decides
// where state changes happen.
type Job[T any] struct {
	Op   Op
	Gen  uint64
	Task Task[T]
}

// Run executes the task and converts its outcome into Succeeded or Failure.
// A panic inside the task is recovered into a Failure.
func (j Job[T]) Run(ctx context.Context) (act Action) {
	defer func() {
		if r := recover(); r != nil {
			act = j.fail(fmt.Errorf("%s: task panicked: %v", j.Op, r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return j.fail(fmt.Errorf("%s: %w", j.Op, err))
	}
	if j.Task == nil {
		return j.fail(errors.New(j.Op.String() + ": no task"))
	}

	data, err := j.Task(ctx)
	if err != nil {
		return j.fail(err)
	}
	if err := ctx.Err(); err != nil {
		return j.fail(fmt.Errorf("%s: %w", j.Op, err))
	}
	return Succeeded[T]{Op: j.Op, Gen: j.Gen, Data: data}
}

func (j Job[T]) fail(err error) Failure {
	return Failure{Op: j.Op, Gen: j.Gen, Err: err}
}
