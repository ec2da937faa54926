package state

// Status is the discriminant of a Result.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is an immutable snapshot of one asynchronous collection fetch.
// The zero value is Idle.
type Result[T any] struct {
	status  Status
	data    []T
	hasData bool
	err     error
}

// Idle returns the state before any intent was issued.
func Idle[T any]() Result[T] {
	return Result[T]{status: StatusIdle}
}

// Loading returns an in-flight result. previous is kept for display while the
// request runs; pass nil when there is nothing to show.
func Loading[T any](previous []T) Result[T] {
	return Result[T]{
		status:  StatusLoading,
		data:    cloneSlice(previous),
		hasData: previous != nil,
	}
}

// Success returns a completed result. A nil or empty slice is a valid, empty
// collection.
func Success[T any](data []T) Result[T] {
	return Result[T]{status: StatusSuccess, data: cloneSlice(data), hasData: true}
}

// Failed returns a failed result. Previous data is not retained.
func Failed[T any](cause error) Result[T] {
	return Result[T]{status: StatusFailed, err: cause}
}

func (r Result[T]) Status() Status { return r.status }

// Err returns the failure cause. It is nil unless the status is StatusFailed.
func (r Result[T]) Err() error { return r.err }

// Data returns a copy of the carried collection, or nil when none is carried.
func (r Result[T]) Data() []T {
	if !r.hasData {
		return nil
	}
	out := make([]T, len(r.data))
	copy(out, r.data)
	return out
}

// HasData reports whether the result carries a collection, possibly empty.
func (r Result[T]) HasData() bool { return r.hasData }

func (r Result[T]) Len() int { return len(r.data) }

func (r Result[T]) IsLoading() bool { return r.status == StatusLoading }

func cloneSlice[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
