package state

// Container is a Result plus the generation bookkeeping used to drop stale
// completions. The zero value is an Idle container with nothing issued.
type Container[T any] struct {
	result  Result[T]
	issued  uint64
	applied uint64
	latest  [opCount]uint64
}

// Result returns the current result snapshot.
func (c Container[T]) Result() Result[T] { return c.result }

// Issued is the highest generation requested so far.
func (c Container[T]) Issued() uint64 { return c.issued }

// Applied is the generation of the last completion that changed the result.
func (c Container[T]) Applied() uint64 { return c.applied }

// Pending reports whether a request newer than the last applied completion
// is still outstanding.
func (c Container[T]) Pending() bool { return c.issued > c.applied }

// Stale reports whether a completion for op with generation gen would be
// dropped.
func (c Container[T]) Stale(op Op, gen uint64) bool {
	if !op.valid() || gen == 0 || gen > c.issued {
		return true
	}
	return gen <= c.applied || gen < c.latest[op]
}

// Reduce returns the container that follows c after a. It has no side effects
// and never modifies c. Stale completions, duplicate requests and actions of
// another element type leave c unchanged.
func Reduce[T any](c Container[T], a Action) Container[T] {
	next, _ := reduce(c, a)
	return next
}

func reduce[T any](c Container[T], a Action) (Container[T], bool) {
	switch a := a.(type) {
	case Requested:
		if !a.Op.valid() || a.Gen <= c.issued {
			return c, false
		}
		next := c
		next.issued = a.Gen
		next.latest[a.Op] = a.Gen
		next.result = Loading(c.result.Data())
		return next, true

	case Succeeded[T]:
		if c.Stale(a.Op, a.Gen) {
			return c, false
		}
		next := c
		next.applied = a.Gen
		if a.Gen == c.issued {
			next.result = Success(a.Data)
		} else {
			next.result = Loading(nonNil(a.Data))
		}
		return next, true

	case Failure:
		if c.Stale(a.Op, a.Gen) {
			return c, false
		}
		next := c
		next.applied = a.Gen
		next.result = Failed[T](a.Err)
		return next, true

	case Reset:
		next := Container[T]{issued: c.issued, applied: c.issued, latest: c.latest}
		return next, c.result.status != StatusIdle || c.Pending()
	}
	return c, false
}

// nonNil keeps an empty successful payload distinguishable from "no data" when
// it is carried forward into Loading.
func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
