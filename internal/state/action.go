package state

import "fmt"

// Op names the intent that produced an action.
type Op int

const (
	OpList Op = iota
	OpAdd
	OpEdit
	OpDelete

	opCount
)

func (o Op) String() string {
	switch o {
	case OpList:
		return "list"
	case OpAdd:
		return "add"
	case OpEdit:
		return "edit"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

func (o Op) valid() bool { return o >= 0 && o < opCount }

// Action is the closed set of state transitions a Container accepts.
type Action interface {
	action()
}

// Requested records that an intent was issued with generation Gen.
type Requested struct {
	Op  Op
	Gen uint64
}

// Succeeded carries the full collection produced by a completed intent.
type Succeeded[T any] struct {
	Op   Op
	Gen  uint64
	Data []T
}

// Failure carries the cause of a failed intent.
type Failure struct {
	Op  Op
	Gen uint64
	Err error
}

// Reset ends the session. Outstanding generations are invalidated.
type Reset struct{}

func (Requested) action()    {}
func (Succeeded[T]) action() {}
func (Failure) action()      {}
func (Reset) action()        {}
