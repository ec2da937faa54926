package workflow

import (
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/state"
)

// Intent is a user request that starts a workflow.
type Intent interface {
	Op() state.Op
	intent()
}

// List fetches the full collection.
type List struct{}

// Add creates a book from Request.
type Add struct {
	Request book.Request
}

// Edit replaces the editable fields of book ID.
type Edit struct {
	ID      book.ID
	Request book.Request
}

// Delete removes book ID.
type Delete struct {
	ID book.ID
}

func (List) Op() state.Op   { return state.OpList }
func (Add) Op() state.Op    { return state.OpAdd }
func (Edit) Op() state.Op   { return state.OpEdit }
func (Delete) Op() state.Op { return state.OpDelete }

func (List) intent()   {}
func (Add) intent()    {}
func (Edit) intent()   {}
func (Delete) intent() {}
