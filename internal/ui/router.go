package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/session"
)

const routeBuffer = 16

// Router is a session.Router that hands navigation requests to the Bubble
// Tea program. Workflows call it from job goroutines; the model drains it
// through waitCmd.
type Router struct {
	ch chan navigation
}

type navigation struct {
	route session.Route
	back  bool
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{ch: make(chan navigation, routeBuffer)}
}

// GoTo requests a move to r. When the buffer is full the oldest pending
// request is dropped so the latest navigation always wins.
func (r *Router) GoTo(route session.Route) {
	r.send(navigation{route: route})
}

// GoBack requests a move to the previous screen.
func (r *Router) GoBack() {
	r.send(navigation{back: true})
}

func (r *Router) send(n navigation) {
	for {
		select {
		case r.ch <- n:
			return
		default:
		}
		select {
		case <-r.ch:
		default:
		}
	}
}

// waitCmd blocks until the next navigation request or ctx is done.
func (r *Router) waitCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-r.ch:
			return routeMsg(n)
		case <-ctx.Done():
			return nil
		}
	}
}

var _ session.Router = (*Router)(nil)
