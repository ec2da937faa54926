package session

import (
	"strings"

	"github.com/five82/shelf/internal/book"
)

// Route is a navigable location in the client.
type Route string

const (
	RouteList   Route = "/"
	RouteAdd    Route = "/add"
	RouteSignIn Route = "/signin"
)

// DetailRoute is the location of a single book.
func DetailRoute(id book.ID) Route { return Route("/book/" + id.String()) }

// EditRoute is the location of the edit form for a book.
func EditRoute(id book.ID) Route { return Route("/edit/" + id.String()) }

// Page identifies which screen a Route addresses.
type Page int

const (
	PageUnknown Page = iota
	PageList
	PageAdd
	PageSignIn
	PageDetail
	PageEdit
)

// ParseRoute splits r into its page and, for detail and edit routes, the book
// id. ok is false for routes the client does not know.
func ParseRoute(r Route) (page Page, id book.ID, ok bool) {
	switch r {
	case RouteList:
		return PageList, 0, true
	case RouteAdd:
		return PageAdd, 0, true
	case RouteSignIn:
		return PageSignIn, 0, true
	}

	s := string(r)
	for prefix, p := range map[string]Page{"/book/": PageDetail, "/edit/": PageEdit} {
		rest, found := strings.CutPrefix(s, prefix)
		if !found {
			continue
		}
		id, err := book.ParseID(rest)
		if err != nil {
			return PageUnknown, 0, false
		}
		return p, id, true
	}
	return PageUnknown, 0, false
}

// Router moves the user between screens.
type Router interface {
	GoTo(Route)
	GoBack()
}

// Discard is a Router that ignores navigation. The CLI uses it.
type Discard struct{}

func (Discard) GoTo(Route) {}
func (Discard) GoBack()    {}
