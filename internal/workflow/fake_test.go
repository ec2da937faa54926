package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
)

// memService is an in-memory book API with server-side id assignment.
type memService struct {
	mu     sync.Mutex
	books  []book.Book
	nextID book.ID
	addErr error
	list   int
}

func newMemService(books ...book.Book) *memService {
	s := &memService{nextID: 1}
	for _, b := range books {
		s.books = append(s.books, b)
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
	}
	return s
}

func (s *memService) ListBooks(ctx context.Context, token string) ([]book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list++
	out := make([]book.Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *memService) AddBook(ctx context.Context, token string, req book.Request) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addErr != nil {
		return book.Book{}, s.addErr
	}
	b := book.Book{ID: s.nextID, Title: req.Title, Author: req.Author, URL: req.URL, CreatedAt: time.Unix(0, 0).UTC()}
	s.nextID++
	s.books = append(s.books, b)
	return b, nil
}

func (s *memService) EditBook(ctx context.Context, token string, id book.ID, req book.Request) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := book.IndexOf(s.books, id)
	if i < 0 {
		return book.Book{}, apperr.NotFoundf("book %s not found", id)
	}
	s.books[i].Title, s.books[i].Author, s.books[i].URL = req.Title, req.Author, req.URL
	return s.books[i], nil
}

func (s *memService) DeleteBook(ctx context.Context, token string, id book.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := book.IndexOf(s.books, id)
	if i < 0 {
		return apperr.NotFoundf("book %s not found", id)
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	return nil
}

// mockService records calls for tests that assert on collaborator usage.
type mockService struct {
	mock.Mock
}

func (m *mockService) ListBooks(ctx context.Context, token string) ([]book.Book, error) {
	args := m.Called(ctx, token)
	books, _ := args.Get(0).([]book.Book)
	return books, args.Error(1)
}

func (m *mockService) AddBook(ctx context.Context, token string, req book.Request) (book.Book, error) {
	args := m.Called(ctx, token, req)
	b, _ := args.Get(0).(book.Book)
	return b, args.Error(1)
}

func (m *mockService) EditBook(ctx context.Context, token string, id book.ID, req book.Request) (book.Book, error) {
	args := m.Called(ctx, token, id, req)
	b, _ := args.Get(0).(book.Book)
	return b, args.Error(1)
}

func (m *mockService) DeleteBook(ctx context.Context, token string, id book.ID) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

type recordingRouter struct {
	mu     sync.Mutex
	routes []session.Route
}

func (r *recordingRouter) GoTo(route session.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recordingRouter) GoBack() {}

func (r *recordingRouter) last() session.Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

func (r *recordingRouter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.routes)
}
