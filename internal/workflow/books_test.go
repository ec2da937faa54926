package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

var (
	bookA = book.Book{ID: 1, Title: "A", Author: "Ann", URL: "https://a.test"}
	bookB = book.Book{ID: 2, Title: "B", Author: "Bob", URL: "https://b.test"}
)

func setup(t *testing.T, svc BookService) (*Books, *session.Session, *recordingRouter) {
	t.Helper()
	router := &recordingRouter{}
	sess := session.New(session.NewMemoryStore("tok"), router)
	return New(&state.Store[book.Book]{}, svc, nil), sess, router
}

func TestListThenDelete(t *testing.T) {
	books, sess, router := setup(t, newMemService(bookA, bookB))
	ctx := context.Background()

	snap, err := books.Do(ctx, sess, List{})
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, snap.Result.Status())
	assert.Equal(t, []book.Book{bookA, bookB}, snap.Result.Data())

	snap, err = books.Do(ctx, sess, Delete{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, state.StatusSuccess, snap.Result.Status())
	assert.Equal(t, []book.Book{bookB}, snap.Result.Data())
	assert.Equal(t, session.RouteList, router.last())
}

func TestRepeatedDeleteFailsWithNotFound(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Return([]book.Book{bookA, bookB}, nil).Once()
	svc.On("DeleteBook", mock.Anything, "tok", book.ID(1)).Return(nil).Once()
	svc.On("ListBooks", mock.Anything, "tok").Return([]book.Book{bookB}, nil).Once()

	books, sess, _ := setup(t, svc)
	ctx := context.Background()

	_, err := books.Do(ctx, sess, List{})
	require.NoError(t, err)
	_, err = books.Do(ctx, sess, Delete{ID: 1})
	require.NoError(t, err)

	snap, err := books.Do(ctx, sess, Delete{ID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
	assert.True(t, apperr.IsKind(snap.Result.Err(), apperr.KindNotFound))
	assert.False(t, snap.Result.HasData())

	svc.AssertNumberOfCalls(t, "DeleteBook", 1)
	svc.AssertExpectations(t)
}

func TestAddThenListContainsBook(t *testing.T) {
	books, sess, router := setup(t, newMemService(bookA))
	ctx := context.Background()
	req := book.Request{Title: "Dune", Author: "Herbert", URL: "https://dune.test"}

	_, err := books.Do(ctx, sess, Add{Request: req})
	require.NoError(t, err)
	assert.Equal(t, session.RouteList, router.last())

	snap, err := books.Do(ctx, sess, List{})
	require.NoError(t, err)

	var found []book.Book
	for _, b := range snap.Result.Data() {
		if req.Matches(b) {
			found = append(found, b)
		}
	}
	require.Len(t, found, 1)
	assert.NotEqual(t, bookA.ID, found[0].ID)
}

func TestEditReplacesExactlyOneEntry(t *testing.T) {
	books, sess, _ := setup(t, newMemService(bookA, bookB))
	ctx := context.Background()

	_, err := books.Do(ctx, sess, List{})
	require.NoError(t, err)

	req := book.Request{Title: "B2", Author: "Bob", URL: "https://b2.test"}
	snap, err := books.Do(ctx, sess, Edit{ID: 2, Request: req})
	require.NoError(t, err)

	got := snap.Result.Data()
	require.Len(t, got, 2)
	assert.Equal(t, bookA, got[0])
	assert.Equal(t, bookB.ID, got[1].ID)
	assert.True(t, req.Matches(got[1]))
}

func TestAddNetworkFailureClearsList(t *testing.T) {
	svc := newMemService(bookA)
	svc.addErr = apperr.Network("add book", errors.New("connection refused"))
	books, sess, router := setup(t, svc)
	ctx := context.Background()

	_, err := books.Do(ctx, sess, List{})
	require.NoError(t, err)

	snap, err := books.Do(ctx, sess, Add{Request: book.Request{Title: "C", Author: "X", URL: "https://u.test"}})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
	assert.True(t, apperr.IsKind(snap.Result.Err(), apperr.KindNetwork))
	assert.Nil(t, snap.Result.Data())
	assert.NotEqual(t, session.RouteList, router.last())
}

func TestStaleListAfterDeleteIsDropped(t *testing.T) {
	books, sess, _ := setup(t, newMemService(bookA, bookB))
	ctx := context.Background()

	listJob, err := books.List(sess)
	require.NoError(t, err)
	deleteJob, err := books.Delete(sess, 1)
	require.NoError(t, err)

	// The list response is produced before the delete but applied after it.
	listDone := listJob.Run(ctx)
	snap := books.Finish(deleteJob.Run(ctx))
	require.Equal(t, state.StatusSuccess, snap.Result.Status())
	require.Equal(t, []book.Book{bookB}, snap.Result.Data())

	snap = books.Finish(listDone)
	assert.Equal(t, state.StatusSuccess, snap.Result.Status())
	assert.Equal(t, []book.Book{bookB}, snap.Result.Data())
}

func TestMissingTokenIsPrecondition(t *testing.T) {
	svc := &mockService{}
	router := &recordingRouter{}
	sess := session.New(session.NewMemoryStore(""), router)
	books := New(&state.Store[book.Book]{}, svc, nil)

	job, err := books.List(sess)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuth))
	assert.Nil(t, job.Task)
	assert.Equal(t, session.RouteSignIn, router.last())
	assert.Equal(t, state.StatusIdle, books.Snapshot().Result.Status())
	svc.AssertNotCalled(t, "ListBooks", mock.Anything, mock.Anything)
}

func TestServerAuthRejectionSignsOut(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Return(nil, apperr.Auth("token expired", nil))

	books, sess, router := setup(t, svc)
	snap, err := books.Do(context.Background(), sess, List{})

	assert.ErrorIs(t, err, apperr.ErrAuth)
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
	assert.Equal(t, session.RouteSignIn, router.last())
	assert.False(t, sess.SignedIn())
}

func TestInvalidRequestFailsWithoutNetwork(t *testing.T) {
	svc := &mockService{}
	books, sess, _ := setup(t, svc)

	snap, err := books.Do(context.Background(), sess, Add{Request: book.Request{Title: " ", Author: "X", URL: "u"}})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
	fields := apperr.FieldsOf(snap.Result.Err())
	require.Len(t, fields, 2)
	assert.Equal(t, "title", fields[0].Field)
	assert.Equal(t, "url", fields[1].Field)
	svc.AssertNotCalled(t, "AddBook", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditUnknownIDWithoutSnapshotAsksService(t *testing.T) {
	books, sess, _ := setup(t, newMemService(bookA))

	snap, err := books.Do(context.Background(), sess, Edit{ID: 9, Request: book.Request{Title: "T", Author: "A", URL: "https://t.test"}})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
}

func TestUnclassifiedErrorsBecomeNetwork(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Return(nil, errors.New("socket closed"))

	books, sess, _ := setup(t, svc)
	_, err := books.Do(context.Background(), sess, List{})

	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Contains(t, err.Error(), "socket closed")
}

func TestPanickingServiceBecomesFailure(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Run(func(mock.Arguments) { panic("boom") })

	books, sess, _ := setup(t, svc)
	snap, err := books.Do(context.Background(), sess, List{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, state.StatusFailed, snap.Result.Status())
}

func TestEndSessionResetsStore(t *testing.T) {
	books, sess, router := setup(t, newMemService(bookA))
	ctx := context.Background()

	job, err := books.List(sess)
	require.NoError(t, err)
	require.NoError(t, books.EndSession(sess))

	snap := books.Finish(job.Run(ctx))
	assert.Equal(t, state.StatusIdle, snap.Result.Status())
	assert.False(t, sess.SignedIn())
	assert.Equal(t, session.RouteSignIn, router.last())
}

func TestAuthFailureFromEndedSessionKeepsNewToken(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Return(nil, apperr.Auth("token expired", nil))

	books, sess, router := setup(t, svc)
	job, err := books.List(sess)
	require.NoError(t, err)

	require.NoError(t, books.EndSession(sess))
	require.NoError(t, sess.SignIn("fresh"))
	routes := router.count()

	act := job.Run(context.Background())
	snap := books.Finish(act)

	assert.ErrorIs(t, act.(state.Failure).Err, apperr.ErrAuth)
	assert.Equal(t, state.StatusIdle, snap.Result.Status())
	tok, err := sess.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok)
	assert.Equal(t, routes, router.count())
}

func TestAuthFailureAfterTokenChangeKeepsNewToken(t *testing.T) {
	svc := &mockService{}
	svc.On("ListBooks", mock.Anything, "tok").Return(nil, apperr.Auth("token expired", nil))

	books, sess, router := setup(t, svc)
	job, err := books.List(sess)
	require.NoError(t, err)
	require.NoError(t, sess.SignIn("fresh"))

	books.Finish(job.Run(context.Background()))

	assert.True(t, sess.SignedIn())
	assert.Zero(t, router.count())
}

func TestMutationFromEndedSessionDoesNotNavigate(t *testing.T) {
	svc := newMemService(bookA)
	books, sess, router := setup(t, svc)
	job, err := books.Add(sess, book.Request{Title: "C", Author: "Cy", URL: "https://c.test"})
	require.NoError(t, err)

	require.NoError(t, books.EndSession(sess))
	require.NoError(t, sess.SignIn("fresh"))

	snap := books.Finish(job.Run(context.Background()))

	assert.Equal(t, state.StatusIdle, snap.Result.Status())
	assert.Equal(t, session.RouteSignIn, router.last())
	assert.Equal(t, 1, router.count())
}

func TestLookup(t *testing.T) {
	books, sess, _ := setup(t, newMemService(bookA, bookB))
	_, err := books.Do(context.Background(), sess, List{})
	require.NoError(t, err)

	b, ok := books.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, bookB, b)
	_, ok = books.Lookup(3)
	assert.False(t, ok)
}
