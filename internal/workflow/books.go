// Package workflow runs the book intents against the book service and feeds
// their outcomes into the shared result store.
package workflow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
)

// BookService is the remote collection the workflows operate on.
type BookService interface {
	ListBooks(ctx context.Context, token string) ([]book.Book, error)
	AddBook(ctx context.Context, token string, req book.Request) (book.Book, error)
	EditBook(ctx context.Context, token string, id book.ID, req book.Request) (book.Book, error)
	DeleteBook(ctx context.Context, token string, id book.ID) error
}

// Job is a book workflow ready to run.
type Job = state.Job[book.Book]

// Snapshot is the book result as seen by readers.
type Snapshot = state.Snapshot[book.Book]

// Books binds the generic result store to book.Book and a BookService.
type Books struct {
	store *state.Store[book.Book]
	svc   BookService
	log   *zap.Logger
}

// New returns workflows writing into store. A nil logger discards output.
func New(store *state.Store[book.Book], svc BookService, log *zap.Logger) *Books {
	if log == nil {
		log = zap.NewNop()
	}
	return &Books{store: store, svc: svc, log: log}
}

// Store returns the store the workflows write to.
func (b *Books) Store() *state.Store[book.Book] { return b.store }

// Snapshot returns the current book result.
func (b *Books) Snapshot() Snapshot { return b.store.Snapshot() }

// Lookup finds id in the current snapshot.
func (b *Books) Lookup(id book.ID) (book.Book, bool) {
	return book.Find(b.store.Snapshot().Result.Data(), id)
}

func (b *Books) List(sess *session.Session) (Job, error) {
	return b.Dispatch(sess, List{})
}

func (b *Books) Add(sess *session.Session, req book.Request) (Job, error) {
	return b.Dispatch(sess, Add{Request: req})
}

func (b *Books) Edit(sess *session.Session, id book.ID, req book.Request) (Job, error) {
	return b.Dispatch(sess, Edit{ID: id, Request: req})
}

func (b *Books) Delete(sess *session.Session, id book.ID) (Job, error) {
	return b.Dispatch(sess, Delete{ID: id})
}

// Dispatch checks the session, marks the store Loading and returns the job
// for in. Without a usable token no job is created, the store is left alone
// and the session is sent to sign-in.
func (b *Books) Dispatch(sess *session.Session, in Intent) (Job, error) {
	token, err := sess.Token()
	if err != nil {
		b.log.Info("intent rejected", zap.String("op", in.Op().String()), zap.Error(err))
		sess.GoTo(session.RouteSignIn)
		return Job{}, err
	}

	known := b.store.Snapshot().Result
	req := b.store.Begin(in.Op())
	run := &run{
		books: b,
		sess:  sess,
		op:    req.Op,
		gen:   req.Gen,
		token: token,
		known: known,
		log:   b.log.With(zap.String("op", req.Op.String()), zap.Uint64("gen", req.Gen)),
	}
	return Job{Op: req.Op, Gen: req.Gen, Task: run.task(in)}, nil
}

// Finish applies a job's completion to the store.
func (b *Books) Finish(act state.Action) Snapshot {
	snap, changed := b.store.Settle(act)
	if changed {
		return snap
	}
	switch a := act.(type) {
	case state.Succeeded[book.Book]:
		b.log.Debug("dropped stale completion", zap.String("op", a.Op.String()), zap.Uint64("gen", a.Gen))
	case state.Failure:
		b.log.Debug("dropped stale completion", zap.String("op", a.Op.String()), zap.Uint64("gen", a.Gen), zap.Error(a.Err))
	}
	return snap
}

// Do dispatches in and runs it to completion on the calling goroutine.
func (b *Books) Do(ctx context.Context, sess *session.Session, in Intent) (Snapshot, error) {
	job, err := b.Dispatch(sess, in)
	if err != nil {
		return b.store.Snapshot(), err
	}
	act := job.Run(ctx)
	snap := b.Finish(act)
	if f, ok := act.(state.Failure); ok {
		return snap, f.Err
	}
	return snap, nil
}

// EndSession forgets the token, invalidates outstanding jobs and returns the
// store to Idle.
func (b *Books) EndSession(sess *session.Session) error {
	err := sess.SignOut()
	b.store.Reset()
	sess.GoTo(session.RouteSignIn)
	b.log.Info("session ended")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// run holds what one job needs once it leaves the dispatching goroutine.
type run struct {
	books *Books
	sess  *session.Session
	op    state.Op
	gen   uint64
	token string
	known state.Result[book.Book]
	log   *zap.Logger
}

func (r *run) task(in Intent) state.Task[book.Book] {
	return func(ctx context.Context) (books []book.Book, err error) {
		start := time.Now()
		r.log.Debug("workflow started")
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("workflow panicked", zap.Any("panic", rec))
				panic(rec)
			}
			fields := []zap.Field{zap.Duration("duration", time.Since(start))}
			if err != nil {
				r.log.Warn("workflow failed", append(fields, zap.String("kind", apperr.KindOf(err).String()), zap.Error(err))...)
				return
			}
			r.log.Info("workflow finished", append(fields, zap.Int("books", len(books)))...)
		}()

		books, err = r.execute(ctx, in)
		if err != nil {
			return nil, r.classify(in, err)
		}
		if dups := book.Duplicates(books); len(dups) > 0 {
			r.log.Warn("duplicate book ids in list", zap.Any("ids", dups))
		}
		return books, nil
	}
}

func (r *run) execute(ctx context.Context, in Intent) ([]book.Book, error) {
	svc := r.books.svc
	switch in := in.(type) {
	case List:
		return svc.ListBooks(ctx, r.token)

	case Add:
		if err := in.Request.Validate(); err != nil {
			return nil, err
		}
		if _, err := svc.AddBook(ctx, r.token, in.Request.Normalize()); err != nil {
			return nil, err
		}
		return r.refetch(ctx)

	case Edit:
		if err := in.Request.Validate(); err != nil {
			return nil, err
		}
		if err := r.mustKnow(in.ID); err != nil {
			return nil, err
		}
		if _, err := svc.EditBook(ctx, r.token, in.ID, in.Request.Normalize()); err != nil {
			return nil, err
		}
		return r.refetch(ctx)

	case Delete:
		if err := r.mustKnow(in.ID); err != nil {
			return nil, err
		}
		if err := svc.DeleteBook(ctx, r.token, in.ID); err != nil {
			return nil, err
		}
		return r.refetch(ctx)
	}
	return nil, fmt.Errorf("unsupported intent %T", in)
}

// refetch reloads the full list after a successful mutation and returns the
// user to the list.
func (r *run) refetch(ctx context.Context) ([]book.Book, error) {
	books, err := r.books.svc.ListBooks(ctx, r.token)
	if err != nil {
		return nil, err
	}
	if r.current() {
		r.sess.GoTo(session.RouteList)
	}
	return books, nil
}

// current reports whether the job still speaks for the session: its
// generation has not been overtaken and the session still holds the token
// it was dispatched with. Only current jobs may sign out or navigate.
func (r *run) current() bool {
	if r.books.store.Stale(r.op, r.gen) {
		return false
	}
	tok, err := r.sess.Token()
	return err != nil || tok == r.token
}

// mustKnow rejects ids missing from the snapshot the intent was issued
// against. With no snapshot the service decides.
func (r *run) mustKnow(id book.ID) error {
	if !r.known.HasData() {
		return nil
	}
	if _, ok := book.Find(r.known.Data(), id); !ok {
		return apperr.NotFoundf("book %s not found", id)
	}
	return nil
}

// classify makes every failure an apperr kind and reacts to auth rejections.
func (r *run) classify(in Intent, err error) error {
	switch apperr.KindOf(err) {
	case apperr.KindUnknown:
		return apperr.Network(in.Op().String(), err)
	case apperr.KindAuth:
		if !r.current() {
			r.log.Debug("auth failure from superseded job ignored")
			return err
		}
		if clearErr := r.sess.SignOut(); clearErr != nil {
			r.log.Warn("clear token failed", zap.Error(clearErr))
		}
		r.sess.GoTo(session.RouteSignIn)
	}
	return err
}
