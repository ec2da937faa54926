package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/workflow"
)

type fakeService struct {
	mu      sync.Mutex
	books   []book.Book
	nextID  book.ID
	listErr error
}

func newFakeService(books ...book.Book) *fakeService {
	s := &fakeService{nextID: 1}
	for _, b := range books {
		s.books = append(s.books, b)
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
	}
	return s
}

func (s *fakeService) ListBooks(ctx context.Context, token string) ([]book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]book.Book, len(s.books))
	copy(out, s.books)
	return out, nil
}

func (s *fakeService) AddBook(ctx context.Context, token string, req book.Request) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := book.Book{ID: s.nextID, Title: req.Title, Author: req.Author, URL: req.URL}
	s.nextID++
	s.books = append(s.books, b)
	return b, nil
}

func (s *fakeService) EditBook(ctx context.Context, token string, id book.ID, req book.Request) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := book.IndexOf(s.books, id)
	if i < 0 {
		return book.Book{}, apperr.NotFoundf("book %s not found", id)
	}
	s.books[i].Title, s.books[i].Author, s.books[i].URL = req.Title, req.Author, req.URL
	return s.books[i], nil
}

func (s *fakeService) DeleteBook(ctx context.Context, token string, id book.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := book.IndexOf(s.books, id)
	if i < 0 {
		return apperr.NotFoundf("book %s not found", id)
	}
	s.books = append(s.books[:i], s.books[i+1:]...)
	return nil
}

type fakeAuth struct {
	token   string
	err     error
	email   string
	revoked []string
}

func (a *fakeAuth) SignIn(ctx context.Context, email, password string) (string, error) {
	a.email = email
	return a.token, a.err
}

func (a *fakeAuth) SignOut(ctx context.Context, token string) error {
	a.revoked = append(a.revoked, token)
	return nil
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleBooks() []book.Book {
	return []book.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", URL: "https://books.test/dune"},
		{ID: 2, Title: "Hyperion", Author: "Dan Simmons", URL: "https://books.test/hyperion"},
	}
}

type testEnv struct {
	model  Model
	router *Router
	sess   *session.Session
	books  *workflow.Books
	auth   *fakeAuth
}

func newTestEnv(t *testing.T, svc workflow.BookService, token string) *testEnv {
	t.Helper()
	router := NewRouter()
	sess := session.New(session.NewMemoryStore(token), router)
	books := workflow.New(&state.Store[book.Book]{}, svc, nil)
	auth := &fakeAuth{token: "fresh-token"}

	m := New(Options{
		Books:     books,
		Session:   sess,
		Router:    router,
		Auth:      auth,
		PrefsPath: "",
	})
	m = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return &testEnv{model: m, router: router, sess: sess, books: books, auth: auth}
}

// step feeds msg to m and discards the returned command.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

// finishJob runs a job command and applies its completion.
func finishJob(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a job command, got nil")
	}
	msg := cmd()
	done, ok := msg.(jobDoneMsg)
	if !ok {
		t.Fatalf("command produced %T, want jobDoneMsg", msg)
	}
	return step(t, m, done)
}

// drainRoutes applies queued router requests and returns the last command
// one of them produced.
func drainRoutes(m Model, r *Router) (Model, tea.Cmd) {
	var last tea.Cmd
	for {
		select {
		case n := <-r.ch:
			if cmd := m.navigate(n); cmd != nil {
				last = cmd
			}
		default:
			return m, last
		}
	}
}

// start runs Init's routing and the first list fetch.
func (e *testEnv) start(t *testing.T) Model {
	t.Helper()
	e.model.Init()
	m, cmd := drainRoutes(e.model, e.router)
	if cmd != nil {
		m = finishJob(t, m, cmd)
	}
	m, _ = drainRoutes(m, e.router)
	e.model = m
	return m
}

func TestStartupSignedInLoadsList(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)

	if m.currentView != ViewList {
		t.Fatalf("currentView = %v, want ViewList", m.currentView)
	}
	res := m.snapshot.Result
	if res.Status() != state.StatusSuccess || res.Len() != 2 {
		t.Fatalf("result = %v with %d books, want success with 2", res.Status(), res.Len())
	}
}

func TestStartupSignedOutShowsSignIn(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "")
	m := env.start(t)

	if m.currentView != ViewSignIn {
		t.Fatalf("currentView = %v, want ViewSignIn", m.currentView)
	}
	if got := env.books.Snapshot().Result.Status(); got != state.StatusIdle {
		t.Fatalf("store status = %v, want idle", got)
	}
}

func TestSignInLoadsList(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "")
	m := env.start(t)

	m = step(t, m, keyRunes("reader@books.test"))
	m = step(t, m, keyEnter) // moves to password
	if m.signIn.focusIdx != 1 {
		t.Fatalf("focusIdx = %d, want 1", m.signIn.focusIdx)
	}
	m = step(t, m, keyRunes("secret"))

	m, cmd := stepCmd(t, m, keyEnter)
	if cmd == nil {
		t.Fatal("submit returned no command")
	}
	m, cmd = stepCmd(t, m, cmd())
	m = finishJob(t, m, cmd)

	if env.auth.email != "reader@books.test" {
		t.Fatalf("auth email = %q", env.auth.email)
	}
	if tok, err := env.sess.Token(); err != nil || tok != "fresh-token" {
		t.Fatalf("session token = %q, %v", tok, err)
	}
	if m.currentView != ViewList || m.snapshot.Result.Len() != 2 {
		t.Fatalf("view = %v, books = %d; want list with 2", m.currentView, m.snapshot.Result.Len())
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	env := newTestEnv(t, newFakeService(), "")
	m := env.start(t)

	m = step(t, m, keyTab)
	m, cmd := stepCmd(t, m, keyEnter)
	if cmd != nil {
		t.Fatal("empty credentials should not call the API")
	}
	if !errors.Is(m.signIn.err, errMissingCredentials) {
		t.Fatalf("signIn.err = %v", m.signIn.err)
	}
}

func TestListNavigationAndDetail(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)

	m = step(t, m, keyRunes("j"))
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow = %d, want 1", m.selectedRow)
	}
	m = step(t, m, keyRunes("j"))
	if m.selectedRow != 1 {
		t.Fatalf("selectedRow past end = %d, want 1", m.selectedRow)
	}
	m = step(t, m, keyRunes("g"))
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow after g = %d, want 0", m.selectedRow)
	}
	m = step(t, m, keyRunes("G"))

	m = step(t, m, keyEnter)
	if m.currentView != ViewDetail || m.detailID != 2 {
		t.Fatalf("view = %v id = %v, want detail of 2", m.currentView, m.detailID)
	}
	if view := m.View(); !strings.Contains(view, "Hyperion") {
		t.Fatalf("detail view missing title:\n%s", view)
	}

	m = step(t, m, keyEsc)
	if m.currentView != ViewList {
		t.Fatalf("esc from detail = %v, want list", m.currentView)
	}
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	svc := newFakeService(sampleBooks()...)
	env := newTestEnv(t, svc, "token")
	m := env.start(t)
	m.prefs.ConfirmDelete = true

	m = step(t, m, keyRunes("d"))
	if m.modal == nil {
		t.Fatal("delete did not open the confirmation modal")
	}

	m, cmd := stepCmd(t, m, keyRunes("y"))
	if m.modal != nil || cmd == nil {
		t.Fatal("confirming should close the modal and emit a command")
	}
	m, cmd = stepCmd(t, m, cmd())
	m = finishJob(t, m, cmd)
	m, _ = drainRoutes(m, env.router)

	data := m.snapshot.Result.Data()
	if len(data) != 1 || data[0].ID != 2 {
		t.Fatalf("books after delete = %+v, want only #2", data)
	}
	if m.notice != "Book deleted" || m.noticeIsErr {
		t.Fatalf("notice = %q (err=%v)", m.notice, m.noticeIsErr)
	}
}

func TestDeleteDeclined(t *testing.T) {
	svc := newFakeService(sampleBooks()...)
	env := newTestEnv(t, svc, "token")
	m := env.start(t)
	m.prefs.ConfirmDelete = true

	m = step(t, m, keyRunes("d"))
	m, cmd := stepCmd(t, m, keyRunes("n"))
	if m.modal != nil || cmd != nil {
		t.Fatal("declining should close the modal without a command")
	}
	if m.snapshot.Result.Len() != 2 {
		t.Fatalf("books = %d, want 2", m.snapshot.Result.Len())
	}
}

func TestDeleteWithoutConfirmation(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)
	m.prefs.ConfirmDelete = false

	m, cmd := stepCmd(t, m, keyRunes("d"))
	if m.modal != nil {
		t.Fatal("modal opened with confirmations disabled")
	}
	m = finishJob(t, m, cmd)
	if m.snapshot.Result.Len() != 1 {
		t.Fatalf("books = %d, want 1", m.snapshot.Result.Len())
	}
}

func TestAddFormValidatesBeforeDispatch(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)
	before := env.books.Snapshot()

	m = step(t, m, keyRunes("a"))
	if m.currentView != ViewForm || m.form.kind != formAdd {
		t.Fatalf("view = %v, want add form", m.currentView)
	}

	m, cmd := stepCmd(t, m, keyEnter)
	if cmd != nil {
		t.Fatal("invalid form dispatched a job")
	}
	for _, field := range []string{"title", "author", "url"} {
		if m.form.fieldErrs[field] == "" {
			t.Fatalf("missing error for %s: %v", field, m.form.fieldErrs)
		}
	}
	after := env.books.Snapshot()
	if after.Pending || after.Gen != before.Gen || after.Result.Status() != state.StatusSuccess {
		t.Fatalf("store touched by invalid form: %+v", after)
	}
}

func TestAddBook(t *testing.T) {
	svc := newFakeService(sampleBooks()...)
	env := newTestEnv(t, svc, "token")
	m := env.start(t)

	m = step(t, m, keyRunes("a"))
	m = step(t, m, keyRunes("Solaris"))
	m = step(t, m, keyTab)
	m = step(t, m, keyRunes("Stanislaw Lem"))
	m = step(t, m, keyTab)
	m = step(t, m, keyRunes("https://books.test/solaris"))

	m, cmd := stepCmd(t, m, keyEnter)
	if !m.form.submitting {
		t.Fatal("form not marked as submitting")
	}
	m = finishJob(t, m, cmd)
	m, _ = drainRoutes(m, env.router)

	if m.currentView != ViewList {
		t.Fatalf("view after add = %v, want list", m.currentView)
	}
	data := m.snapshot.Result.Data()
	if len(data) != 3 || data[2].Title != "Solaris" || data[2].Author != "Stanislaw Lem" {
		t.Fatalf("books after add = %+v", data)
	}
}

func TestEditPrefillsForm(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)

	m = step(t, m, keyRunes("e"))
	if m.currentView != ViewForm || m.form.kind != formEdit || m.form.id != 1 {
		t.Fatalf("view = %v kind = %v id = %v", m.currentView, m.form.kind, m.form.id)
	}
	want := book.FromBook(sampleBooks()[0])
	if got := m.form.request(); got != want {
		t.Fatalf("form request = %+v, want %+v", got, want)
	}

	m = step(t, m, keyRunes(" (1965)"))
	m, cmd := stepCmd(t, m, keyEnter)
	m = finishJob(t, m, cmd)

	b, ok := book.Find(m.snapshot.Result.Data(), 1)
	if !ok || b.Title != "Dune (1965)" {
		t.Fatalf("edited book = %+v, %v", b, ok)
	}
}

func TestDetailRouteWithoutDataFetchesList(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.model

	cmd := m.navigate(navigation{route: session.DetailRoute(2)})
	if m.currentView != ViewDetail {
		t.Fatalf("view = %v, want detail", m.currentView)
	}
	m = finishJob(t, m, cmd)

	if _, ok := book.Find(m.snapshot.Result.Data(), 2); !ok {
		t.Fatal("book 2 not loaded")
	}
	if cmd := m.navigate(navigation{route: session.DetailRoute(9)}); cmd != nil {
		t.Fatal("missing book with loaded data should not refetch")
	}
}

func TestAuthFailureReturnsToSignIn(t *testing.T) {
	svc := newFakeService(sampleBooks()...)
	svc.listErr = apperr.Auth("token rejected", nil)
	env := newTestEnv(t, svc, "token")
	m := env.start(t)

	if m.currentView != ViewSignIn {
		t.Fatalf("view = %v, want sign in", m.currentView)
	}
	if env.sess.SignedIn() {
		t.Fatal("session still signed in after auth failure")
	}
}

func TestFailedListShowsRetryHint(t *testing.T) {
	svc := newFakeService(sampleBooks()...)
	svc.listErr = errors.New("connection refused")
	env := newTestEnv(t, svc, "token")
	m := env.start(t)

	if got := m.snapshot.Result.Status(); got != state.StatusFailed {
		t.Fatalf("status = %v, want failed", got)
	}
	if !apperr.IsKind(m.snapshot.Result.Err(), apperr.KindNetwork) {
		t.Fatalf("err = %v, want network", m.snapshot.Result.Err())
	}
	view := m.View()
	if !strings.Contains(view, "Press r to retry") {
		t.Fatalf("failed view missing retry hint:\n%s", view)
	}

	svc.mu.Lock()
	svc.listErr = nil
	svc.mu.Unlock()
	m, cmd := stepCmd(t, m, keyRunes("r"))
	m = finishJob(t, m, cmd)
	if m.snapshot.Result.Status() != state.StatusSuccess {
		t.Fatalf("status after retry = %v", m.snapshot.Result.Status())
	}
}

func TestEmptyListHint(t *testing.T) {
	env := newTestEnv(t, newFakeService(), "token")
	m := env.start(t)

	if view := m.View(); !strings.Contains(view, "No books yet") {
		t.Fatalf("empty list view missing hint:\n%s", view)
	}
}

func TestSignOutEndsSession(t *testing.T) {
	env := newTestEnv(t, newFakeService(sampleBooks()...), "token")
	m := env.start(t)

	m, cmd := stepCmd(t, m, keyRunes("L"))
	if cmd == nil {
		t.Fatal("sign out returned no command")
	}
	m = step(t, m, cmd())
	m, _ = drainRoutes(m, env.router)

	if m.currentView != ViewSignIn {
		t.Fatalf("view = %v, want sign in", m.currentView)
	}
	if len(env.auth.revoked) != 1 || env.auth.revoked[0] != "token" {
		t.Fatalf("revoked = %v", env.auth.revoked)
	}
	if got := env.books.Snapshot().Result.Status(); got != state.StatusIdle {
		t.Fatalf("store status = %v, want idle", got)
	}
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	env := newTestEnv(t, newFakeService(), "token")
	m := env.start(t)
	m.prefsPath = t.TempDir() + "/prefs.toml"
	m.prefs.ConfirmDelete = false

	m = step(t, m, keyRunes("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}

	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("load prefs: %v", err)
	}
	if saved.Theme != "Kanagawa" || saved.ConfirmDelete {
		t.Fatalf("saved prefs = %+v", saved)
	}
}

func TestHelpOverlay(t *testing.T) {
	env := newTestEnv(t, newFakeService(), "token")
	m := env.start(t)

	m = step(t, m, keyRunes("?"))
	if !m.showHelp {
		t.Fatal("help not shown")
	}
	if view := m.View(); !strings.Contains(view, "Keyboard Shortcuts") {
		t.Fatalf("help view:\n%s", view)
	}
	m = step(t, m, keyRunes("x"))
	if m.showHelp {
		t.Fatal("any key should close help")
	}
}

func TestQuitKey(t *testing.T) {
	env := newTestEnv(t, newFakeService(), "token")
	m := env.start(t)

	_, cmd := stepCmd(t, m, keyRunes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}
