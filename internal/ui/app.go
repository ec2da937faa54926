package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/logtail"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/workflow"
)

// View represents the current active view.
type View int

const (
	ViewSignIn View = iota
	ViewList
	ViewDetail
	ViewForm
	ViewLogs
)

const historyLimit = 32

// Authenticator exchanges credentials for a token and revokes it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (string, error)
	SignOut(ctx context.Context, token string) error
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Books     *workflow.Books
	Session   *session.Session
	Router    *Router
	Auth      Authenticator
	Logger    *zap.Logger
	LogPath   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	books     *workflow.Books
	sess      *session.Session
	router    *Router
	auth      Authenticator
	log       *zap.Logger
	logPath   string
	pollTick  time.Duration
	prefs     prefs.Prefs
	prefsPath string
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	spinner     spinner.Model

	// Navigation
	route   session.Route
	history []session.Route

	// Data state
	snapshot    workflow.Snapshot
	lastUpdated time.Time

	// List and detail state
	selectedRow int
	detailID    book.ID

	// Forms
	form   formState
	signIn signInState

	// Log state
	logViewport viewport.Model
	logEntries  []logtail.Entry
	logErr      error

	// Overlays
	showHelp bool
	modal    Modal

	// Last error or status line shown under the header
	notice      string
	noticeIsErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := opts.Router
	if router == nil {
		router = NewRouter()
	}

	userPrefs := opts.Prefs
	if strings.TrimSpace(userPrefs.Theme) == "" {
		userPrefs = prefs.Default()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:       ctx,
		books:     opts.Books,
		sess:      opts.Session,
		router:    router,
		auth:      opts.Auth,
		log:       log,
		logPath:   opts.LogPath,
		pollTick:  pollTick,
		prefs:     userPrefs,
		prefsPath: opts.PrefsPath,
		keys:      DefaultKeyMap(),
		theme:     GetTheme(userPrefs.Theme),
		spinner:   sp,
		signIn:    newSignInState(),
	}
	if m.books != nil {
		m.snapshot = m.books.Snapshot()
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
		m.spinner.Tick,
		m.router.waitCmd(m.ctx),
	}
	if m.books != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.books))
	}
	// The first route decides whether the initial list fetch happens.
	if m.sess != nil && m.sess.SignedIn() {
		m.router.GoTo(session.RouteList)
	} else {
		m.router.GoTo(session.RouteSignIn)
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.resizeLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.applySnapshot(workflow.Snapshot(msg))
		return m, nil

	case jobDoneMsg:
		return m.handleJobDone(msg)

	case routeMsg:
		cmd := m.navigate(navigation(msg))
		return m, tea.Batch(cmd, m.router.waitCmd(m.ctx))

	case signInDoneMsg:
		return m.handleSignInDone(msg)

	case confirmDeleteMsg:
		return m, m.dispatch(workflow.Delete{ID: msg.id})

	case signOutDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setNotice("Signed out")
		}
		m.snapshot = m.books.Snapshot()
		return m, nil

	case logBatchMsg:
		m.handleLogBatch(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, closed := m.modal.Update(msg, m.keys)
		if closed {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	// Text entry views own every key except quit and cancel.
	switch m.currentView {
	case ViewSignIn:
		return m.handleSignInKey(msg)
	case ViewForm:
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil

	case key.Matches(msg, m.keys.SignOut):
		return m, m.signOut()

	case key.Matches(msg, m.keys.Logs):
		return m, m.navigate(navigation{route: viewLogsRoute})

	case key.Matches(msg, m.keys.Escape):
		if m.currentView == ViewList {
			return m, nil
		}
		return m, m.navigate(navigation{back: true})

	case key.Matches(msg, m.keys.Refresh):
		return m, m.dispatch(workflow.List{})

	case key.Matches(msg, m.keys.Add):
		return m, m.navigate(navigation{route: session.RouteAdd})
	}

	switch m.currentView {
	case ViewList:
		return m.handleListKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}

	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	// The background refresher writes to the store outside the program.
	if m.books != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.books))
	}

	if m.currentView == ViewLogs {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.pollTick))

	return m, tea.Batch(cmds...)
}

// dispatch starts the workflow for in. A rejected precondition leaves the
// store untouched; the workflow has already asked the router for sign-in.
func (m *Model) dispatch(in workflow.Intent) tea.Cmd {
	if m.books == nil || m.sess == nil {
		return nil
	}
	job, err := m.books.Dispatch(m.sess, in)
	if err != nil {
		m.setError(err)
		return nil
	}
	m.snapshot = m.books.Snapshot()
	return runJobCmd(m.ctx, job)
}

func (m Model) handleJobDone(msg jobDoneMsg) (tea.Model, tea.Cmd) {
	snap := m.books.Finish(msg.action)
	m.applySnapshot(snap)

	switch act := msg.action.(type) {
	case state.Failure:
		if snap.Gen != act.Gen {
			return m, nil
		}
		if m.currentView == ViewForm && m.form.absorb(act.Err) {
			return m, nil
		}
		m.setError(act.Err)

	case state.Succeeded[book.Book]:
		if snap.Gen != act.Gen {
			return m, nil
		}
		switch act.Op {
		case state.OpAdd:
			m.setNotice("Book added")
		case state.OpEdit:
			m.setNotice("Book updated")
		case state.OpDelete:
			m.setNotice("Book deleted")
		default:
			if m.noticeIsErr {
				m.setNotice("")
			}
		}
	}
	return m, nil
}

func (m *Model) applySnapshot(snap workflow.Snapshot) {
	if snap.UpdatedAt.After(m.lastUpdated) {
		m.lastUpdated = snap.UpdatedAt
	}
	m.snapshot = snap
	if n := snap.Result.Len(); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

// navigate applies one router request.
func (m *Model) navigate(n navigation) tea.Cmd {
	if n.back {
		if len(m.history) == 0 {
			return m.show(session.RouteList)
		}
		prev := m.history[len(m.history)-1]
		m.history = m.history[:len(m.history)-1]
		return m.show(prev)
	}
	if m.route != "" && m.route != n.route && m.route != session.RouteSignIn {
		m.history = append(m.history, m.route)
		if len(m.history) > historyLimit {
			m.history = m.history[len(m.history)-historyLimit:]
		}
	}
	return m.show(n.route)
}

// show switches to the view for r.
func (m *Model) show(r session.Route) tea.Cmd {
	if r == viewLogsRoute {
		m.route = r
		m.currentView = ViewLogs
		return m.refreshLogs()
	}

	page, id, ok := session.ParseRoute(r)
	if !ok {
		r, page = session.RouteList, session.PageList
	}
	m.route = r

	switch page {
	case session.PageSignIn:
		m.history = nil
		m.currentView = ViewSignIn
		m.signIn = newSignInState()
		return nil

	case session.PageList:
		m.currentView = ViewList
		if m.snapshot.Result.Status() == state.StatusIdle {
			return m.dispatch(workflow.List{})
		}
		return nil

	case session.PageAdd:
		m.form = newFormState(formAdd, 0, book.Request{})
		m.currentView = ViewForm
		return nil

	case session.PageDetail:
		m.detailID = id
		m.currentView = ViewDetail
		return m.ensureLoaded(id)

	case session.PageEdit:
		b, found := book.Find(m.snapshot.Result.Data(), id)
		if !found {
			m.detailID = id
			m.currentView = ViewDetail
			return m.ensureLoaded(id)
		}
		m.form = newFormState(formEdit, id, book.FromBook(b))
		m.currentView = ViewForm
		return nil
	}
	return nil
}

// ensureLoaded fetches the list when id cannot be resolved because nothing
// has been loaded yet.
func (m *Model) ensureLoaded(id book.ID) tea.Cmd {
	res := m.snapshot.Result
	if _, found := book.Find(res.Data(), id); found || res.HasData() || res.IsLoading() {
		return nil
	}
	return m.dispatch(workflow.List{})
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.prefs.Theme = m.theme.Name
	if m.prefsPath != "" {
		if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
			m.log.Warn("save prefs failed", zap.Error(err))
		}
	}
}

func (m *Model) signOut() tea.Cmd {
	if m.books == nil || m.sess == nil {
		return nil
	}
	token, _ := m.sess.Token()
	books, sess, auth, ctx := m.books, m.sess, m.auth, m.ctx
	return func() tea.Msg {
		var revokeErr error
		if auth != nil && token != "" {
			revokeErr = auth.SignOut(ctx, token)
		}
		if err := books.EndSession(sess); err != nil {
			return signOutDoneMsg{err: err}
		}
		return signOutDoneMsg{err: revokeErr}
	}
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeIsErr = false
}

func (m *Model) setError(err error) {
	if err == nil {
		m.notice = ""
		return
	}
	m.notice = err.Error()
	m.noticeIsErr = true
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: name + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())

	return b.String()
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	height := m.contentHeight()
	switch m.currentView {
	case ViewSignIn:
		return m.renderSignIn(height)
	case ViewList:
		return m.renderList(height)
	case ViewDetail:
		return m.renderDetail(height)
	case ViewForm:
		return m.renderForm(height)
	case ViewLogs:
		return m.renderLogs(height)
	default:
		return ""
	}
}

func (m Model) contentHeight() int {
	return max(m.height-headerLines, 3)
}

func (m Model) centered(content string, height int) string {
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, content)
}

// Messages

type tickMsg time.Time

type snapshotMsg workflow.Snapshot

type jobDoneMsg struct {
	action state.Action
}

type routeMsg navigation

type signInDoneMsg struct {
	token string
	err   error
}

type signOutDoneMsg struct {
	err error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(books *workflow.Books) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(books.Snapshot())
	}
}

// runJobCmd runs a workflow job off the update loop.
func runJobCmd(ctx context.Context, job workflow.Job) tea.Cmd {
	return func() tea.Msg {
		return jobDoneMsg{action: job.Run(ctx)}
	}
}

// Run starts the Bubble Tea program. It returns nil when the context ends
// the program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
