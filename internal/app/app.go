package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/bookapi"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/logging"
	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/ui"
	"github.com/five82/shelf/internal/workflow"
)

var (
	_ workflow.BookService = (*bookapi.Client)(nil)
	_ ui.Authenticator     = (*bookapi.Client)(nil)
)

// Options configure the shelf application.
type Options struct {
	ConfigPath   string
	PrefsPath    string // empty uses default ~/.config/shelf/prefs.toml
	RefreshEvery int    // seconds; zero uses the config value
}

// env holds the collaborators shared by the TUI and the subcommands.
type env struct {
	cfg     config.Config
	log     *zap.Logger
	client  *bookapi.Client
	session *session.Session
	books   *workflow.Books
}

func setup(opts Options, router session.Router) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	client, err := bookapi.NewClient(bookapi.Options{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.RequestTimeout,
		Proxy:      cfg.Proxy,
		RateLimit:  cfg.RateLimit,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger.Named("api"),
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	var tokens session.TokenStore = session.FileStore{Path: cfg.TokenFile}
	if strings.TrimSpace(cfg.Token) != "" {
		tokens = session.NewMemoryStore(cfg.Token)
	}

	return &env{
		cfg:     cfg,
		log:     logger,
		client:  client,
		session: session.New(tokens, router),
		books:   workflow.New(&state.Store[book.Book]{}, client, logger.Named("workflow")),
	}, nil
}

func (e *env) close() {
	_ = e.log.Sync()
}

func (e *env) refreshInterval(opts Options) time.Duration {
	if opts.RefreshEvery > 0 {
		return time.Duration(opts.RefreshEvery) * time.Second
	}
	return e.cfg.RefreshInterval
}

// Run boots the shelf TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	router := ui.NewRouter()
	e, err := setup(opts, router)
	if err != nil {
		return err
	}
	defer e.close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		e.log.Warn("load prefs", zap.Error(err))
	}

	e.log.Info("starting", zap.String("api", e.cfg.APIURL), zap.Bool("signed_in", e.session.SignedIn()))

	StartRefresher(ctx, e.books, e.session, e.refreshInterval(opts), e.log.Named("refresher"))

	return ui.Run(ui.Options{
		Context:   ctx,
		Books:     e.books,
		Session:   e.session,
		Router:    router,
		Auth:      e.client,
		Logger:    e.log.Named("ui"),
		LogPath:   e.cfg.LogFile,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
}
