package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/workflow"
)

// Commands lists the non-interactive subcommands in help order.
var Commands = []string{"login", "logout", "list", "show", "add", "edit", "delete"}

// ErrUsage is returned when a subcommand is invoked with bad arguments.
var ErrUsage = errors.New("usage")

// RunCommand executes one subcommand against the API and prints its result
// to stdout.
func RunCommand(ctx context.Context, opts Options, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command (one of %s)", ErrUsage, strings.Join(Commands, ", "))
	}

	e, err := setup(opts, session.Discard{})
	if err != nil {
		return err
	}
	defer e.close()

	c := &command{env: e, out: stdout}
	name, rest := args[0], args[1:]
	e.log.Debug("command", zap.String("name", name))

	switch name {
	case "login":
		err = c.login(ctx, rest)
	case "logout":
		err = c.logout(ctx)
	case "list":
		err = c.list(ctx)
	case "show":
		err = c.show(ctx, rest)
	case "add":
		err = c.add(ctx, rest)
	case "edit":
		err = c.edit(ctx, rest)
	case "delete":
		err = c.remove(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	if err != nil {
		e.log.Info("command failed", zap.String("name", name), zap.Error(err))
		return explain(err)
	}
	return nil
}

type command struct {
	*env
	out io.Writer
}

func (c *command) login(ctx context.Context, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	token, err := c.client.SignIn(ctx, *email, *password)
	if err != nil {
		return err
	}
	if err := c.session.SignIn(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Fprintln(c.out, "signed in")
	return nil
}

func (c *command) logout(ctx context.Context) error {
	if token, err := c.session.Token(); err == nil {
		if err := c.client.SignOut(ctx, token); err != nil {
			c.log.Warn("server sign out failed", zap.Error(err))
		}
	}
	if err := c.books.EndSession(c.session); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "signed out")
	return nil
}

func (c *command) list(ctx context.Context) error {
	books, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(c.out, "no books")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tURL")
	for _, b := range books {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, b.URL)
	}
	return w.Flush()
}

func (c *command) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: show ID", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	books, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	b, ok := book.Find(books, id)
	if !ok {
		return apperr.NotFoundf("book %s not found", id)
	}
	return c.printBook(b)
}

func (c *command) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	title := fs.String("title", "", "book title")
	author := fs.String("author", "", "book author")
	url := fs.String("url", "", "book URL")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	req := book.Request{Title: *title, Author: *author, URL: *url}.Normalize()
	snap, err := c.books.Do(ctx, c.session, workflow.Add{Request: req})
	if err != nil {
		return err
	}
	if b, ok := newest(snap.Result.Data(), req); ok {
		fmt.Fprintf(c.out, "added #%s\n", b.ID)
		return nil
	}
	fmt.Fprintln(c.out, "added")
	return nil
}

func (c *command) edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: edit ID [-title T] [-author A] [-url U]", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	fs := c.flags("edit")
	title := fs.String("title", "", "new title")
	author := fs.String("author", "", "new author")
	url := fs.String("url", "", "new URL")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	books, err := c.fetch(ctx)
	if err != nil {
		return err
	}
	current, ok := book.Find(books, id)
	if !ok {
		return apperr.NotFoundf("book %s not found", id)
	}

	req := book.FromBook(current)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = *title
		case "author":
			req.Author = *author
		case "url":
			req.URL = *url
		}
	})

	if _, err := c.books.Do(ctx, c.session, workflow.Edit{ID: id, Request: req}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "updated #%s\n", id)
	return nil
}

func (c *command) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete ID", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := c.fetch(ctx); err != nil {
		return err
	}
	if _, err := c.books.Do(ctx, c.session, workflow.Delete{ID: id}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "deleted #%s\n", id)
	return nil
}

func (c *command) fetch(ctx context.Context) ([]book.Book, error) {
	snap, err := c.books.Do(ctx, c.session, workflow.List{})
	if err != nil {
		return nil, err
	}
	return snap.Result.Data(), nil
}

func (c *command) printBook(b book.Book) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", b.ID)
	fmt.Fprintf(w, "Title\t%s\n", b.Title)
	fmt.Fprintf(w, "Author\t%s\n", b.Author)
	fmt.Fprintf(w, "URL\t%s\n", b.URL)
	if !b.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Added\t%s\n", b.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (c *command) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(raw string) (book.ID, error) {
	id, err := book.ParseID(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid book id %q", ErrUsage, raw)
	}
	return id, nil
}

// newest returns the highest-id book carrying exactly req's fields.
func newest(books []book.Book, req book.Request) (book.Book, bool) {
	var found book.Book
	ok := false
	for _, b := range books {
		if req.Matches(b) && (!ok || b.ID > found.ID) {
			found, ok = b, true
		}
	}
	return found, ok
}

// explain adds a hint for errors the user can act on.
func explain(err error) error {
	if apperr.IsKind(err, apperr.KindAuth) {
		return fmt.Errorf("%w; run `shelf login`", err)
	}
	return err
}
