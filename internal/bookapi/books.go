package bookapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/five82/shelf/internal/apperr"
	"github.com/five82/shelf/internal/book"
)

// ListBooks retrieves every book owned by the token holder.
func (c *Client) ListBooks(ctx context.Context, token string) ([]book.Book, error) {
	var books []book.Book
	err := c.do(ctx, call{
		op: "list books", method: http.MethodGet, path: "/v1/book",
		token: token, auth: true, dest: &books,
	})
	if err != nil {
		return nil, err
	}
	if books == nil {
		books = []book.Book{}
	}
	return books, nil
}

// AddBook creates a book and returns the stored record.
func (c *Client) AddBook(ctx context.Context, token string, req book.Request) (book.Book, error) {
	var created book.Book
	err := c.do(ctx, call{
		op: "add book", method: http.MethodPost, path: "/v1/book",
		token: token, auth: true, body: req.Normalize(), dest: &created,
	})
	return created, err
}

// EditBook replaces the editable fields of book id.
func (c *Client) EditBook(ctx context.Context, token string, id book.ID, req book.Request) (book.Book, error) {
	var updated book.Book
	err := c.do(ctx, call{
		op: "edit book", method: http.MethodPatch, path: "/v1/book/" + id.String(),
		token: token, auth: true, body: req.Normalize(), dest: &updated,
	})
	return updated, err
}

// DeleteBook removes book id.
func (c *Client) DeleteBook(ctx context.Context, token string, id book.ID) error {
	return c.do(ctx, call{
		op: "delete book", method: http.MethodDelete, path: "/v1/book/" + id.String(),
		token: token, auth: true,
	})
}

// SignIn exchanges credentials for a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", apperr.Validation("email and password are required")
	}
	var resp tokenResponse
	err := c.do(ctx, call{
		op: "sign in", method: http.MethodPost, path: "/v1/me",
		body: signInRequest{Email: email, Password: password}, dest: &resp,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return "", apperr.Auth("sign in returned no token", nil)
	}
	return resp.Token, nil
}

// SignOut invalidates token on the server.
func (c *Client) SignOut(ctx context.Context, token string) error {
	return c.do(ctx, call{
		op: "sign out", method: http.MethodDelete, path: "/v1/me",
		token: token, auth: true,
	})
}
