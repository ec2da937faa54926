// Package book defines the entity shapes exchanged with the book API.
package book

import (
	"strconv"
	"strings"
	"time"
)

// ID is the server-assigned, immutable book identifier.
type ID int64

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a decimal identifier as it appears in routes and CLI args.
func ParseID(raw string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(n), nil
}

// Book is the read model returned by the API.
type Book struct {
	ID        ID        `json:"bookId"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

// Request is the write model used to create a book, or to update one when
// paired with an ID.
type Request struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	URL    string `json:"url" validate:"required,url"`
}

// FromBook returns the request that would recreate b's editable fields.
func FromBook(b Book) Request {
	return Request{Title: b.Title, Author: b.Author, URL: b.URL}
}

// Normalize returns r with surrounding whitespace removed from every field.
func (r Request) Normalize() Request {
	return Request{
		Title:  strings.TrimSpace(r.Title),
		Author: strings.TrimSpace(r.Author),
		URL:    strings.TrimSpace(r.URL),
	}
}

// Matches reports whether b carries exactly the fields of r.
func (r Request) Matches(b Book) bool {
	return r.Title == b.Title && r.Author == b.Author && r.URL == b.URL
}

// Find returns the book with the given id from a snapshot.
func Find(books []Book, id ID) (Book, bool) {
	if i := IndexOf(books, id); i >= 0 {
		return books[i], true
	}
	return Book{}, false
}

// IndexOf returns the position of id in books, or -1.
func IndexOf(books []Book, id ID) int {
	for i, b := range books {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Duplicates lists identifiers that occur more than once in a snapshot.
func Duplicates(books []Book) []ID {
	seen := make(map[ID]int, len(books))
	var dups []ID
	for _, b := range books {
		seen[b.ID]++
		if seen[b.ID] == 2 {
			dups = append(dups, b.ID)
		}
	}
	return dups
}
