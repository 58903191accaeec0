// Package source provides the paged item feeds the browser renders: a
// markdown vault on disk and a synthetic feed for demos and load testing.
package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	// ErrNotFound is returned by Detail for an identity the source does not
	// know.
	ErrNotFound = errors.New("item not found")
	// ErrBadCursor is returned by Page for a cursor it did not issue.
	ErrBadCursor = errors.New("invalid page cursor")
)

// Item is one entry of a feed. ID is stable across reloads and is what the
// list engine keys its per-row state on.
type Item struct {
	ID      string
	Title   string
	Summary string
	Tags    []string
	Updated time.Time
}

// Page is one slice of a feed. Next is empty on the last page.
type Page struct {
	Items []Item
	Next  string
}

// Pager fetches a feed page by page. An empty cursor starts from the top
// and takes a fresh snapshot of the underlying data.
type Pager interface {
	Page(ctx context.Context, cursor string, limit int) (Page, error)
	Detail(ctx context.Context, id string) (string, error)
}

func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(cursor)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadCursor, cursor)
	}
	return n, nil
}

// slicePage cuts [offset, offset+limit) out of items and builds the cursor
// for the next page.
func slicePage(items []Item, offset, limit int) Page {
	if limit <= 0 {
		limit = len(items)
	}
	if offset >= len(items) {
		return Page{}
	}
	end := min(offset+limit, len(items))
	page := Page{Items: append([]Item(nil), items[offset:end]...)}
	if end < len(items) {
		page.Next = strconv.Itoa(end)
	}
	return page
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
