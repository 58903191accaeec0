package source

import (
	"context"
	"errors"
	"log"
	"time"
)

// Retrying wraps a Pager with a fixed number of extra attempts and a linear
// backoff. Context errors, unknown identities and bad cursors are final.
type Retrying struct {
	Pager
	attempts int
	backoff  time.Duration
}

func NewRetrying(p Pager, retries int, backoff time.Duration) *Retrying {
	return &Retrying{Pager: p, attempts: max(0, retries) + 1, backoff: backoff}
}

func (r *Retrying) Page(ctx context.Context, cursor string, limit int) (Page, error) {
	var page Page
	err := r.do(ctx, "page", func() error {
		var err error
		page, err = r.Pager.Page(ctx, cursor, limit)
		return err
	})
	return page, err
}

func (r *Retrying) Detail(ctx context.Context, id string) (string, error) {
	var body string
	err := r.do(ctx, "detail", func() error {
		var err error
		body, err = r.Pager.Detail(ctx, id)
		return err
	})
	return body, err
}

func (r *Retrying) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = fn(); err == nil || final(err) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		log.Printf("source: %s attempt %d/%d failed: %v", op, attempt, r.attempts, err)
		if serr := sleep(ctx, time.Duration(attempt)*r.backoff); serr != nil {
			return serr
		}
	}
	return err
}

func final(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBadCursor)
}
