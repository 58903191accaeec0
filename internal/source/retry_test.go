package source

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyPager struct {
	failures int
	err      error
	calls    int
}

func (f *flakyPager) Page(ctx context.Context, cursor string, limit int) (Page, error) {
	f.calls++
	if f.calls <= f.failures {
		return Page{}, f.err
	}
	return Page{Items: []Item{{ID: "a"}}}, nil
}

func (f *flakyPager) Detail(ctx context.Context, id string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", f.err
	}
	return "body", nil
}

func TestRetrying(t *testing.T) {
	transient := errors.New("connection reset")

	tests := []struct {
		name      string
		failures  int
		err       error
		retries   int
		wantErr   error
		wantCalls int
	}{
		{name: "succeeds first time", failures: 0, err: transient, retries: 2, wantCalls: 1},
		{name: "recovers", failures: 2, err: transient, retries: 2, wantCalls: 3},
		{name: "gives up", failures: 5, err: transient, retries: 2, wantErr: transient, wantCalls: 3},
		{name: "not found is final", failures: 5, err: ErrNotFound, retries: 2, wantErr: ErrNotFound, wantCalls: 1},
		{name: "no retries", failures: 1, err: transient, retries: 0, wantErr: transient, wantCalls: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &flakyPager{failures: tc.failures, err: tc.err}
			r := NewRetrying(p, tc.retries, time.Millisecond)

			_, err := r.Page(context.Background(), "", 10)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if p.calls != tc.wantCalls {
				t.Fatalf("expected %d calls, got %d", tc.wantCalls, p.calls)
			}
		})
	}
}

func TestRetryingDetailAndCancel(t *testing.T) {
	p := &flakyPager{failures: 1, err: errors.New("busy")}
	r := NewRetrying(p, 1, time.Millisecond)
	if body, err := r.Detail(context.Background(), "a"); err != nil || body != "body" {
		t.Fatalf("Detail = %q, %v", body, err)
	}

	p = &flakyPager{failures: 5, err: errors.New("busy")}
	r = NewRetrying(p, 3, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := r.Page(ctx, "", 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected the backoff to stop on cancellation, got %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("expected a single attempt before cancellation, got %d", p.calls)
	}
}
