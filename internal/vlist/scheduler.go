package vlist

import (
	"time"

	pq "github.com/emirpasic/gods/queues/priorityqueue"
)

// Handle cancels a callback registered with a Scheduler. Cancelling twice,
// or after the callback ran, is a no-op.
type Handle interface {
	Cancel()
}

// Scheduler runs callbacks after a delay on the list's own thread. Frame
// callbacks are requested with a delay of one frame interval.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func(now time.Time)) Handle
}

type timer struct {
	due       time.Time
	seq       uint64
	fn        func(now time.Time)
	cancelled bool
}

func (t *timer) Cancel() {
	t.cancelled = true
	t.fn = nil
}

// Loop is a cooperative Scheduler. Nothing runs until the host calls
// Advance, so every callback executes on the host's goroutine.
type Loop struct {
	clock func() time.Time
	queue *pq.Queue
	seq   uint64
}

// NewLoop returns a Loop that stamps new timers with clock. A nil clock
// means time.Now.
func NewLoop(clock func() time.Time) *Loop {
	if clock == nil {
		clock = time.Now
	}
	return &Loop{
		clock: clock,
		queue: pq.NewWith(func(a, b interface{}) int {
			ta, tb := a.(*timer), b.(*timer)
			switch {
			case ta.due.Before(tb.due):
				return -1
			case ta.due.After(tb.due):
				return 1
			case ta.seq < tb.seq:
				return -1
			case ta.seq > tb.seq:
				return 1
			default:
				return 0
			}
		}),
	}
}

// AfterFunc implements Scheduler. Non-positive delays are bumped to one
// nanosecond so a callback that reschedules itself cannot spin inside a
// single Advance.
func (l *Loop) AfterFunc(d time.Duration, fn func(now time.Time)) Handle {
	if d <= 0 {
		d = time.Nanosecond
	}
	l.seq++
	t := &timer{due: l.clock().Add(d), seq: l.seq, fn: fn}
	l.queue.Enqueue(t)
	return t
}

// Advance runs every live timer due at or before now, in due order, and
// returns how many ran.
func (l *Loop) Advance(now time.Time) int {
	ran := 0
	for {
		v, ok := l.queue.Peek()
		if !ok {
			return ran
		}
		t := v.(*timer)
		if t.due.After(now) {
			return ran
		}
		l.queue.Dequeue()
		if t.cancelled || t.fn == nil {
			continue
		}
		fn := t.fn
		t.fn = nil
		fn(now)
		ran++
	}
}

// Next reports when the earliest live timer is due.
func (l *Loop) Next() (time.Time, bool) {
	for {
		v, ok := l.queue.Peek()
		if !ok {
			return time.Time{}, false
		}
		t := v.(*timer)
		if t.cancelled || t.fn == nil {
			l.queue.Dequeue()
			continue
		}
		return t.due, true
	}
}

// Pending reports whether any live timer is queued.
func (l *Loop) Pending() bool {
	_, ok := l.Next()
	return ok
}
