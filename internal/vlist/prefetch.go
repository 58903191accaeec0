package vlist

import "time"

// prefetchTrigger asks the DataSource for the next page once the rendered
// window nears the tail. At most one request is outstanding: the in-flight
// flag is cleared when the item count grows or the source settles a fetch.
type prefetchTrigger struct {
	threshold int
	delay     time.Duration
	source    DataSource

	inFlight    bool
	debounce    Handle
	lastVisible int
	count       int
}

func (p *prefetchTrigger) wants() bool {
	if p.source == nil {
		return false
	}
	return p.lastVisible >= p.count-p.threshold && p.source.HasNextPage()
}

// check records the latest window and starts a debounced request when the
// tail is close. fire runs the request and is supplied by the List so it
// can guard liveness and notify observers.
func (p *prefetchTrigger) check(lastVisible, count int, sched Scheduler, fire func()) {
	p.lastVisible, p.count = lastVisible, count
	if p.inFlight || p.debounce != nil || !p.wants() {
		return
	}
	if p.delay <= 0 || sched == nil {
		fire()
		return
	}
	p.debounce = sched.AfterFunc(p.delay, func(time.Time) {
		p.debounce = nil
		if p.inFlight || !p.wants() {
			return
		}
		fire()
	})
}

func (p *prefetchTrigger) cancel() {
	if p.debounce != nil {
		p.debounce.Cancel()
		p.debounce = nil
	}
}

// settle allows the next qualifying render to request again.
func (p *prefetchTrigger) settle() {
	p.inFlight = false
}
