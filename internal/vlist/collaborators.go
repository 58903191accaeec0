package vlist

// DataSource is the paging collaborator. LoadMore must not block; the
// source reports new items back through List.SetItems, or calls
// List.PageSettled when a fetch ends without new items.
type DataSource interface {
	HasNextPage() bool
	LoadMore()
}

// Reporter receives the rendered height of one row. loading is set while
// the row shows a placeholder for content that is still being fetched.
type Reporter func(height float64, loading bool)

// MeasurementBridge watches rendered rows and reports their real size.
// Observe is called for every row of every rendered window; implementations
// should treat repeated calls for the same index as a refresh.
type MeasurementBridge interface {
	Observe(row Row, report Reporter)
}

// Observer is notified of engine activity. Implementations must be cheap;
// they run inline on the list's thread.
type Observer interface {
	Flushed(applied, dropped int)
	Invalidated(from int)
	Prefetched()
	OverscanChanged(count int)
	PhaseChanged(phase Phase)
}

// NopObserver ignores every notification.
type NopObserver struct{}

func (NopObserver) Flushed(int, int) {}
func (NopObserver) Invalidated(int) {}
func (NopObserver) Prefetched() {}
func (NopObserver) OverscanChanged(int) {}
func (NopObserver) PhaseChanged(Phase) {}

// Progress describes the scroll position for collaborators that draw their
// own indicators.
type Progress struct {
	Offset   int
	Viewport int
	Total    int
	// Ratio is 0 at the top and 1 once the end of the content is visible.
	Ratio float64
	AtEnd bool
}
