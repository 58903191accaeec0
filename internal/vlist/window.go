package vlist

// Row is one rendered index and its absolute position.
type Row struct {
	Index  int
	Top    int
	Height int
}

// Window is the set of rows to render for one viewport position.
type Window struct {
	// First and Last are inclusive bounds, including overscan. Both are -1
	// when Empty is set.
	First int
	Last  int
	// VisibleFirst and VisibleLast bound the rows that intersect the
	// viewport before overscan is applied.
	VisibleFirst int
	VisibleLast  int
	Rows         []Row
	Total        int
	Overscan     int
	Empty        bool
}

// calculateWindow derives the render window from the current offsets. It
// has no side effects beyond extending the lazily computed offset table.
func calculateWindow(t *offsetTable, viewport, scroll, overscan int) Window {
	n := t.len()
	if n == 0 {
		return Window{First: -1, Last: -1, VisibleFirst: -1, VisibleLast: -1, Overscan: overscan, Empty: true}
	}
	if viewport < 0 {
		viewport = 0
	}
	if scroll < 0 {
		scroll = 0
	}

	first := t.firstAtOrBefore(scroll)
	last := t.firstAtOrAfter(scroll + viewport)
	if last < first {
		last = first
	}

	w := Window{
		VisibleFirst: first,
		VisibleLast:  last,
		First:        max(0, first-overscan),
		Last:         min(n-1, last+overscan),
		Overscan:     overscan,
	}
	w.Rows = make([]Row, 0, w.Last-w.First+1)
	for i := w.First; i <= w.Last; i++ {
		top := t.top(i)
		w.Rows = append(w.Rows, Row{Index: i, Top: top, Height: t.top(i+1) - top})
	}
	w.Total = t.total()
	return w
}
