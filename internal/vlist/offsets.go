package vlist

import "sort"

// offsetTable is a lazily extended prefix sum over row heights. tops[i] is
// the top edge of row i and tops[n] the total height. Entries up to the
// valid watermark are current; everything above it is recomputed on demand.
//
// sum is the total height, kept current by adjust so reading the total does
// not extend the table. It is trusted only while summed is set.
type offsetTable struct {
	height func(index int) int
	tops   []int
	valid  int
	sum    int
	summed bool

	invalidatedFrom int
	recomputed      int
}

func newOffsetTable(height func(int) int) *offsetTable {
	return &offsetTable{
		height:          height,
		tops:            []int{0},
		summed:          true,
		invalidatedFrom: -1,
	}
}

func (t *offsetTable) len() int {
	return len(t.tops) - 1
}

// resize changes the row count. Offsets of surviving rows stay valid.
// Appended rows are added to the running total at their current height.
func (t *offsetTable) resize(n int) {
	if n < 0 {
		n = 0
	}
	old := t.len()
	if cap(t.tops) < n+1 {
		grown := make([]int, n+1, (n+1)*2)
		copy(grown, t.tops)
		t.tops = grown
	} else {
		t.tops = t.tops[:n+1]
	}
	if t.valid > n {
		t.valid = n
	}
	switch {
	case n < old:
		t.summed = false
	case t.summed:
		for i := old; i < n; i++ {
			t.sum += t.height(i)
		}
	}
}

// adjust moves the running total by the height change of some rows.
func (t *offsetTable) adjust(delta int) {
	if t.summed {
		t.sum += delta
	}
}

// forget drops the running total; the next read sums the whole table.
func (t *offsetTable) forget() {
	t.summed = false
}

// invalidate marks every offset derived from row k onward as stale. The top
// of row k itself only depends on rows before it and is kept.
func (t *offsetTable) invalidate(k int) {
	if k < 0 {
		k = 0
	}
	if k < t.valid {
		t.valid = k
	}
	t.invalidatedFrom = k
}

func (t *offsetTable) extend() {
	i := t.valid
	t.tops[i+1] = t.tops[i] + t.height(i)
	t.valid++
	t.recomputed++
	if t.valid == t.len() {
		t.sum, t.summed = t.tops[t.valid], true
	}
}

func (t *offsetTable) ensure(j int) {
	if j > t.len() {
		j = t.len()
	}
	for t.valid < j {
		t.extend()
	}
}

func (t *offsetTable) top(i int) int {
	t.ensure(i)
	return t.tops[i]
}

func (t *offsetTable) total() int {
	if !t.summed {
		t.ensure(t.len())
		t.sum, t.summed = t.tops[t.len()], true
	}
	return t.sum
}

// firstAtOrBefore returns the greatest row whose top is <= y.
func (t *offsetTable) firstAtOrBefore(y int) int {
	n := t.len()
	if n == 0 {
		return -1
	}
	for t.valid < n && t.tops[t.valid] <= y {
		t.extend()
	}
	m := min(t.valid, n-1) + 1
	i := sort.Search(m, func(i int) bool { return t.tops[i] > y }) - 1
	if i < 0 {
		i = 0
	}
	return i
}

// firstAtOrAfter returns the least row whose top is >= y, or the last row
// when every top lies above y.
func (t *offsetTable) firstAtOrAfter(y int) int {
	n := t.len()
	if n == 0 {
		return -1
	}
	for t.valid < n && t.tops[t.valid] < y {
		t.extend()
	}
	m := min(t.valid, n-1) + 1
	i := sort.Search(m, func(i int) bool { return t.tops[i] >= y })
	if i >= m {
		return n - 1
	}
	return i
}
