package vlist

import "math"

// signature is the display state a row's height depends on.
type signature struct {
	expanded bool
	loading  bool
}

// HeightStore owns the measured heights of a list and the state that picks
// a fallback for rows not measured yet. Only the batcher and the List write
// to it.
//
// The pattern cache only covers expanded and loading rows. Collapsed rows
// always fall back to the constant, so a measurement never silently moves
// the offsets of unmeasured rows above it.
type HeightStore struct {
	opts     Options
	measured map[int]int
	patterns map[signature]int
	expanded map[int]struct{}
	loading  map[int]struct{}
	shifted  bool

	// gens stamps rows whose display state was toggled since base, the
	// stamp of the last wholesale replace. Stamps only grow.
	gens map[int]uint64
	seq  uint64
	base uint64
}

func newHeightStore(opts Options) *HeightStore {
	return &HeightStore{
		opts:     opts,
		measured: make(map[int]int),
		patterns: make(map[signature]int),
		expanded: make(map[int]struct{}),
		loading:  make(map[int]struct{}),
		gens:     make(map[int]uint64),
	}
}

// Height returns the measured height of index, or its fallback.
func (s *HeightStore) Height(index int) int {
	if h, ok := s.measured[index]; ok {
		return h
	}
	return s.FallbackHeight(index)
}

// Measured returns the stored measurement for index, if any.
func (s *HeightStore) Measured(index int) (int, bool) {
	h, ok := s.measured[index]
	return h, ok
}

// FallbackHeight returns the last height seen for a row in the same display
// state, or the configured constant for that state.
func (s *HeightStore) FallbackHeight(index int) int {
	sig := s.signature(index)
	if h, ok := s.patterns[sig]; ok && sig != (signature{}) {
		return h
	}
	switch {
	case sig.loading:
		return s.opts.LoadingHeight
	case sig.expanded:
		return s.opts.ExpandedHeight
	default:
		return s.opts.DefaultHeight
	}
}

// Expanded reports whether index is expanded, including the loading sub-state.
func (s *HeightStore) Expanded(index int) bool {
	_, e := s.expanded[index]
	_, l := s.loading[index]
	return e || l
}

// Loading reports whether index shows a loading placeholder.
func (s *HeightStore) Loading(index int) bool {
	_, ok := s.loading[index]
	return ok
}

// generation identifies the display state a row was rendered in. It
// changes whenever the row is expanded or collapsed.
func (s *HeightStore) generation(index int) uint64 {
	if g, ok := s.gens[index]; ok {
		return g
	}
	return s.base
}

func (s *HeightStore) signature(index int) signature {
	_, e := s.expanded[index]
	_, l := s.loading[index]
	return signature{expanded: e, loading: l}
}

// normalizeHeight rounds a reported height and clamps it to
// [MinHeight, MaxHeight]. ok is false for values the store must never see.
func (s *HeightStore) normalizeHeight(h float64) (int, bool) {
	if math.IsNaN(h) || math.IsInf(h, 0) || h <= 0 {
		return 0, false
	}
	n := int(math.Round(math.Min(h, float64(s.opts.MaxHeight))))
	return clampInt(n, s.opts.MinHeight, s.opts.MaxHeight), true
}

// current reports whether a measurement would leave the row as it is: same
// loading state and within the jitter threshold of the stored height.
func (s *HeightStore) current(index, height int, loading bool) bool {
	cur, ok := s.measured[index]
	return ok && s.Loading(index) == loading && absInt(height-cur) <= s.opts.JitterThreshold
}

// apply records a measurement. It returns false when neither the height nor
// the loading state changed enough to matter.
func (s *HeightStore) apply(index, height int, loading bool) bool {
	stateChanged := false
	_, isLoading := s.loading[index]
	switch {
	case loading && !isLoading:
		delete(s.expanded, index)
		s.loading[index] = struct{}{}
		stateChanged = true
	case !loading && isLoading:
		delete(s.loading, index)
		s.expanded[index] = struct{}{}
		stateChanged = true
	}

	cur, ok := s.measured[index]
	if ok && !stateChanged && absInt(height-cur) <= s.opts.JitterThreshold {
		return false
	}
	s.measured[index] = height
	if sig := s.signature(index); sig != (signature{}) {
		if prev, ok := s.patterns[sig]; !ok || prev != height {
			s.patterns[sig] = height
			s.shifted = true
		}
	}
	return true
}

// takeShift returns the lowest unmeasured row whose fallback moved because
// a pattern entry changed since the last call, or -1.
func (s *HeightStore) takeShift() int {
	if !s.shifted {
		return -1
	}
	s.shifted = false
	lowest := -1
	for _, set := range []map[int]struct{}{s.expanded, s.loading} {
		for i := range set {
			if _, ok := s.measured[i]; ok {
				continue
			}
			if lowest < 0 || i < lowest {
				lowest = i
			}
		}
	}
	return lowest
}

// setExpanded toggles a single row. The row's measurement belongs to its old
// state, so it is dropped.
func (s *HeightStore) setExpanded(index int, on bool) bool {
	if on == s.Expanded(index) {
		return false
	}
	delete(s.expanded, index)
	delete(s.loading, index)
	delete(s.measured, index)
	if on {
		s.expanded[index] = struct{}{}
	}
	s.seq++
	s.gens[index] = s.seq
	return true
}

// replaceExpansion swaps the whole expansion set. Every measurement is
// stale afterwards.
func (s *HeightStore) replaceExpansion(indices []int) {
	s.expanded = make(map[int]struct{}, len(indices))
	for _, i := range indices {
		s.expanded[i] = struct{}{}
	}
	s.loading = make(map[int]struct{})
	s.measured = make(map[int]int)
	s.seq++
	s.base = s.seq
	s.gens = make(map[int]uint64)
}

// remap moves per-index state to new positions. Entries whose row no longer
// exists are dropped.
func (s *HeightStore) remap(move func(old int) (int, bool)) {
	measured := make(map[int]int, len(s.measured))
	for i, h := range s.measured {
		if n, ok := move(i); ok {
			measured[n] = h
		}
	}
	expanded := make(map[int]struct{}, len(s.expanded))
	for i := range s.expanded {
		if n, ok := move(i); ok {
			expanded[n] = struct{}{}
		}
	}
	loading := make(map[int]struct{}, len(s.loading))
	for i := range s.loading {
		if n, ok := move(i); ok {
			loading[n] = struct{}{}
		}
	}
	gens := make(map[int]uint64, len(s.gens))
	for i, g := range s.gens {
		if n, ok := move(i); ok {
			gens[n] = g
		}
	}
	s.measured, s.expanded, s.loading, s.gens = measured, expanded, loading, gens
}

// expandedIndices lists every expanded or loading row, unordered.
func (s *HeightStore) expandedIndices() []int {
	out := make([]int, 0, len(s.expanded)+len(s.loading))
	for i := range s.expanded {
		out = append(out, i)
	}
	for i := range s.loading {
		out = append(out, i)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
