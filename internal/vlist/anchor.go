package vlist

// anchorNavigator resolves a deep-link identity to an index. Once resolved
// it stays pinned, so later measurements above the row keep it aligned,
// until the user scrolls.
type anchorNavigator struct {
	target   string
	resolved bool
	pinned   bool
	index    int
}

func (a *anchorNavigator) set(id string) {
	a.target = id
	a.resolved = false
	a.pinned = false
	a.index = -1
}

// resolve looks the target up. ok is false when there is nothing to do:
// no target, already resolved, or the identity is not loaded yet.
func (a *anchorNavigator) resolve(lookup map[string]int) (int, bool) {
	if a.target == "" || a.resolved {
		return 0, false
	}
	i, ok := lookup[a.target]
	if !ok {
		return 0, false
	}
	a.resolved = true
	a.pinned = true
	a.index = i
	return i, true
}

// relocate refreshes a pinned anchor's index after the sequence changed.
func (a *anchorNavigator) relocate(lookup map[string]int) {
	if !a.pinned {
		return
	}
	i, ok := lookup[a.target]
	if !ok {
		a.pinned = false
		return
	}
	a.index = i
}

func (a *anchorNavigator) release() {
	a.pinned = false
}
