package lock

// detectDeadlock runs a bounded-depth DFS over the wait-for graph starting
// at start, grounded on DeadlockDetector.WouldCauseCycle/dfs of
// mvcc/deadlock.go of the teacher. If a cycle back to start is found, the
// victim is the cycle member currently holding the fewest granted locks
// (spec §4.6 "lighter-victim selection") — a tie keeps start as the victim,
// since aborting the just-arrived request is always safe to do synchronously.
func (m *Manager) detectDeadlock(start uint64) (victim uint64, found bool) {
	visited := make(map[uint64]bool)
	var path []uint64

	var dfs func(trx uint64, depth int) []uint64
	dfs = func(trx uint64, depth int) []uint64 {
		if depth > m.cfg.DeadlockSearchDepth {
			return nil
		}
		if visited[trx] {
			return nil
		}
		visited[trx] = true
		path = append(path, trx)
		for next := range m.waitFor[trx] {
			if next == start {
				return append(append([]uint64(nil), path...), next)
			}
			if cycle := dfs(next, depth+1); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		return nil
	}

	cycle := dfs(start, 0)
	if cycle == nil {
		return 0, false
	}

	victim = start
	lightest := m.held[start]
	for _, trx := range cycle {
		if m.held[trx] < lightest {
			lightest = m.held[trx]
			victim = trx
		}
	}
	return victim, true
}

// WaitForGraph returns a snapshot copy of the current wait-for edges, for
// diagnostics (spec §7 observability) — mirrors
// DeadlockDetector.GetWaitForGraph of the teacher.
func (m *Manager) WaitForGraph() map[uint64]map[uint64]bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint64]map[uint64]bool, len(m.waitFor))
	for trx, set := range m.waitFor {
		copySet := make(map[uint64]bool, len(set))
		for k, v := range set {
			copySet[k] = v
		}
		out[trx] = copySet
	}
	return out
}
