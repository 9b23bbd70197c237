package lock

// InheritToNext copies every gap-covering lock held or waited on oldKey onto
// newKey, leaving oldKey's own queue untouched — the lock inheritance InnoDB's
// lock_rec_inherit_to_gap performs when purge physically removes a
// delete-marked record (spec §4.6 "lock inheritance on purge"): the gap a
// waiter was protecting shifts to sit before whatever record now
// immediately follows the removed one. Purge in this module does not call it.
func (m *Manager) InheritToNext(oldKey, newKey Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records[oldKey] {
		if !r.flags.coversGap() {
			continue
		}
		m.records[newKey] = append(m.records[newKey], &request{
			trx: r.trx, mode: r.mode, flags: r.flags | FlagGap, granted: r.granted,
		})
		if r.granted {
			m.held[r.trx]++
			m.total++
		}
	}
	m.wakeEligible(newKey)
}

// InheritOnSplit duplicates every lock held or waited on oldKey onto both
// halves a B-tree split produced, since records on oldKey may now live on
// either leftKey or rightKey and a reader resolving the old key must still
// see the lock wherever the record ended up (spec §4.6 "lock inheritance on
// ... split").
func (m *Manager) InheritOnSplit(oldKey, leftKey, rightKey Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records[oldKey] {
		for _, dst := range [2]Key{leftKey, rightKey} {
			m.records[dst] = append(m.records[dst], &request{
				trx: r.trx, mode: r.mode, flags: r.flags, granted: r.granted,
			})
			if r.granted {
				m.held[r.trx]++
				m.total++
			}
		}
	}
	m.wakeEligible(leftKey)
	m.wakeEligible(rightKey)
}
