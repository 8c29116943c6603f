package services

import "sync"

// InFlight is a keyed set of running operations. A key is held by at most
// one caller at a time; the template and export services share one set so
// a save and an export of the same template never overlap.
type InFlight struct {
	m sync.Map
}

// Acquire claims key and returns its release func, or false when the key
// is already held.
func (f *InFlight) Acquire(key string) (func(), bool) {
	if _, loaded := f.m.LoadOrStore(key, struct{}{}); loaded {
		return nil, false
	}
	return func() { f.m.Delete(key) }, true
}
