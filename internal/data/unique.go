package data

import "sync"

// UniqueIDs выдаёт уникальные серийные номера предметов.
// Значение только растёт; Set используется при восстановлении из хранилища.
type UniqueIDs struct {
	mu   sync.Mutex
	last uint64
}

// Next returns a fresh id.
func (u *UniqueIDs) Next() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last++
	return u.last
}

// Raise moves the counter forward to at least v.
func (u *UniqueIDs) Raise(v uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = max(u.last, v)
}

// Set overwrites the counter.
func (u *UniqueIDs) Set(v uint64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = v
}

// Last returns the most recently issued id.
func (u *UniqueIDs) Last() uint64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.last
}
