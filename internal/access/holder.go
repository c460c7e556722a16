package access

import "sync/atomic"

// Holder lets the policy be swapped at runtime without locking readers.
type Holder struct {
	current atomic.Pointer[Policy]
}

func NewHolder(p *Policy) *Holder {
	h := &Holder{}
	h.current.Store(p)
	return h
}

func (h *Holder) Policy() *Policy {
	return h.current.Load()
}

func (h *Holder) Store(p *Policy) {
	if p != nil {
		h.current.Store(p)
	}
}
