package engine

import (
	"go.uber.org/zap"
)

// Unit is a single consumer of styles driven through render, commit and
// unmount phases. Render may be repeated or abandoned, only Commit and
// Unmount change reference counts and the sink. Unit is not safe for
// concurrent use.
type Unit struct {
	sc  *Context
	id  string
	log *zap.Logger

	pending   []*entry
	committed []*entry
	deferred  []func()
	unmounted bool
}

// NewUnit creates unit. id is a stable identifier of the consumer used to
// generate CSS variable keys, it may be empty.
func (sc *Context) NewUnit(id string) *Unit {
	return &Unit{
		sc:  sc,
		id:  id,
		log: sc.log.With(zap.String("unit", id)),
	}
}

// ID returns unit id.
func (u *Unit) ID() string {
	return u.id
}

// Context returns style context unit belongs to.
func (u *Unit) Context() *Context {
	return u.sc
}

// Render starts a new render pass and runs fn, which is expected to call Use*
// methods. Registrations of the previous uncommitted pass are forgotten.
func (u *Unit) Render(fn func() error) error {
	u.pending = nil
	if fn == nil {
		return nil
	}
	return fn()
}

func (u *Unit) register(e *entry) {
	u.pending = append(u.pending, e)
}

// Commit takes references for registrations of the last render and applies
// their effects. Registrations whose key did not change since previous
// commit are left alone, the rest of previous references are dropped before
// new ones are taken. New references are taken in ascending order. On the
// server side nothing happens.
func (u *Unit) Commit() {
	if !u.sc.IsClient() {
		u.unmounted = false
		return
	}

	var acquire []*entry
	for i, e := range u.pending {
		if i < len(u.committed) && u.committed[i].key() == e.key() {
			u.pending[i] = u.committed[i]
			continue
		}
		acquire = append(acquire, e)
	}
	for i, old := range u.committed {
		if i < len(u.pending) && u.pending[i] == old {
			continue
		}
		u.sc.release(old)
	}
	for _, e := range sortEntries(acquire) {
		u.sc.acquire(e)
	}

	u.committed = append([]*entry(nil), u.pending...)
	u.unmounted = false
}

// Unmount drops every reference taken by Commit and runs deferred cleanups in
// the reverse order of registration. Unit may be committed again afterwards.
func (u *Unit) Unmount() {
	for _, e := range u.committed {
		u.sc.release(e)
	}
	u.committed = nil

	for i := len(u.deferred) - 1; i >= 0; i-- {
		u.deferred[i]()
	}
	u.deferred = nil
	u.unmounted = true
}

// Defer registers cleanup run on Unmount. Registering after Unmount is a
// misuse, it is reported and ignored.
func (u *Unit) Defer(fn func()) {
	if fn == nil {
		return
	}
	if u.unmounted {
		u.log.Warn("Cleanup registered after unit was unmounted, ignored")
		return
	}
	u.deferred = append(u.deferred, fn)
}

// Mounted reports whether unit holds committed references.
func (u *Unit) Mounted() bool {
	return len(u.committed) > 0
}
