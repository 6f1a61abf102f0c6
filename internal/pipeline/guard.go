package pipeline

import "sync/atomic"

// Guard makes rename submission exclusive. The zero value is ready to use and
// each surface owns its own Guard.
type Guard struct {
	busy atomic.Bool
}

// TryAcquire reports false while another submission holds the guard.
func (g *Guard) TryAcquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *Guard) Release() {
	g.busy.Store(false)
}

func (g *Guard) Busy() bool {
	return g.busy.Load()
}
