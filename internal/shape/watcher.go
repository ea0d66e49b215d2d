package shape

import (
	"sync"

	"reloverlay/internal/geom"
)

// boxSource is the geometry strategy of a watcher.
type boxSource interface {
	BoundingBox() geom.BoundingBox
}

// watcher is the live Shape used by every supported region kind. The region
// subscription is taken on the first OnUpdate and dropped on Destroy.
type watcher struct {
	region Region
	box    boxSource

	mu          sync.Mutex
	callback    func()
	unsubscribe func()
	destroyed   bool
}

func newWatcher(region Region, box boxSource) *watcher {
	return &watcher{region: region, box: box}
}

func (w *watcher) BoundingBox() geom.BoundingBox {
	w.mu.Lock()
	destroyed := w.destroyed
	w.mu.Unlock()
	if destroyed {
		return geom.BoundingBox{}
	}
	return w.box.BoundingBox()
}

func (w *watcher) OnUpdate(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	w.callback = fn
	if w.unsubscribe == nil {
		w.unsubscribe = w.region.Subscribe(w.notify)
	}
}

func (w *watcher) notify() {
	w.mu.Lock()
	fn := w.callback
	if w.destroyed {
		fn = nil
	}
	w.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (w *watcher) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	w.callback = nil
	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	w.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// static is the degraded Shape for regions nobody knows how to watch. Its
// box is captured once and never changes.
type static struct {
	box geom.BoundingBox
}

func (s *static) BoundingBox() geom.BoundingBox { return s.box }
func (s *static) OnUpdate(func())               {}
func (s *static) Destroy()                      {}
