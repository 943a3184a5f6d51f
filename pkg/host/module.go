package host

import (
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// moduleHandle owns one loaded module. It is reference counted: scans hold
// a reference while reading the factory, instances for their whole life.
// The module is closed when the last reference is released.
type moduleHandle struct {
	path   string
	module vst3.Module
	cache  *moduleCache
	refs   int // guarded by cache.mu

	// mu serializes instantiation on this module.
	mu        sync.Mutex
	instances int
	live      map[vst3.TUID]int
}

// acquireInstance records a new live instance of cid. It fails when the
// sharing policy or the class cardinality forbids another one. Callers
// hold h.mu.
func (h *moduleHandle) acquireInstance(cid vst3.TUID, cardinality int32, shared bool) error {
	if h.instances > 0 && !shared {
		return ErrModuleInUse
	}
	if cardinality == 1 && h.live[cid] > 0 {
		return ErrModuleInUse
	}
	h.instances++
	h.live[cid]++
	return nil
}

func (h *moduleHandle) releaseInstance(cid vst3.TUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropInstance(cid)
}

// dropInstance undoes acquireInstance. Callers hold h.mu.
func (h *moduleHandle) dropInstance(cid vst3.TUID) {
	h.instances--
	if h.live[cid]--; h.live[cid] <= 0 {
		delete(h.live, cid)
	}
}

func (h *moduleHandle) release() {
	h.cache.release(h)
}

// moduleCache maps module paths to open handles so that concurrent scans
// and loads of the same module share one native load.
type moduleCache struct {
	loader  vst3.Loader
	logger  *slog.Logger
	metrics *Metrics

	mu      sync.Mutex
	modules map[string]*moduleHandle
	group   singleflight.Group
}

func newModuleCache(loader vst3.Loader, logger *slog.Logger, metrics *Metrics) *moduleCache {
	return &moduleCache{
		loader:  loader,
		logger:  logger,
		metrics: metrics,
		modules: make(map[string]*moduleHandle),
	}
}

// acquire returns a referenced handle for path, opening the module if
// nobody holds it.
func (c *moduleCache) acquire(path string) (*moduleHandle, error) {
	for {
		c.mu.Lock()
		if h, ok := c.modules[path]; ok {
			h.refs++
			c.mu.Unlock()
			return h, nil
		}
		c.mu.Unlock()

		v, err, _ := c.group.Do(path, func() (any, error) {
			c.mu.Lock()
			if h, ok := c.modules[path]; ok {
				c.mu.Unlock()
				return h, nil
			}
			c.mu.Unlock()

			m, err := c.loader.Open(path)
			if err != nil {
				return nil, err
			}
			h := &moduleHandle{
				path:   path,
				module: m,
				cache:  c,
				live:   make(map[vst3.TUID]int),
			}
			c.mu.Lock()
			c.modules[path] = h
			c.mu.Unlock()
			c.metrics.moduleOpened()
			return h, nil
		})
		if err != nil {
			return nil, err
		}

		h := v.(*moduleHandle)
		c.mu.Lock()
		// The handle may have been opened and closed again by others
		// between Do returning and here.
		if c.modules[path] == h {
			h.refs++
			c.mu.Unlock()
			return h, nil
		}
		c.mu.Unlock()
	}
}

func (c *moduleCache) release(h *moduleHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h.refs--
	if h.refs > 0 {
		return
	}
	delete(c.modules, h.path)
	if err := h.module.Close(); err != nil {
		c.logger.Warn("closing module failed", "path", h.path, "error", err)
	}
	c.metrics.moduleClosed()
}

// open returns the number of modules currently loaded.
func (c *moduleCache) open() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.modules)
}
