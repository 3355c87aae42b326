package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gaugyan/storefront/internal/cart"
)

const (
	restoreTimeout   = 5 * time.Second
	maxSweepInterval = time.Minute
)

type entry struct {
	engine   *cart.Engine
	refs     int
	lastSeen time.Time
	ending   bool
	// closed once the engine is flushed and dropped from the manager
	done chan struct{}
}

// Manager owns one cart engine per shopping session. An engine is created
// and restored from the blob store on first use and closed by End or by the
// idle sweeper. Callers hold an engine between Get and the returned release;
// a held engine is never closed under them.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry
	sfg     singleflight.Group // collapses concurrent restores of one session

	blobs     cart.BlobStore
	keyPrefix string
	catalog   cart.Catalog
	pricing   cart.Pricing
	logger    *zap.Logger
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a session manager. A nil blob store keeps carts in
// memory only.
func NewManager(blobs cart.BlobStore, keyPrefix string, catalog cart.Catalog, pricing cart.Pricing, logger *zap.Logger) *Manager {
	return &Manager{
		entries:   make(map[string]*entry),
		blobs:     blobs,
		keyPrefix: keyPrefix,
		catalog:   catalog,
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// NewSessionID mints a fresh session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the engine for sessionID, creating and restoring it if needed.
// The caller must call release once it is done with the engine.
func (m *Manager) Get(ctx context.Context, sessionID string) (engine *cart.Engine, release func()) {
	for {
		m.mu.Lock()
		en, ok := m.entries[sessionID]
		if ok && !en.ending {
			en.refs++
			en.lastSeen = m.now()
			m.mu.Unlock()
			return en.engine, m.releaser(sessionID, en)
		}
		m.mu.Unlock()

		if ok {
			// restoring before the old engine has flushed would load a stale cart
			<-en.done
			continue
		}

		m.sfg.Do(sessionID, func() (interface{}, error) {
			m.mu.Lock()
			_, exists := m.entries[sessionID]
			m.mu.Unlock()
			if exists {
				return nil, nil
			}

			created := m.newEngine(ctx, sessionID)

			m.mu.Lock()
			m.entries[sessionID] = &entry{engine: created, lastSeen: m.now(), done: make(chan struct{})}
			m.mu.Unlock()

			m.logger.Debug("Session started", zap.String("session", sessionID), zap.Int("items", len(created.Items())))
			return nil, nil
		})
	}
}

// Detached returns an empty in-memory cart that belongs to no session. It
// answers reads for a session id that was just minted without keeping
// anything alive.
func (m *Manager) Detached() *cart.Engine {
	return cart.NewEngine(nil, m.catalog, m.pricing, m.logger)
}

func (m *Manager) newEngine(ctx context.Context, sessionID string) *cart.Engine {
	logger := m.logger.With(zap.String("session", sessionID))

	var store cart.Store
	if m.blobs != nil {
		store = cart.NewBlobPersistence(m.blobs, cart.StorageKey(m.keyPrefix, sessionID), logger)
	}
	engine := cart.NewEngine(store, m.catalog, m.pricing, logger)

	// other requests may be waiting on this restore, so it must outlive the
	// request that triggered it
	restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()
	engine.Restore(restoreCtx)

	return engine
}

func (m *Manager) releaser(sessionID string, en *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			en.refs--
			en.lastSeen = m.now()
			last := en.ending && en.refs == 0
			m.mu.Unlock()

			if last {
				m.finish(sessionID, en)
			}
		})
	}
}

// finish closes an entry already marked ending. Only one caller reaches it
// per entry.
func (m *Manager) finish(sessionID string, en *entry) {
	en.engine.Close()

	m.mu.Lock()
	if m.entries[sessionID] == en {
		delete(m.entries, sessionID)
	}
	m.mu.Unlock()

	close(en.done)
}

// Exists reports whether sessionID has a live engine
func (m *Manager) Exists(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	en, ok := m.entries[sessionID]
	return ok && !en.ending
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, en := range m.entries {
		if !en.ending {
			n++
		}
	}
	return n
}

// End flushes and drops the session's engine. The persisted cart is kept.
// If a request still holds the engine, it is closed when that request
// releases it.
func (m *Manager) End(sessionID string) bool {
	m.mu.Lock()
	en, ok := m.entries[sessionID]
	if !ok || en.ending {
		m.mu.Unlock()
		return false
	}
	en.ending = true
	idle := en.refs == 0
	m.mu.Unlock()

	if idle {
		m.finish(sessionID, en)
	}
	m.logger.Debug("Session ended", zap.String("session", sessionID))
	return true
}

// EvictIdle ends every session nobody holds that has not been used for
// idleTTL. It returns the number of sessions ended.
func (m *Manager) EvictIdle(idleTTL time.Duration) int {
	cutoff := m.now().Add(-idleTTL)

	idle := make(map[string]*entry)
	m.mu.Lock()
	for id, en := range m.entries {
		if en.refs == 0 && !en.ending && !en.lastSeen.After(cutoff) {
			en.ending = true
			idle[id] = en
		}
	}
	m.mu.Unlock()

	for id, en := range idle {
		m.finish(id, en)
	}
	return len(idle)
}

// StartSweeper ends idle sessions in the background until Close
func (m *Manager) StartSweeper(idleTTL time.Duration) {
	interval := idleTTL
	if interval > maxSweepInterval {
		interval = maxSweepInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				if n := m.EvictIdle(idleTTL); n > 0 {
					m.logger.Info("Evicted idle sessions", zap.Int("count", n), zap.Int("live", m.Len()))
				}
			}
		}
	}()
}

// Close stops the sweeper and ends every session
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	ended := 0
	for _, id := range ids {
		if m.End(id) {
			ended++
		}
	}
	m.logger.Info("Closed cart sessions", zap.Int("count", ended))
}
