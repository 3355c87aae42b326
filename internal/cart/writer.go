package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/domain"
)

const saveTimeout = 5 * time.Second

// writer persists item snapshots in the background. Only the newest pending
// snapshot is kept, so a slow store never makes callers wait.
type writer struct {
	store  Store
	logger *zap.Logger
	queue  chan []domain.LineItem
	done   chan struct{}
	once   sync.Once
}

func newWriter(store Store, logger *zap.Logger) *writer {
	w := &writer{
		store:  store,
		logger: logger,
		queue:  make(chan []domain.LineItem, 1),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// submit replaces any pending snapshot. Callers must serialize submit and close.
func (w *writer) submit(items []domain.LineItem) {
	select {
	case <-w.queue:
	default:
	}
	w.queue <- items
}

func (w *writer) run() {
	defer close(w.done)
	for items := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := w.store.Save(ctx, items); err != nil {
			w.logger.Warn("Failed to persist cart", zap.Error(err), zap.Int("items", len(items)))
		}
		cancel()
	}
}

// close flushes the pending snapshot and waits for the writer to exit
func (w *writer) close() {
	w.once.Do(func() {
		close(w.queue)
	})
	<-w.done
}
