package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/domain"
)

const msgInvalidCoupon = "Invalid coupon code"

// Catalog resolves coupon codes to definitions
type Catalog interface {
	Lookup(code string) (domain.Coupon, bool)
}

// Engine owns one shopping cart: its line items, the active coupon and the
// drawer flag. Totals are derived on every call and never stored.
//
// No operation returns an error. Bad input degrades to a no-op, and every
// mutation is handed to the Store in the background.
type Engine struct {
	mu     sync.Mutex
	items  []domain.LineItem
	coupon *domain.Coupon
	open   bool
	closed bool
	// set while an order for this cart is in flight
	checkingOut bool
	catalog     Catalog
	pricing     Pricing
	store       Store
	writer      *writer
	logger      *zap.Logger
	now         func() time.Time
}

// NewEngine creates an empty cart. A nil store keeps the cart in memory only.
func NewEngine(store Store, catalog Catalog, pricing Pricing, logger *zap.Logger) *Engine {
	e := &Engine{
		items:   make([]domain.LineItem, 0),
		catalog: catalog,
		pricing: pricing,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
	if store != nil {
		e.writer = newWriter(store, logger)
	}
	return e
}

// Restore replaces the items with the persisted cart. Duplicate entries in
// the stored blob are merged.
func (e *Engine) Restore(ctx context.Context) {
	if e.store == nil {
		return
	}
	loaded := e.store.Load(ctx)

	items := make([]domain.LineItem, 0, len(loaded))
	seen := make(map[identity]int, len(loaded))
	for _, item := range loaded {
		if item.Quantity < 1 {
			continue
		}
		key := itemIdentity(item)
		if i, ok := seen[key]; ok {
			items[i].Quantity += item.Quantity
			continue
		}
		seen[key] = len(items)
		items = append(items, item)
	}

	e.mu.Lock()
	e.items = items
	e.mu.Unlock()
}

// AddItem merges quantity into the matching line item or appends a new one.
// Quantities below one are raised to one.
func (e *Engine) AddItem(product domain.Product, variation *domain.Variation, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if i := e.indexOf(identityOf(product.ID, variation)); i >= 0 {
		e.items[i].Quantity += quantity
	} else {
		v := cloneVariation(variation)
		e.items = append(e.items, domain.LineItem{
			ProductID: product.ID,
			Snapshot:  cloneSnapshot(product.Snapshot),
			Variation: v,
			UnitPrice: unitPrice(product.Price, v),
			Quantity:  quantity,
			AddedAt:   e.now(),
		})
	}

	e.persistLocked()
}

// RemoveItem drops the matching line item, if any
func (e *Engine) RemoveItem(productID domain.ProductID, variation *domain.Variation) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(identityOf(productID, variation))
}

// UpdateQuantity sets an absolute quantity. Zero or less removes the item.
func (e *Engine) UpdateQuantity(productID domain.ProductID, variation *domain.Variation, quantity int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := identityOf(productID, variation)
	if quantity <= 0 {
		e.removeLocked(key)
		return
	}

	i := e.indexOf(key)
	if i < 0 {
		return
	}
	e.items[i].Quantity = quantity
	e.persistLocked()
}

// Clear empties the cart. The active coupon is left alone.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.items = make([]domain.LineItem, 0)
	e.persistLocked()
}

// ApplyCoupon activates the coupon matching code, replacing any previous
// one. The minimum amount is not checked here; see Totals.
func (e *Engine) ApplyCoupon(code string) domain.CouponResult {
	def, ok := e.catalog.Lookup(code)
	if !ok {
		e.logger.Debug("Rejected coupon code", zap.String("code", code))
		return domain.CouponResult{Success: false, Message: msgInvalidCoupon}
	}

	e.mu.Lock()
	e.coupon = &def
	e.mu.Unlock()

	return domain.CouponResult{
		Success: true,
		Message: fmt.Sprintf("Coupon %s applied: %s", def.Code, def.Description),
	}
}

// RemoveCoupon clears the active coupon
func (e *Engine) RemoveCoupon() {
	e.mu.Lock()
	e.coupon = nil
	e.mu.Unlock()
}

// Totals derives subtotal, discount, tax, shipping, total and item count
func (e *Engine) Totals() domain.Totals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pricing.Compute(e.items, e.coupon)
}

// ItemsByVendor groups the items by vendor in order of first appearance
func (e *Engine) ItemsByVendor() []domain.VendorGroup {
	e.mu.Lock()
	defer e.mu.Unlock()
	return GroupByVendor(e.items)
}

// IsInCart reports whether the product/variation pair has a line item
func (e *Engine) IsInCart(productID domain.ProductID, variation *domain.Variation) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.indexOf(identityOf(productID, variation)) >= 0
}

// Items returns a copy of the line items in insertion order
func (e *Engine) Items() []domain.LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// ActiveCoupon returns the applied coupon or nil
func (e *Engine) ActiveCoupon() *domain.Coupon {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.coupon == nil {
		return nil
	}
	c := *e.coupon
	return &c
}

// IsOpen reports whether the cart drawer is shown
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// SetOpen shows or hides the cart drawer
func (e *Engine) SetOpen(open bool) {
	e.mu.Lock()
	e.open = open
	e.mu.Unlock()
}

// ToggleOpen flips the drawer flag and returns the new value
func (e *Engine) ToggleOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open = !e.open
	return e.open
}

// State returns a consistent copy of the whole cart
func (e *Engine) State() domain.CartState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// BeginCheckout reserves the cart for a single checkout and returns the
// state to order. ok is false while another checkout holds the reservation.
func (e *Engine) BeginCheckout() (state domain.CartState, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.checkingOut {
		return domain.CartState{}, false
	}
	e.checkingOut = true
	return e.stateLocked(), true
}

// EndCheckout releases the reservation taken by BeginCheckout
func (e *Engine) EndCheckout() {
	e.mu.Lock()
	e.checkingOut = false
	e.mu.Unlock()
}

// RemoveOrdered takes ordered quantities out of the cart. A line raised after
// the order was snapshotted keeps the difference, and lines added since are
// untouched. The coupon is dropped only if it is still the ordered one.
func (e *Engine) RemoveOrdered(ordered []domain.LineItem, orderedCoupon *domain.Coupon) {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	for _, o := range ordered {
		i := e.indexOf(itemIdentity(o))
		if i < 0 {
			continue
		}
		if e.items[i].Quantity > o.Quantity {
			e.items[i].Quantity -= o.Quantity
		} else {
			e.dropLocked(i)
		}
		changed = true
	}

	if orderedCoupon != nil && e.coupon != nil && e.coupon.Code == orderedCoupon.Code {
		e.coupon = nil
	}
	if changed {
		e.persistLocked()
	}
}

// Close flushes pending persistence. Later mutations stay in memory only.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	w := e.writer
	e.mu.Unlock()

	if w != nil {
		w.close()
	}
}

func (e *Engine) indexOf(key identity) int {
	for i := range e.items {
		if itemIdentity(e.items[i]) == key {
			return i
		}
	}
	return -1
}

func (e *Engine) removeLocked(key identity) {
	i := e.indexOf(key)
	if i < 0 {
		return
	}
	e.dropLocked(i)
	e.persistLocked()
}

func (e *Engine) dropLocked(i int) {
	items := make([]domain.LineItem, 0, len(e.items)-1)
	items = append(items, e.items[:i]...)
	items = append(items, e.items[i+1:]...)
	e.items = items
}

func (e *Engine) stateLocked() domain.CartState {
	state := domain.CartState{
		Items:  e.snapshotLocked(),
		IsOpen: e.open,
		Totals: e.pricing.Compute(e.items, e.coupon),
	}
	if e.coupon != nil {
		c := *e.coupon
		state.ActiveCoupon = &c
	}
	return state
}

func (e *Engine) snapshotLocked() []domain.LineItem {
	out := make([]domain.LineItem, len(e.items))
	copy(out, e.items)
	return out
}

func (e *Engine) persistLocked() {
	if e.writer == nil || e.closed {
		return
	}
	e.writer.submit(e.snapshotLocked())
}
