package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/events"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/01moynul/tvshop-golang/internal/store"
)

// memStore is an in-memory stand-in for *store.Store covering carts,
// orders, payments and invoices.
type memStore struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	carts    map[string][]models.CartLine
	orders   map[int64]*models.Order
	payments []models.PaymentRecord
	invoices map[int64]models.Invoice
	nextID   int64

	failCreateOrder error
	failClearCart   error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]*models.Product{},
		carts:    map[string][]models.CartLine{},
		orders:   map[int64]*models.Order{},
		invoices: map[int64]models.Invoice{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) Product(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CartLines(_ context.Context, userID string) ([]models.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartLine{}, m.carts[userID]...), nil
}

func (m *memStore) AddCartLine(_ context.Context, line models.CartLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.carts[line.UserID] {
		if l.ProductID == line.ProductID {
			m.carts[line.UserID][i].Quantity += line.Quantity
			return nil
		}
	}
	line.ID = m.id()
	m.carts[line.UserID] = append(m.carts[line.UserID], line)
	return nil
}

func (m *memStore) SetCartLineQuantity(_ context.Context, userID string, productID int64, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.carts[userID] {
		if l.ProductID == productID {
			m.carts[userID][i].Quantity = qty
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DeleteCartLine(_ context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.CartLine
	for _, l := range m.carts[userID] {
		if l.ProductID != productID {
			kept = append(kept, l)
		}
	}
	m.carts[userID] = kept
	return nil
}

func (m *memStore) ClearCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClearCart != nil {
		return m.failClearCart
	}
	delete(m.carts, userID)
	return nil
}

func (m *memStore) ReplaceCart(ctx context.Context, line models.CartLine) error {
	_ = m.ClearCart(ctx, line.UserID)
	return m.AddCartLine(ctx, line)
}

func (m *memStore) CartCount(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.carts[userID] {
		n += l.Quantity
	}
	return n, nil
}

func (m *memStore) CreateOrder(_ context.Context, o *models.Order, pending *models.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateOrder != nil {
		return m.failCreateOrder
	}
	o.ID = m.id()
	for i := range o.Lines {
		o.Lines[i].ID = m.id()
		o.Lines[i].OrderID = o.ID
	}
	stored := *o
	stored.Lines = append([]models.OrderLine{}, o.Lines...)
	m.orders[o.ID] = &stored
	if pending != nil {
		pending.ID = m.id()
		pending.OrderID = o.ID
		m.payments = append(m.payments, *pending)
	}
	return nil
}

func (m *memStore) SettlePayment(_ context.Context, orderID int64, rec *models.PaymentRecord, next models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return fmt.Errorf("order %d: %w", orderID, apperr.ErrNotFound)
	}
	if o.Status != models.OrderStatusPending {
		return fmt.Errorf("order %d is %s: %w", orderID, o.Status, apperr.ErrInvalidState)
	}
	rec.ID = m.id()
	rec.OrderID = orderID
	m.payments = append(m.payments, *rec)
	o.Status = next
	o.PaymentID = rec.TransactionID
	return nil
}

func (m *memStore) OrderForUser(_ context.Context, id int64, userID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || o.UserID != userID {
		return nil, fmt.Errorf("order %d: %w", id, apperr.ErrNotFound)
	}
	cp := *o
	cp.Lines = append([]models.OrderLine{}, o.Lines...)
	return &cp, nil
}

func (m *memStore) InvoiceByOrder(_ context.Context, orderID int64) (*models.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[orderID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &inv, nil
}

func (m *memStore) CreateInvoice(_ context.Context, inv *models.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[inv.OrderID]; ok {
		return store.ErrDuplicate
	}
	inv.ID = m.id()
	m.invoices[inv.OrderID] = *inv
	return nil
}

func (m *memStore) order(id int64) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) paymentsFor(orderID int64) []models.PaymentRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PaymentRecord
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out
}

func (m *memStore) invoiceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invoices)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingNotifier struct {
	mu        sync.Mutex
	confirmed []int64
	failed    []int64
}

func (n *recordingNotifier) OrderConfirmed(_ context.Context, o *models.Order, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.confirmed = append(n.confirmed, o.ID)
	return nil
}

func (n *recordingNotifier) PaymentFailed(_ context.Context, o *models.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, o.ID)
	return nil
}
