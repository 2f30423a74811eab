package store

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/database"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	ctr, err := tcmysql.Run(ctx, "mysql:8.0.36",
		tcmysql.WithDatabase("tvshop"),
		tcmysql.WithUsername("shop"),
		tcmysql.WithPassword("shop"),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mysql container: %v\n", err)
		os.Exit(1)
	}

	code := func() int {
		defer func() {
			if err := ctr.Terminate(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
			}
		}()

		dsn, err := ctr.ConnectionString(ctx, "parseTime=true")
		if err != nil {
			fmt.Fprintf(os.Stderr, "connection string: %v\n", err)
			return 1
		}
		testDB, err = sql.Open("mysql", dsn)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open: %v\n", err)
			return 1
		}
		defer testDB.Close()

		if err := database.MigrateUp(testDB); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	if testDB == nil {
		t.Skip("skipping MySQL integration test in -short mode")
	}
	return New(testDB)
}

func newUserID() string {
	return "user-" + uuid.NewString()
}

func seedProduct(t *testing.T, s *Store, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          "OLED 55",
		Slug:          "oled-55-" + uuid.NewString(),
		Brand:         "Acme",
		Description:   "A television",
		MainImageURL:  "/img/oled.png",
		Price:         decimal.RequireFromString(price),
		StockQuantity: 10,
	}
	require.NoError(t, s.CreateProduct(context.Background(), p))
	return p
}

func cartLine(userID string, p *models.Product, qty int) models.CartLine {
	return models.CartLine{
		UserID:       userID,
		ProductID:    p.ID,
		ProductName:  p.Name,
		MainImageURL: p.MainImageURL,
		UnitPrice:    p.Price,
		Quantity:     qty,
	}
}

func newPendingOrder(userID string, lines ...models.OrderLine) *models.Order {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return &models.Order{
		UserID:       userID,
		Email:        "jane@example.com",
		CustomerName: "Jane Doe",
		Address:      "1 Main St",
		TotalAmount:  total,
		OrderDate:    time.Now().UTC(),
		PaymentID:    models.PendingPaymentID,
		Status:       models.OrderStatusPending,
		Lines:        lines,
	}
}

func TestProduct_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Product(context.Background(), 999999999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCreateProduct_DuplicateSlug(t *testing.T) {
	s := newTestStore(t)
	p := seedProduct(t, s, "10.00")

	dup := *p
	dup.ID = 0
	assert.ErrorIs(t, s.CreateProduct(context.Background(), &dup), ErrDuplicate)
}

func TestListProducts_SearchAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	brand := "Brand-" + uuid.NewString()[:8]

	mk := func(name, category string) *models.Product {
		p := &models.Product{
			Name:     name,
			Slug:     "p-" + uuid.NewString(),
			Brand:    brand,
			Category: category,
			Price:    decimal.RequireFromString("100.00"),
		}
		require.NoError(t, s.CreateProduct(ctx, p))
		return p
	}
	oled := mk("Bravia OLED 55", "OLED")
	qled := mk("Frame QLED 65", "QLED")
	mk("Budget LED 32", "LED")

	all, err := s.ListProducts(ctx, models.ProductFilter{Brand: brand, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := s.ListProducts(ctx, models.ProductFilter{Brand: brand, Search: "  oled ", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, oled.ID, got[0].ID)
	assert.Equal(t, "OLED", got[0].Category)

	got, err = s.ListProducts(ctx, models.ProductFilter{Brand: brand, Category: "QLED", Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, qled.ID, got[0].ID)

	got, err = s.ListProducts(ctx, models.ProductFilter{Brand: brand, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	facets, err := s.CatalogFacets(ctx)
	require.NoError(t, err)
	assert.Contains(t, facets.Brands, brand)
	assert.Subset(t, facets.Categories, []string{"LED", "OLED", "QLED"})
}

func TestRatings_UpsertListSummaryDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	p := seedProduct(t, s, "10.00")

	first := &models.Rating{ProductID: p.ID, UserID: newUserID(), Value: 5}
	require.NoError(t, s.UpsertRating(ctx, first))
	require.NotZero(t, first.ID)
	assert.Nil(t, first.Comment)

	comment := "Colours are a bit dull"
	second := &models.Rating{ProductID: p.ID, UserID: newUserID(), Value: 4, Comment: &comment}
	require.NoError(t, s.UpsertRating(ctx, second))

	// Rating again replaces the earlier one.
	again := &models.Rating{ProductID: p.ID, UserID: second.UserID, Value: 2}
	require.NoError(t, s.UpsertRating(ctx, again))
	assert.Equal(t, second.ID, again.ID)
	assert.Equal(t, 2, again.Value)
	assert.Nil(t, again.Comment)

	ratings, err := s.ProductRatings(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)

	sum, err := s.RatingSummary(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Count)
	assert.True(t, sum.Average.Equal(decimal.RequireFromString("3.5")), "average %s", sum.Average)

	require.NoError(t, s.DeleteRating(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteRating(ctx, first.ID), apperr.ErrNotFound)
	_, err = s.Rating(ctx, first.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	sum, err = s.RatingSummary(ctx, seedProduct(t, s, "1.00").ID)
	require.NoError(t, err)
	assert.Zero(t, sum.Count)
	assert.True(t, sum.Average.IsZero())
}

func TestUpsertRating_UnknownProduct(t *testing.T) {
	s := newTestStore(t)
	err := s.UpsertRating(context.Background(), &models.Rating{ProductID: 999999999, UserID: newUserID(), Value: 3})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCart_AddIncrementsAndCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()
	p1 := seedProduct(t, s, "10.00")
	p2 := seedProduct(t, s, "5.00")

	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p1, 1)))
	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p1, 1)))
	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p2, 1)))

	count, err := s.CartCount(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	lines, err := s.CartLines(ctx, user)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, p1.ID, lines[0].ProductID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("10.00")))
}

func TestCart_SnapshotSurvivesPriceChange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()
	p := seedProduct(t, s, "100.00")

	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p, 1)))
	require.NoError(t, s.UpdateProductPrice(ctx, p.ID, decimal.RequireFromString("50.00")))

	lines, err := s.CartLines(ctx, user)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("100.00")))
}

func TestCart_SetQuantityDeleteClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()
	p := seedProduct(t, s, "10.00")

	found, err := s.SetCartLineQuantity(ctx, user, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p, 1)))
	found, err = s.SetCartLineQuantity(ctx, user, p.ID, 4)
	require.NoError(t, err)
	assert.True(t, found)

	// Same value again: MySQL reports no affected rows but the line exists.
	found, err = s.SetCartLineQuantity(ctx, user, p.ID, 4)
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, s.DeleteCartLine(ctx, user, p.ID))
	require.NoError(t, s.DeleteCartLine(ctx, user, p.ID))
	count, err := s.CartCount(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p, 2)))
	require.NoError(t, s.ClearCart(ctx, user))
	lines, err := s.CartLines(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCart_Replace(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()
	p1 := seedProduct(t, s, "10.00")
	p2 := seedProduct(t, s, "20.00")

	require.NoError(t, s.AddCartLine(ctx, cartLine(user, p1, 3)))
	require.NoError(t, s.ReplaceCart(ctx, cartLine(user, p2, 1)))

	lines, err := s.CartLines(ctx, user)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, p2.ID, lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestCreateOrder_WithLinesAndPendingPayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()
	p := seedProduct(t, s, "10.00")

	o := newPendingOrder(user,
		models.OrderLine{ProductID: p.ID, ProductName: p.Name, UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		models.OrderLine{ProductID: p.ID, ProductName: p.Name, UnitPrice: decimal.RequireFromString("5.00"), Quantity: 1},
	)
	pending := &models.PaymentRecord{
		Stage:         models.PaymentStagePending,
		UserID:        user,
		Amount:        o.TotalAmount,
		Status:        models.PaymentStatusPending,
		TransactionID: uuid.NewString(),
		PaymentDate:   time.Now().UTC(),
	}
	o.PaymentID = pending.TransactionID
	require.NoError(t, s.CreateOrder(ctx, o, pending))
	require.NotZero(t, o.ID)
	assert.Equal(t, o.ID, pending.OrderID)

	got, err := s.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, o.ID, got.Lines[0].OrderID)

	payments, err := s.PaymentsForOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, models.PaymentStagePending, payments[0].Stage)
}

func TestCreateOrder_RollsBackOnFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	// A reused transaction id fails the last insert, after the order and
	// its lines were already written.
	existing := uuid.NewString()
	first := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, first, &models.PaymentRecord{
		Stage: models.PaymentStagePending, UserID: user, Amount: first.TotalAmount,
		Status: models.PaymentStatusPending, TransactionID: existing, PaymentDate: time.Now().UTC(),
	}))

	second := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	err := s.CreateOrder(ctx, second, &models.PaymentRecord{
		Stage: models.PaymentStagePending, UserID: user, Amount: second.TotalAmount,
		Status: models.PaymentStatusPending, TransactionID: existing, PaymentDate: time.Now().UTC(),
	})
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Zero(t, second.ID)

	orders, err := s.ListOrders(ctx, models.OrderFilter{UserID: user})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestSettlePayment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	o := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(7), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, o, nil))

	rec := &models.PaymentRecord{
		Stage: models.PaymentStageResolved, UserID: user, Amount: o.TotalAmount,
		Status: models.PaymentStatusSuccess, TransactionID: uuid.NewString(), PaymentDate: time.Now().UTC(),
	}
	require.NoError(t, s.SettlePayment(ctx, o.ID, rec, models.OrderStatusProcessing))

	got, err := s.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, got.Status)
	assert.Equal(t, rec.TransactionID, got.PaymentID)

	again := *rec
	again.TransactionID = uuid.NewString()
	err = s.SettlePayment(ctx, o.ID, &again, models.OrderStatusCancelled)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	payments, err := s.PaymentsForOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestUpdateOrderStatus_Transitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	o := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(7), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, o, nil))

	assert.ErrorIs(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusShipped), apperr.ErrInvalidState)
	// Only a successful payment marks an order as Processing.
	assert.ErrorIs(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusProcessing), apperr.ErrInvalidState)
	got, err := s.Order(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)

	rec := models.PaymentRecord{
		Stage:         models.PaymentStageResolved,
		UserID:        user,
		Amount:        o.TotalAmount,
		Status:        models.PaymentStatusSuccess,
		TransactionID: uuid.NewString(),
		PaymentDate:   time.Now().UTC(),
	}
	require.NoError(t, s.SettlePayment(ctx, o.ID, &rec, models.OrderStatusProcessing))
	require.NoError(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusShipped))
	require.NoError(t, s.UpdateOrderStatus(ctx, o.ID, models.OrderStatusDelivered))
	assert.ErrorIs(t, s.UpdateOrderStatus(ctx, 999999999, models.OrderStatusShipped), apperr.ErrNotFound)

	unpaid := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(7), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, unpaid, nil))
	require.NoError(t, s.UpdateOrderStatus(ctx, unpaid.ID, models.OrderStatusCancelled))
}

func TestListOrders_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	tv := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "Plasma Deluxe", UnitPrice: decimal.NewFromInt(7), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, tv, nil))
	old := newPendingOrder(user, models.OrderLine{ProductID: 2, ProductName: "Remote", UnitPrice: decimal.NewFromInt(3), Quantity: 1})
	old.OrderDate = time.Now().UTC().AddDate(0, 0, -40)
	require.NoError(t, s.CreateOrder(ctx, old, nil))
	require.NoError(t, s.UpdateOrderStatus(ctx, old.ID, models.OrderStatusCancelled))

	all, err := s.ListOrders(ctx, models.OrderFilter{UserID: user})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, tv.ID, all[0].ID, "newest first")
	assert.Len(t, all[1].Lines, 1)

	recent, err := s.ListOrders(ctx, models.OrderFilter{UserID: user, Days: 30})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, tv.ID, recent[0].ID)

	cancelled, err := s.ListOrders(ctx, models.OrderFilter{UserID: user, Status: models.OrderStatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, old.ID, cancelled[0].ID)

	search, err := s.ListOrders(ctx, models.OrderFilter{UserID: user, Search: "plasma"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, tv.ID, search[0].ID)
}

func TestOrderForUser_HidesOtherUsersOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newUserID()

	o := newPendingOrder(owner, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, o, nil))

	_, err := s.OrderForUser(ctx, o.ID, owner)
	require.NoError(t, err)
	_, err = s.OrderForUser(ctx, o.ID, newUserID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCancelStalePendingOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	stale := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	stale.OrderDate = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.CreateOrder(ctx, stale, nil))
	fresh := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(1), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, fresh, nil))

	n, err := s.CancelStalePendingOrders(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	got, err := s.Order(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	got, err = s.Order(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, got.Status)
}

func TestInvoice_UniquePerOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	user := newUserID()

	o := newPendingOrder(user, models.OrderLine{ProductID: 1, ProductName: "x", UnitPrice: decimal.NewFromInt(9), Quantity: 1})
	require.NoError(t, s.CreateOrder(ctx, o, nil))

	_, err := s.InvoiceByOrder(ctx, o.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	inv := &models.Invoice{
		OrderID: o.ID, UserID: user, InvoiceDate: time.Now().UTC(),
		InvoiceNumber: fmt.Sprintf("INV-TEST-%d", o.ID), TotalAmount: o.TotalAmount,
	}
	require.NoError(t, s.CreateInvoice(ctx, inv))

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dup := *inv
			dup.ID = 0
			dup.InvoiceNumber = fmt.Sprintf("INV-TEST-%d-%d", o.ID, i)
			errs[i] = s.CreateInvoice(ctx, &dup)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrDuplicate)
	}

	got, err := s.InvoiceByOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
}
