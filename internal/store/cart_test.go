package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/esdaly/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func item(id string, price int64, stock int) domain.CatalogItem {
	return domain.CatalogItem{
		ID:    id,
		Name:  "product " + id,
		Price: decimal.NewFromInt(price),
		Image: "https://cdn.example.com/" + id + ".jpg",
		Stock: domain.TrackedStock(stock),
	}
}

type fakeStock map[string]int

func (f fakeStock) Available(id string) (int, bool) {
	n, ok := f[id]
	return n, ok
}

func TestCartStore_AddItem_MergesLines(t *testing.T) {
	cart := NewCartStore(nil, nil)

	require.NoError(t, cart.AddItem(item("p1", 100, 5), 1))
	require.NoError(t, cart.AddItem(item("p1", 100, 5), 1))

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p1", lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, 2, cart.Count())
}

func TestCartStore_AddItem_NonPositiveQuantityAddsOne(t *testing.T) {
	cart := NewCartStore(nil, nil)

	require.NoError(t, cart.AddItem(item("p1", 100, 5), 0))
	require.NoError(t, cart.AddItem(item("p1", 100, 5), -3))

	line, ok := cart.Line("p1")
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
}

func TestCartStore_AddItem_RejectsOverStock(t *testing.T) {
	cart := NewCartStore(nil, nil)
	require.NoError(t, cart.AddItem(item("p1", 100, 5), 2))

	var changes int
	cart.Subscribe(func(Change[domain.CartLine]) { changes++ })

	err := cart.AddItem(item("p1", 100, 5), 4)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Available)
	assert.Equal(t, 2, stockErr.InCart)
	assert.Equal(t, 4, stockErr.Requested)

	line, _ := cart.Line("p1")
	assert.Equal(t, 2, line.Quantity)
	assert.Zero(t, changes, "rejected add must not notify")
}

func TestCartStore_AddItem_UntrackedStock(t *testing.T) {
	cart := NewCartStore(nil, nil)
	it := item("p1", 10, 0)
	it.Stock = domain.StockInfo{}

	require.NoError(t, cart.AddItem(it, domain.UntrackedStockLimit))
	err := cart.AddItem(it, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestCartStore_AddItem_InvalidItem(t *testing.T) {
	cart := NewCartStore(nil, nil)
	assert.ErrorIs(t, cart.AddItem(domain.CatalogItem{Name: "no id"}, 1), ErrInvalidItem)
	assert.Empty(t, cart.Lines())
}

func TestCartStore_AddItem_RefreshesStockSnapshot(t *testing.T) {
	cart := NewCartStore(nil, nil)
	require.NoError(t, cart.AddItem(item("p1", 100, 5), 1))
	require.NoError(t, cart.AddItem(item("p1", 100, 3), 1))

	line, _ := cart.Line("p1")
	assert.Equal(t, 3, line.Stock.Quantity)
}

func TestCartStore_UpdateQuantity_FloorRemovesLine(t *testing.T) {
	for _, qty := range []int{0, -1} {
		cart := NewCartStore(nil, nil)
		require.NoError(t, cart.AddItem(item("p1", 100, 5), 2))

		require.NoError(t, cart.UpdateQuantity("p1", qty))
		assert.Empty(t, cart.Lines(), "quantity %d", qty)
	}
}

func TestCartStore_UpdateQuantity_ChecksStockSource(t *testing.T) {
	stock := fakeStock{"p1": 3}
	cart := NewCartStore(stock, nil)
	require.NoError(t, cart.AddItem(item("p1", 100, 10), 1))

	err := cart.UpdateQuantity("p1", 4)
	require.ErrorIs(t, err, ErrInsufficientStock)

	require.NoError(t, cart.UpdateQuantity("p1", 3))
	line, _ := cart.Line("p1")
	assert.Equal(t, 3, line.Quantity)
}

func TestCartStore_UpdateQuantity_FallsBackToSnapshot(t *testing.T) {
	cart := NewCartStore(fakeStock{}, nil)
	require.NoError(t, cart.AddItem(item("p1", 100, 2), 1))

	assert.ErrorIs(t, cart.UpdateQuantity("p1", 3), ErrInsufficientStock)
	assert.NoError(t, cart.UpdateQuantity("p1", 2))
}

func TestCartStore_UnknownProductIsNoop(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cart := NewCartStore(nil, zap.New(core))

	var changes int
	cart.Subscribe(func(Change[domain.CartLine]) { changes++ })

	cart.RemoveItem("missing")
	require.NoError(t, cart.UpdateQuantity("missing", 3))

	assert.Zero(t, changes)
	assert.Equal(t, 2, logs.Len())
}

func TestCartStore_Replace_CleansLines(t *testing.T) {
	cart := NewCartStore(nil, nil)
	cart.Replace([]domain.CartLine{
		domain.NewCartLine(item("p1", 100, 5), 1),
		domain.NewCartLine(item("", 100, 5), 1),
		domain.NewCartLine(item("p2", 50, 5), 0),
		domain.NewCartLine(item("p1", 100, 5), 2),
	})

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestCartStore_Replace_ClampsToStock(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cart := NewCartStore(fakeStock{"p3": 0}, zap.New(core))

	cart.Replace([]domain.CartLine{
		domain.NewCartLine(item("p1", 100, 4), 3),
		domain.NewCartLine(item("p1", 100, 4), 3),
		domain.NewCartLine(item("p2", 50, 10), 2),
		domain.NewCartLine(item("p3", 70, 5), 1),
	})

	lines := cart.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ID)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, "p2", lines[1].ID)
	assert.Equal(t, 2, lines[1].Quantity)

	assert.Equal(t, 2, logs.FilterMessage("cart line exceeds available stock").Len())
}

func TestCartStore_Totals(t *testing.T) {
	cart := NewCartStore(nil, nil)
	require.NoError(t, cart.AddItem(item("p1", 1000, 5), 2))

	totals := cart.Totals()
	assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, totals.Shipping.Equal(decimal.NewFromInt(30)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(2030)))
}

func TestCartStore_SnapshotIsolation(t *testing.T) {
	cart := NewCartStore(nil, nil)
	it := item("p1", 100, 5)
	require.NoError(t, cart.AddItem(it, 1))

	it.Name = "renamed"
	lines := cart.Lines()
	lines[0].Quantity = 99

	line, _ := cart.Line("p1")
	assert.Equal(t, "product p1", line.Name)
	assert.Equal(t, 1, line.Quantity)
}

func TestCartStore_SubscribersSeeMutationOrder(t *testing.T) {
	cart := NewCartStore(nil, nil)

	var mu sync.Mutex
	var counts []int
	unsubscribe := cart.Subscribe(func(c Change[domain.CartLine]) {
		mu.Lock()
		defer mu.Unlock()
		n := 0
		for _, l := range c.Items {
			n += l.Quantity
		}
		counts = append(counts, n)
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = cart.AddItem(item("p1", 10, 100), 1)
		}()
	}
	wg.Wait()

	require.Len(t, counts, 20)
	for i, n := range counts {
		assert.Equal(t, i+1, n)
	}
}

func TestCartStore_Unsubscribe(t *testing.T) {
	cart := NewCartStore(nil, nil)

	var changes int
	unsubscribe := cart.Subscribe(func(Change[domain.CartLine]) { changes++ })
	require.NoError(t, cart.AddItem(item("p1", 10, 5), 1))
	unsubscribe()
	unsubscribe()
	cart.Clear()

	assert.Equal(t, 1, changes)
}

func TestCartStore_ClearEmitsEmptyChange(t *testing.T) {
	cart := NewCartStore(nil, nil)
	require.NoError(t, cart.AddItem(item("p1", 10, 5), 1))

	var last Change[domain.CartLine]
	cart.Subscribe(func(c Change[domain.CartLine]) { last = c })
	cart.Clear()

	assert.Equal(t, domain.KeyCart, last.Key)
	assert.True(t, last.Empty())
}
