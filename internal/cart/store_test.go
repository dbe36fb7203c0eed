package cart_test

import (
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/gramseva/internal/cart"
	"github.com/vladislavdragonenkov/gramseva/internal/domain"
)

func riceProduct() domain.Product {
	return domain.Product{
		ID:       "1",
		Name:     "Organic Rice",
		Price:    "₹45/kg",
		Category: "Grains",
		InStock:  true,
	}
}

func milkProduct() domain.Product {
	return domain.Product{
		ID:       "2",
		Name:     "Fresh Milk",
		Price:    "₹35/liter",
		Category: "Dairy",
		InStock:  true,
	}
}

func TestAddItemIncrementsQuantity(t *testing.T) {
	store := cart.NewStore()

	for i := 0; i < 5; i++ {
		if err := store.AddItem(riceProduct()); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	if got := store.TotalItems(); got != 5 {
		t.Fatalf("expected 5 units, got %d", got)
	}
	snap := store.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected a single line item, got %d", len(snap.Items))
	}
	if snap.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", snap.Items[0].Quantity)
	}
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add rice failed: %v", err)
	}
	if err := store.AddItem(milkProduct()); err != nil {
		t.Fatalf("add milk failed: %v", err)
	}
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add rice again failed: %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != "1" || snap.Items[1].ID != "2" {
		t.Fatalf("insertion order broken: %v", snap.Items)
	}
}

func TestAddItemRefusesOutOfStock(t *testing.T) {
	store := cart.NewStore()
	product := riceProduct()
	product.InStock = false

	if err := store.AddItem(product); !errors.Is(err, domain.ErrProductOutOfStock) {
		t.Fatalf("expected ErrProductOutOfStock, got %v", err)
	}
	if got := store.TotalItems(); got != 0 {
		t.Fatalf("cart must stay empty, got %d units", got)
	}
}

func TestAddItemRefusesUnparsablePrice(t *testing.T) {
	store := cart.NewStore()
	product := riceProduct()
	product.Price = "call us"
	product.PriceMinor = 0

	if err := store.AddItem(product); !errors.Is(err, domain.ErrPriceUnparsable) {
		t.Fatalf("expected ErrPriceUnparsable, got %v", err)
	}
	if got := store.TotalItems(); got != 0 {
		t.Fatalf("cart must stay empty, got %d units", got)
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	store.UpdateQuantity("1", 0)
	if len(store.Snapshot().Items) != 0 {
		t.Fatal("quantity 0 must remove the item")
	}

	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	store.UpdateQuantity("1", -5)
	if len(store.Snapshot().Items) != 0 {
		t.Fatal("negative quantity must remove the item")
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	store.RemoveItem("missing")
	store.UpdateQuantity("missing", 3)

	snap := store.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Quantity != 1 {
		t.Fatalf("cart changed unexpectedly: %v", snap.Items)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	store.Clear()
	store.Clear()

	if len(store.Snapshot().Items) != 0 {
		t.Fatal("cart must be empty after clear")
	}
}

func TestClearKeepsPanelState(t *testing.T) {
	store := cart.NewStore()
	store.Open()
	store.Clear()

	if !store.Snapshot().IsOpen {
		t.Fatal("clear must not close the panel")
	}
}

func TestTotalPrice(t *testing.T) {
	store := cart.NewStore()
	// "₹45/kg" ×2 и "₹35/liter" ×1 = 125.00
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.AddItem(milkProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if got := store.TotalPriceMinor(); got != 12500 {
		t.Fatalf("expected 12500 paise, got %d", got)
	}
	if got := domain.FormatAmountMinor(store.TotalPriceMinor()); got != "₹125.00" {
		t.Fatalf("expected ₹125.00, got %s", got)
	}
}

func TestScenarioAddUpdateTotals(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := store.AddItem(milkProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	store.UpdateQuantity("1", 3)

	snap := store.Snapshot()
	if len(snap.Items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != "1" || snap.Items[0].Quantity != 3 {
		t.Fatalf("unexpected first item: %+v", snap.Items[0])
	}
	if snap.Items[1].ID != "2" || snap.Items[1].Quantity != 1 {
		t.Fatalf("unexpected second item: %+v", snap.Items[1])
	}
	if snap.TotalItems != 4 {
		t.Fatalf("expected 4 units, got %d", snap.TotalItems)
	}
	// 45*3 + 35 = 170
	if snap.TotalPriceMinor != 17000 {
		t.Fatalf("expected 17000 paise, got %d", snap.TotalPriceMinor)
	}
}

func TestSubscriberSeesConsistentSnapshots(t *testing.T) {
	store := cart.NewStore()

	var seen []cart.Snapshot
	cancel := store.Subscribe(func(snap cart.Snapshot) {
		seen = append(seen, snap)
	})
	defer cancel()

	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	store.UpdateQuantity("1", 2)
	store.RemoveItem("1")

	if len(seen) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(seen))
	}
	if seen[0].TotalItems != 1 || seen[1].TotalItems != 2 || seen[2].TotalItems != 0 {
		t.Fatalf("unexpected snapshots: %+v", seen)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := cart.NewStore()

	count := 0
	cancel := store.Subscribe(func(cart.Snapshot) { count++ })

	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	cancel()
	store.Clear()

	if count != 1 {
		t.Fatalf("expected 1 notification after unsubscribe, got %d", count)
	}
}

func TestSnapshotIsImmutable(t *testing.T) {
	store := cart.NewStore()
	if err := store.AddItem(riceProduct()); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	snap := store.Snapshot()
	snap.Items[0].Quantity = 99

	if got := store.TotalItems(); got != 1 {
		t.Fatalf("mutating a snapshot must not affect the store, got %d units", got)
	}
}

func TestManagerKeysCartsBySession(t *testing.T) {
	manager := cart.NewManager()

	a := manager.Get("session-a")
	b := manager.Get("session-b")
	if a == b {
		t.Fatal("different sessions must get different carts")
	}
	if manager.Get("session-a") != a {
		t.Fatal("same session must get the same cart")
	}

	manager.Drop("session-a")
	if manager.Get("session-a") == a {
		t.Fatal("dropped session must get a fresh cart")
	}
}
