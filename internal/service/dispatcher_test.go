package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustylads/internal/domain"
	"trustylads/internal/repository"
)

func newDispatcherFixture() (*Dispatcher, *CartService, *CheckoutService) {
	catalog := testCatalog()
	carts := NewCartService(catalog)
	orders := repository.NewMemoryOrders(nil)
	promos := testPromos()
	cfg := CheckoutConfig{Currency: "₹"}
	checkout := NewCheckoutService(carts, orders, promos, cfg)
	return NewDispatcher(catalog, carts, checkout, orders, promos, cfg), carts, checkout
}

func TestDispatch_BrowseAndAdd(t *testing.T) {
	d, carts, _ := newDispatcherFixture()
	ctx := context.Background()

	resp := d.Dispatch(ctx, choiceEv(1, domain.ChoiceBrowse))
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "category:grooming", resp.Choices[0].ID)

	resp = d.Dispatch(ctx, choiceEv(1, "category:grooming"))
	assert.Contains(t, resp.Text, "Hair Oil")
	require.NotEmpty(t, resp.Choices)
	assert.Equal(t, "add:grooming:hair_oil", resp.Choices[0].ID)

	resp = d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	assert.Contains(t, resp.Text, "added to cart")
	assert.Equal(t, 149.0, carts.Total(1))
}

func TestDispatch_StaleAddButton(t *testing.T) {
	d, carts, _ := newDispatcherFixture()

	resp := d.Dispatch(context.Background(), choiceEv(1, "add:grooming:discontinued"))
	assert.Contains(t, resp.Text, "unavailable")
	assert.True(t, carts.Empty(1))
}

func TestDispatch_CartView(t *testing.T) {
	d, _, _ := newDispatcherFixture()
	ctx := context.Background()

	resp := d.Dispatch(ctx, choiceEv(1, domain.ChoiceCart))
	assert.Contains(t, resp.Text, "empty")
	assert.Empty(t, resp.Choices)

	d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	resp = d.Dispatch(ctx, choiceEv(1, domain.ChoiceCart))
	assert.Contains(t, resp.Text, "Hair Oil")
	require.Len(t, resp.Choices, 2)
	assert.Equal(t, domain.ChoiceCheckout, resp.Choices[0].ID)
	assert.Equal(t, domain.ChoiceClearCart, resp.Choices[1].ID)
}

func TestDispatch_CheckoutEmptyCart(t *testing.T) {
	d, _, checkout := newDispatcherFixture()

	resp := d.Dispatch(context.Background(), choiceEv(1, domain.ChoiceCheckout))
	assert.Contains(t, resp.Text, "empty")
	assert.Equal(t, domain.StageNone, checkout.Stage(1))
}

func TestDispatch_TextRoutesToActiveCheckout(t *testing.T) {
	d, _, checkout := newDispatcherFixture()
	ctx := context.Background()

	d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoiceCheckout))
	require.Equal(t, domain.StageName, checkout.Stage(1))

	d.Dispatch(ctx, textEv(1, "Asha Singh"))
	assert.Equal(t, domain.StagePhone, checkout.Stage(1))
}

func TestDispatch_NavigationCancelsCheckout(t *testing.T) {
	d, carts, checkout := newDispatcherFixture()
	ctx := context.Background()

	d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoiceCheckout))
	require.True(t, checkout.Active(1))

	resp := d.Dispatch(ctx, choiceEv(1, domain.ChoiceBrowse))
	assert.Contains(t, resp.Text, "Checkout cancelled")
	assert.False(t, checkout.Active(1), "navigation mid-checkout resets the session")
	assert.False(t, carts.Empty(1), "the cart is untouched by the implicit cancel")
}

func TestDispatch_StartResetsUser(t *testing.T) {
	d, carts, checkout := newDispatcherFixture()
	ctx := context.Background()

	d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoiceCheckout))

	resp := d.Dispatch(ctx, choiceEv(1, domain.ChoiceStart))
	assert.Contains(t, resp.Text, "Welcome")
	assert.True(t, carts.Empty(1))
	assert.False(t, checkout.Active(1))
}

func TestDispatch_UnknownText(t *testing.T) {
	d, _, _ := newDispatcherFixture()

	resp := d.Dispatch(context.Background(), textEv(1, "hello?"))
	assert.Contains(t, resp.Text, "didn't understand")
}

func TestDispatch_Offers(t *testing.T) {
	d, _, _ := newDispatcherFixture()

	resp := d.Dispatch(context.Background(), choiceEv(1, domain.ChoiceOffers))
	assert.Contains(t, resp.Text, "BULK1000")
	assert.Contains(t, resp.Text, "DIWALI150")
}

func TestDispatch_OrderHistory(t *testing.T) {
	d, _, _ := newDispatcherFixture()
	ctx := context.Background()

	resp := d.Dispatch(ctx, choiceEv(1, domain.ChoiceOrders))
	assert.Contains(t, resp.Text, "no orders")

	d.Dispatch(ctx, choiceEv(1, "add:grooming:hair_oil"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoiceCheckout))
	d.Dispatch(ctx, textEv(1, "Asha Singh"))
	d.Dispatch(ctx, textEv(1, "9876543210"))
	d.Dispatch(ctx, textEv(1, "12 MG Road, Bangalore, 560001"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoicePayCOD))
	d.Dispatch(ctx, textEv(1, "SKIP"))
	d.Dispatch(ctx, choiceEv(1, domain.ChoiceConfirm))

	resp = d.Dispatch(ctx, choiceEv(1, domain.ChoiceOrders))
	assert.Contains(t, resp.Text, "TL-")
	assert.Contains(t, resp.Text, "₹149.00")
}

func TestDispatch_SameUserEventsSerialized(t *testing.T) {
	d, carts, _ := newDispatcherFixture()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			d.Dispatch(ctx, choiceEv(7, "add:grooming:hair_oil"))
		}()
	}
	wg.Wait()

	lines := carts.Lines(7)
	require.Len(t, lines, 1)
	assert.Equal(t, n, lines[0].Quantity, "concurrent adds for one user must not lose increments")
}
