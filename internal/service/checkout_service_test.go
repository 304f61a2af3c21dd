package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustylads/internal/domain"
	"trustylads/internal/repository"
)

func testPromos() []domain.PromoCode {
	return []domain.PromoCode{
		{Code: "BULK1000", Kind: domain.PromoPercent, Value: 10, MinOrder: 1000},
		{Code: "DIWALI150", Kind: domain.PromoFixed, Value: 150, MinOrder: 1500},
		{Code: "FLAT2000", Kind: domain.PromoFixed, Value: 2000},
	}
}

func newCheckoutFixture() (*CartService, *CheckoutService, *repository.MemoryOrders) {
	carts := NewCartService(testCatalog())
	orders := repository.NewMemoryOrders(nil)
	checkout := NewCheckoutService(carts, orders, testPromos(), CheckoutConfig{Currency: "₹"})
	return carts, checkout, orders
}

func textEv(userID int64, text string) domain.Event {
	return domain.Event{Kind: domain.EventText, UserID: userID, UserName: "Asha", Text: text}
}

func choiceEv(userID int64, id string) domain.Event {
	return domain.Event{Kind: domain.EventChoice, UserID: userID, UserName: "Asha", ChoiceID: id}
}

func TestStart_EmptyCart(t *testing.T) {
	_, checkout, _ := newCheckoutFixture()

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, domain.StageNone, checkout.Stage(1), "machine stays idle on empty cart")
}

func TestCheckout_HappyPath(t *testing.T) {
	carts, checkout, orders := newCheckoutFixture()
	ctx := context.Background()

	mustAdd(t, carts, 1, "hair_oil")
	mustAdd(t, carts, 1, "hair_oil")
	mustAdd(t, carts, 1, "beard_balm")
	require.Equal(t, 437.0, carts.Total(1))
	wantItems := carts.Lines(1)

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	require.NoError(t, err)
	require.Equal(t, domain.StageName, checkout.Stage(1))

	checkout.Handle(ctx, textEv(1, "Asha Singh"))
	require.Equal(t, domain.StagePhone, checkout.Stage(1))

	checkout.Handle(ctx, textEv(1, "9876543210"))
	require.Equal(t, domain.StageAddress, checkout.Stage(1))

	checkout.Handle(ctx, textEv(1, "12 MG Road, Bangalore, 560001"))
	require.Equal(t, domain.StagePayment, checkout.Stage(1))

	checkout.Handle(ctx, choiceEv(1, domain.ChoicePayCOD))
	require.Equal(t, domain.StagePromo, checkout.Stage(1))

	checkout.Handle(ctx, textEv(1, "SKIP"))
	require.Equal(t, domain.StageConfirm, checkout.Stage(1))

	resp := checkout.Handle(ctx, choiceEv(1, domain.ChoiceConfirm))
	assert.Contains(t, resp.Text, "Order confirmed")
	assert.Equal(t, domain.StageNone, checkout.Stage(1))
	assert.True(t, carts.Empty(1), "cart is emptied on successful checkout")

	saved, err := orders.ListForUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	o := saved[0]
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, wantItems, o.Items, "order holds the pre-confirmation cart snapshot")
	assert.Equal(t, 437.0, o.Subtotal)
	assert.Equal(t, 0.0, o.Discount)
	assert.Equal(t, 437.0, o.Total)
	assert.Equal(t, "Asha Singh", o.CustomerName)
	assert.Equal(t, "9876543210", o.Phone)
	assert.Equal(t, "12 MG Road, Bangalore, 560001", o.Address)
	assert.Equal(t, domain.PaymentCashOnDelivery, o.PaymentMethod)
	assert.Empty(t, o.PromoCode)
	assert.Equal(t, domain.OrderStatusConfirmed, o.Status)
}

func TestValidation_KeepsCollectedFields(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	require.NoError(t, err)
	checkout.Handle(ctx, textEv(1, "Asha Singh"))

	// rejected phone: same stage, name untouched
	checkout.Handle(ctx, textEv(1, "not-a-phone"))
	assert.Equal(t, domain.StagePhone, checkout.Stage(1))
	assert.Equal(t, "Asha Singh", checkout.sessions[1].Name)

	// rejected name earlier in the flow
	checkout.Handle(ctx, choiceEv(1, domain.ChoiceEdit)) // not valid at phone stage, stays put
	assert.Equal(t, domain.StagePhone, checkout.Stage(1))
}

func TestValidation_RePrompts(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	require.NoError(t, err)

	checkout.Handle(ctx, textEv(1, "A"))
	assert.Equal(t, domain.StageName, checkout.Stage(1), "single rune name is rejected")

	checkout.Handle(ctx, textEv(1, "Asha Singh"))
	checkout.Handle(ctx, textEv(1, "12345"))
	assert.Equal(t, domain.StagePhone, checkout.Stage(1), "too few digits")
	checkout.Handle(ctx, textEv(1, "+91 98765-43210"))
	assert.Equal(t, domain.StageAddress, checkout.Stage(1), "spaces and dashes are stripped")

	checkout.Handle(ctx, textEv(1, "short"))
	assert.Equal(t, domain.StageAddress, checkout.Stage(1), "short address is rejected")
}

func TestPayment_DisabledMethod(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	require.NoError(t, err)
	checkout.Handle(ctx, textEv(1, "Asha Singh"))
	checkout.Handle(ctx, textEv(1, "9876543210"))
	checkout.Handle(ctx, textEv(1, "12 MG Road, Bangalore, 560001"))

	// online payment is listed but has no gateway yet
	resp := checkout.Handle(ctx, choiceEv(1, domain.ChoicePayOnline))
	assert.Contains(t, resp.Text, "not yet available")
	assert.Equal(t, domain.StagePayment, checkout.Stage(1))

	checkout.Handle(ctx, choiceEv(1, domain.ChoicePayCOD))
	assert.Equal(t, domain.StagePromo, checkout.Stage(1))
}

func TestPromo_MinimumBoundary(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	ctx := context.Background()

	// 3 x 333.33 = 999.99: one paisa under the minimum
	for i := 0; i < 3; i++ {
		mustAdd(t, carts, 1, "third")
	}
	advanceToPromo(t, checkout, 1)

	resp := checkout.Handle(ctx, textEv(1, "BULK1000"))
	assert.Contains(t, resp.Text, "minimum order")
	assert.Equal(t, domain.StagePromo, checkout.Stage(1))

	// 4 x 250 = 1000.00 exactly: boundary is inclusive
	for i := 0; i < 4; i++ {
		mustAdd(t, carts, 2, "quarter")
	}
	advanceToPromo(t, checkout, 2)
	checkout.Handle(ctx, textEv(2, "BULK1000"))
	assert.Equal(t, domain.StageConfirm, checkout.Stage(2))
}

func TestPromo_UnknownCodeThenSkip(t *testing.T) {
	carts, checkout, orders := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")
	advanceToPromo(t, checkout, 1)

	resp := checkout.Handle(ctx, textEv(1, "NOSUCHCODE"))
	assert.Contains(t, resp.Text, "doesn't exist")
	assert.Equal(t, domain.StagePromo, checkout.Stage(1))

	checkout.Handle(ctx, choiceEv(1, domain.ChoicePromoSkip))
	require.Equal(t, domain.StageConfirm, checkout.Stage(1))
	checkout.Handle(ctx, choiceEv(1, domain.ChoiceConfirm))

	saved, err := orders.ListForUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 0.0, saved[0].Discount)
}

func TestPromo_FixedDiscount(t *testing.T) {
	carts, checkout, orders := newCheckoutFixture()
	ctx := context.Background()

	mustAdd(t, carts, 1, "big") // 1600.00
	advanceToPromo(t, checkout, 1)
	checkout.Handle(ctx, textEv(1, "DIWALI150"))
	require.Equal(t, domain.StageConfirm, checkout.Stage(1))
	checkout.Handle(ctx, choiceEv(1, domain.ChoiceConfirm))

	saved, err := orders.ListForUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 1600.0, saved[0].Subtotal)
	assert.Equal(t, 150.0, saved[0].Discount)
	assert.Equal(t, 1450.0, saved[0].Total)
	assert.Equal(t, "DIWALI150", saved[0].PromoCode)
}

func TestPromo_DiscountNeverNegative(t *testing.T) {
	carts, checkout, orders := newCheckoutFixture()
	ctx := context.Background()

	mustAdd(t, carts, 1, "hair_oil") // 149.00, FLAT2000 takes it to zero, not below
	advanceToPromo(t, checkout, 1)
	checkout.Handle(ctx, textEv(1, "FLAT2000"))
	require.Equal(t, domain.StageConfirm, checkout.Stage(1))
	checkout.Handle(ctx, choiceEv(1, domain.ChoiceConfirm))

	saved, err := orders.ListForUser(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 0.0, saved[0].Total)
}

func TestConfirm_EditRestarts(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")
	advanceToPromo(t, checkout, 1)
	checkout.Handle(ctx, textEv(1, "SKIP"))
	require.Equal(t, domain.StageConfirm, checkout.Stage(1))

	checkout.Handle(ctx, choiceEv(1, domain.ChoiceEdit))
	assert.Equal(t, domain.StageName, checkout.Stage(1))
	assert.Empty(t, checkout.sessions[1].Name, "collected fields are discarded on edit")
	assert.False(t, carts.Empty(1), "cart survives the restart")
}

func TestConfirm_EmptiedCartCancels(t *testing.T) {
	carts, checkout, orders := newCheckoutFixture()
	ctx := context.Background()
	mustAdd(t, carts, 1, "hair_oil")
	advanceToPromo(t, checkout, 1)
	checkout.Handle(ctx, textEv(1, "SKIP"))

	// cart invalidated behind the session's back
	carts.Clear(1)

	resp := checkout.Handle(ctx, choiceEv(1, domain.ChoiceConfirm))
	assert.Contains(t, resp.Text, "cancelled")
	assert.Equal(t, domain.StageNone, checkout.Stage(1))
	saved, err := orders.ListForUser(ctx, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, saved, "no order is ever created from an empty cart")
}

func TestCancel(t *testing.T) {
	carts, checkout, _ := newCheckoutFixture()
	mustAdd(t, carts, 1, "hair_oil")

	_, err := checkout.Start(choiceEv(1, domain.ChoiceCheckout))
	require.NoError(t, err)

	assert.True(t, checkout.Cancel(1))
	assert.Equal(t, domain.StageNone, checkout.Stage(1))
	assert.False(t, carts.Empty(1), "cancel leaves the cart alone")
	assert.False(t, checkout.Cancel(1), "nothing left to cancel")
}

// advanceToPromo walks a user through name, phone, address and payment.
func advanceToPromo(t *testing.T, checkout *CheckoutService, userID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := checkout.Start(choiceEv(userID, domain.ChoiceCheckout))
	require.NoError(t, err)
	checkout.Handle(ctx, textEv(userID, "Asha Singh"))
	checkout.Handle(ctx, textEv(userID, "9876543210"))
	checkout.Handle(ctx, textEv(userID, "12 MG Road, Bangalore, 560001"))
	checkout.Handle(ctx, choiceEv(userID, domain.ChoicePayCOD))
	require.Equal(t, domain.StagePromo, checkout.Stage(userID))
}
