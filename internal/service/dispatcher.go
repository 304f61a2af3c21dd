package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"trustylads/internal/domain"
	"trustylads/internal/repository"
)

// userLocks hands out one mutex per user id. The guard lock is held only to
// fetch the per-user mutex, so users never serialize against each other.
type userLocks struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

func (l *userLocks) get(userID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.m == nil {
		l.m = make(map[int64]*sync.Mutex)
	}
	lock, ok := l.m[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.m[userID] = lock
	}
	return lock
}

// Dispatcher routes inbound events into the cart, catalog and checkout
// services. Events for one user are handled strictly in order; events for
// different users proceed concurrently.
type Dispatcher struct {
	catalog  *Catalog
	carts    *CartService
	checkout *CheckoutService
	orders   repository.OrderRepository
	promos   []domain.PromoCode
	cfg      CheckoutConfig

	locks userLocks
}

func NewDispatcher(catalog *Catalog, carts *CartService, checkout *CheckoutService, orders repository.OrderRepository, promos []domain.PromoCode, cfg CheckoutConfig) *Dispatcher {
	return &Dispatcher{
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		promos:   promos,
		cfg:      cfg.normalized(),
	}
}

// Dispatch handles one event and returns the reply. It never panics out: an
// internal fault logs, resets the user's checkout session and answers with a
// generic failure, so a session can never stay wedged.
func (d *Dispatcher) Dispatch(ctx context.Context, ev domain.Event) (resp domain.Response) {
	lock := d.locks.get(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling event", "user_id", ev.UserID, "panic", r)
			d.checkout.Cancel(ev.UserID)
			resp = domain.Response{Text: "Something went wrong on our side. Please try again."}
		}
	}()

	if d.checkout.Active(ev.UserID) {
		if ev.Kind == domain.EventChoice && isNavigation(ev.ChoiceID) {
			// navigating away mid-checkout is an implicit cancel: session
			// is discarded, the cart stays as it was
			d.checkout.Cancel(ev.UserID)
			r := d.dispatchIdle(ctx, ev)
			r.Text = "Checkout cancelled.\n\n" + r.Text
			return r
		}
		return d.checkout.Handle(ctx, ev)
	}
	return d.dispatchIdle(ctx, ev)
}

// isNavigation reports whether a choice id belongs to the main menu or the
// catalog rather than to the checkout dialogue.
func isNavigation(choiceID string) bool {
	switch choiceID {
	case domain.ChoiceStart, domain.ChoiceHelp, domain.ChoiceBrowse, domain.ChoiceCategories,
		domain.ChoiceCart, domain.ChoiceClearCart, domain.ChoiceOrders,
		domain.ChoiceAbout, domain.ChoiceContact, domain.ChoiceOffers:
		return true
	}
	return strings.HasPrefix(choiceID, "category:") || strings.HasPrefix(choiceID, "add:")
}

func (d *Dispatcher) dispatchIdle(ctx context.Context, ev domain.Event) domain.Response {
	if ev.Kind == domain.EventText {
		return domain.Response{Text: "Sorry, I didn't understand that. Please use the menu buttons or type /start."}
	}

	switch {
	case ev.ChoiceID == domain.ChoiceStart:
		return d.handleStart(ev)
	case ev.ChoiceID == domain.ChoiceHelp:
		return domain.Response{Text: helpText}
	case ev.ChoiceID == domain.ChoiceBrowse || ev.ChoiceID == domain.ChoiceCategories:
		return d.categoryMenu()
	case strings.HasPrefix(ev.ChoiceID, "category:"):
		return d.productMenu(strings.TrimPrefix(ev.ChoiceID, "category:"))
	case strings.HasPrefix(ev.ChoiceID, "add:"):
		return d.handleAdd(ev)
	case ev.ChoiceID == domain.ChoiceCart:
		return d.cartView(ev.UserID)
	case ev.ChoiceID == domain.ChoiceClearCart:
		d.carts.Clear(ev.UserID)
		return domain.Response{Text: "Your cart has been cleared."}
	case ev.ChoiceID == domain.ChoiceCheckout:
		return d.handleCheckoutStart(ev)
	case ev.ChoiceID == domain.ChoiceOrders:
		return d.orderHistory(ctx, ev.UserID)
	case ev.ChoiceID == domain.ChoiceAbout:
		return domain.Response{Text: "Trusty Lads is your #1 source for premium grooming and lifestyle products."}
	case ev.ChoiceID == domain.ChoiceContact:
		return domain.Response{Text: "You can reach us at support@trustylads.com."}
	case ev.ChoiceID == domain.ChoiceOffers:
		return d.offers()
	default:
		return domain.Response{Text: "Sorry, I didn't understand that. Please use the menu buttons or type /start."}
	}
}

const helpText = `How to shop:
1. Tap "Browse Products" to see categories.
2. Pick a category, then add items to your cart.
3. Open "View Cart" to review and checkout.

/start - main menu
/help - this message`

func (d *Dispatcher) handleStart(ev domain.Event) domain.Response {
	// /start resets everything for the user, matching the bot's behaviour
	// since the first release
	d.checkout.Cancel(ev.UserID)
	d.carts.Clear(ev.UserID)
	name := ev.UserName
	if name == "" {
		name = "there"
	}
	return domain.Response{Text: fmt.Sprintf(
		"Welcome to Trusty Lads, %s!\n\nYour one-stop shop for premium products. Choose an option below to get started.", name)}
}

func (d *Dispatcher) categoryMenu() domain.Response {
	cats := d.catalog.ListCategories()
	choices := make([]domain.Choice, 0, len(cats))
	for _, c := range cats {
		choices = append(choices, domain.Choice{Label: c.Name, ID: domain.CategoryChoice(c.ID)})
	}
	return domain.Response{Text: "Please choose a category:", Choices: choices}
}

func (d *Dispatcher) productMenu(categoryID string) domain.Response {
	products, err := d.catalog.Products(categoryID)
	if err != nil {
		return domain.Response{Text: "That category is unavailable. Please pick another one.", Choices: d.categoryMenu().Choices}
	}
	var b strings.Builder
	var choices []domain.Choice
	for _, p := range products {
		fmt.Fprintf(&b, "%s - %s\n%s\n\n", p.Name, d.money(p.Price), p.Description)
		choices = append(choices, domain.Choice{Label: "Add " + p.Name, ID: domain.AddChoice(categoryID, p.ID)})
	}
	choices = append(choices, domain.Choice{Label: "Back to Categories", ID: domain.ChoiceCategories})
	return domain.Response{Text: b.String(), Choices: choices}
}

func (d *Dispatcher) handleAdd(ev domain.Event) domain.Response {
	rest := strings.TrimPrefix(ev.ChoiceID, "add:")
	categoryID, productID, ok := strings.Cut(rest, ":")
	if !ok {
		return domain.Response{Text: "Sorry, that item is unavailable."}
	}
	line, err := d.carts.Add(ev.UserID, categoryID, productID)
	if err != nil {
		// ErrProductNotFound / ErrCategoryNotFound: stale button, cart is
		// untouched
		return domain.Response{Text: "Sorry, that item is unavailable."}
	}
	if line.Quantity > 1 {
		return domain.Response{Text: fmt.Sprintf("Another %s added to cart (x%d).", line.Name, line.Quantity)}
	}
	return domain.Response{Text: fmt.Sprintf("%s added to cart.", line.Name)}
}

func (d *Dispatcher) cartView(userID int64) domain.Response {
	lines := d.carts.Lines(userID)
	if len(lines) == 0 {
		return domain.Response{Text: "Your cart is empty. Use Browse Products to add items."}
	}
	var b strings.Builder
	b.WriteString("Your shopping cart:\n\n")
	for i, l := range lines {
		fmt.Fprintf(&b, "%d. %s (x%d) - %s\n", i+1, l.Name, l.Quantity, d.money(l.Subtotal()))
	}
	fmt.Fprintf(&b, "\nTotal: %s", d.money(d.carts.Total(userID)))
	return domain.Response{
		Text: b.String(),
		Choices: []domain.Choice{
			{Label: "Proceed to Checkout", ID: domain.ChoiceCheckout},
			{Label: "Clear Cart", ID: domain.ChoiceClearCart},
		},
	}
}

func (d *Dispatcher) handleCheckoutStart(ev domain.Event) domain.Response {
	resp, err := d.checkout.Start(ev)
	if err != nil {
		// ErrEmptyCart is the only expected failure here
		return domain.Response{Text: "Your cart is empty. Add some items before checking out."}
	}
	return resp
}

func (d *Dispatcher) orderHistory(ctx context.Context, userID int64) domain.Response {
	orders, err := d.orders.ListForUser(ctx, userID, d.cfg.OrderHistoryLimit)
	if err != nil {
		slog.Error("list orders failed", "user_id", userID, "err", err)
		return domain.Response{Text: "Couldn't load your orders right now. Please try again later."}
	}
	if len(orders) == 0 {
		return domain.Response{Text: "You have no orders yet."}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your recent orders (last %d):\n\n", d.cfg.OrderHistoryLimit)
	for _, o := range orders {
		fmt.Fprintf(&b, "%s - %s - %s (%s)\n", o.ID, o.CreatedAt.Format("02.01.2006"), d.money(o.Total), o.Status)
	}
	return domain.Response{Text: b.String()}
}

func (d *Dispatcher) offers() domain.Response {
	if len(d.promos) == 0 {
		return domain.Response{Text: "No special offers right now, but check back soon!"}
	}
	var b strings.Builder
	b.WriteString("Current offers:\n\n")
	for _, p := range d.promos {
		switch p.Kind {
		case domain.PromoPercent:
			fmt.Fprintf(&b, "%s - %.0f%% off on orders above %s\n", p.Code, p.Value, d.money(p.MinOrder))
		case domain.PromoFixed:
			fmt.Fprintf(&b, "%s - %s off on orders above %s\n", p.Code, d.money(p.Value), d.money(p.MinOrder))
		}
	}
	b.WriteString("\nType the code during checkout to apply it.")
	return domain.Response{Text: b.String()}
}

func (d *Dispatcher) money(v float64) string {
	return fmt.Sprintf("%s%.2f", d.cfg.Currency, v)
}
