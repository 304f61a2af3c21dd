package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"trustylads/internal/domain"
	"trustylads/internal/repository"
)

// CheckoutConfig parameterizes the single state machine implementation.
type CheckoutConfig struct {
	Currency          string
	MinNameLen        int
	MinAddressLen     int
	EnabledPayments   []domain.PaymentMethod
	OrderHistoryLimit int
}

func (c CheckoutConfig) normalized() CheckoutConfig {
	if c.Currency == "" {
		c.Currency = "₹"
	}
	if c.MinNameLen <= 0 {
		c.MinNameLen = 2
	}
	if c.MinAddressLen <= 0 {
		c.MinAddressLen = 10
	}
	if len(c.EnabledPayments) == 0 {
		// online payment stays listed but disabled until a gateway exists
		c.EnabledPayments = []domain.PaymentMethod{domain.PaymentCashOnDelivery}
	}
	if c.OrderHistoryLimit <= 0 {
		c.OrderHistoryLimit = 5
	}
	return c
}

func (c CheckoutConfig) paymentEnabled(m domain.PaymentMethod) bool {
	for _, p := range c.EnabledPayments {
		if p == m {
			return true
		}
	}
	return false
}

// session сеанс оформления заказа одного пользователя
//
// Exists only while Stage != StageNone. Only the state machine mutates it.
type session struct {
	Stage    domain.Stage
	UserName string
	Name     string
	Phone    string
	Address  string
	Payment  domain.PaymentMethod
	Promo    *domain.PromoCode
}

// CheckoutService drives the per-user dialogue that turns a non-empty cart
// into an order. Every (stage, input) pair produces a response; unrecognized
// input re-prompts the current stage and never drops collected fields.
//
// The internal lock guards only the sessions map. Serialization of events
// for one user is the dispatcher's job, so slow paths here never block
// unrelated users.
type CheckoutService struct {
	carts  *CartService
	orders repository.OrderRepository
	promos map[string]domain.PromoCode
	cfg    CheckoutConfig

	mu       sync.RWMutex
	sessions map[int64]*session
}

func NewCheckoutService(carts *CartService, orders repository.OrderRepository, promos []domain.PromoCode, cfg CheckoutConfig) *CheckoutService {
	byCode := make(map[string]domain.PromoCode, len(promos))
	for _, p := range promos {
		byCode[strings.ToUpper(p.Code)] = p
	}
	return &CheckoutService{
		carts:    carts,
		orders:   orders,
		promos:   byCode,
		cfg:      cfg.normalized(),
		sessions: make(map[int64]*session),
	}
}

// Active reports whether the user is mid-checkout.
func (s *CheckoutService) Active(userID int64) bool {
	return s.Stage(userID) != domain.StageNone
}

// Stage returns the user's current checkout stage, StageNone if idle.
func (s *CheckoutService) Stage(userID int64) domain.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.sessions[userID]; ok {
		return sess.Stage
	}
	return domain.StageNone
}

// Start enters checkout. Requires a non-empty cart; on ErrEmptyCart the
// machine stays idle.
func (s *CheckoutService) Start(ev domain.Event) (domain.Response, error) {
	if s.carts.Empty(ev.UserID) {
		return domain.Response{}, ErrEmptyCart
	}
	s.mu.Lock()
	s.sessions[ev.UserID] = &session{Stage: domain.StageName, UserName: ev.UserName}
	s.mu.Unlock()
	return domain.Response{Text: "Let's get your order ready!\n\nWhat's your full name?"}, nil
}

// Cancel discards the session without creating an order and without touching
// the cart. Reports whether a session was active.
func (s *CheckoutService) Cancel(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// Handle feeds one event into the state machine and returns the reply.
func (s *CheckoutService) Handle(ctx context.Context, ev domain.Event) domain.Response {
	s.mu.RLock()
	sess, ok := s.sessions[ev.UserID]
	s.mu.RUnlock()
	if !ok {
		return domain.Response{Text: "There's no checkout in progress. Open your cart to start one."}
	}

	switch sess.Stage {
	case domain.StageName:
		return s.handleName(ev, sess)
	case domain.StagePhone:
		return s.handlePhone(ev, sess)
	case domain.StageAddress:
		return s.handleAddress(ev, sess)
	case domain.StagePayment:
		return s.handlePayment(ev, sess)
	case domain.StagePromo:
		return s.handlePromo(ev, sess)
	case domain.StageConfirm:
		return s.handleConfirm(ctx, ev, sess)
	default:
		// corrupted stage: reset to a safe state rather than stay wedged
		slog.Error("unknown checkout stage", "user_id", ev.UserID, "stage", sess.Stage)
		s.Cancel(ev.UserID)
		return domain.Response{Text: "Something went wrong on our side, checkout was reset. Please try again."}
	}
}

func (s *CheckoutService) handleName(ev domain.Event, sess *session) domain.Response {
	if ev.Kind != domain.EventText {
		return domain.Response{Text: "What's your full name?"}
	}
	name := strings.TrimSpace(ev.Text)
	if len([]rune(name)) < s.cfg.MinNameLen {
		verr := &ValidationError{Field: "full name", Reason: "too short"}
		slog.Debug("checkout input rejected", "user_id", ev.UserID, "err", verr)
		return domain.Response{Text: "That name looks too short. Please enter your full name."}
	}
	sess.Name = name
	sess.Stage = domain.StagePhone
	return domain.Response{Text: fmt.Sprintf("Thanks, %s! What's your phone number?", name)}
}

// phoneRe accepts an optional leading + followed by 10 to 15 digits; spaces
// and dashes are stripped before matching.
var phoneRe = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

func (s *CheckoutService) handlePhone(ev domain.Event, sess *session) domain.Response {
	if ev.Kind != domain.EventText {
		return domain.Response{Text: "What's your phone number?"}
	}
	phone := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(ev.Text))
	if !phoneRe.MatchString(phone) {
		verr := &ValidationError{Field: "phone number", Reason: "expected 10-15 digits"}
		slog.Debug("checkout input rejected", "user_id", ev.UserID, "err", verr)
		return domain.Response{Text: "That doesn't look like a phone number. Please enter 10-15 digits, e.g. 9876543210."}
	}
	sess.Phone = phone
	sess.Stage = domain.StageAddress
	return domain.Response{Text: "Got it. What's your full delivery address (with pincode)?"}
}

func (s *CheckoutService) handleAddress(ev domain.Event, sess *session) domain.Response {
	if ev.Kind != domain.EventText {
		return domain.Response{Text: "What's your full delivery address?"}
	}
	addr := strings.TrimSpace(ev.Text)
	if len([]rune(addr)) < s.cfg.MinAddressLen {
		verr := &ValidationError{Field: "address", Reason: "too short"}
		slog.Debug("checkout input rejected", "user_id", ev.UserID, "err", verr)
		return domain.Response{Text: fmt.Sprintf("That address looks too short (need at least %d characters). Please enter the full address with pincode.", s.cfg.MinAddressLen)}
	}
	sess.Address = addr
	sess.Stage = domain.StagePayment
	return s.paymentPrompt()
}

func (s *CheckoutService) paymentPrompt() domain.Response {
	return domain.Response{
		Text: "How would you like to pay?",
		Choices: []domain.Choice{
			{Label: "Cash on Delivery", ID: domain.ChoicePayCOD},
			{Label: "Online Payment", ID: domain.ChoicePayOnline},
		},
	}
}

func (s *CheckoutService) handlePayment(ev domain.Event, sess *session) domain.Response {
	var method domain.PaymentMethod
	switch {
	case ev.Kind == domain.EventChoice && ev.ChoiceID == domain.ChoicePayCOD:
		method = domain.PaymentCashOnDelivery
	case ev.Kind == domain.EventChoice && ev.ChoiceID == domain.ChoicePayOnline:
		method = domain.PaymentOnline
	default:
		return s.paymentPrompt()
	}
	if !s.cfg.paymentEnabled(method) {
		r := s.paymentPrompt()
		r.Text = "Sorry, that payment method is not yet available. Please pick another one."
		return r
	}
	sess.Payment = method
	sess.Stage = domain.StagePromo
	return domain.Response{
		Text: "Have a promo code? Type it in, or skip.",
		Choices: []domain.Choice{
			{Label: "Skip", ID: domain.ChoicePromoSkip},
		},
	}
}

func (s *CheckoutService) handlePromo(ev domain.Event, sess *session) domain.Response {
	if ev.Kind == domain.EventChoice {
		if ev.ChoiceID != domain.ChoicePromoSkip {
			return domain.Response{
				Text:    "Type your promo code, or skip.",
				Choices: []domain.Choice{{Label: "Skip", ID: domain.ChoicePromoSkip}},
			}
		}
		sess.Promo = nil
		sess.Stage = domain.StageConfirm
		return s.summary(ev.UserID, sess)
	}

	code := strings.ToUpper(strings.TrimSpace(ev.Text))
	if code == "SKIP" {
		sess.Promo = nil
		sess.Stage = domain.StageConfirm
		return s.summary(ev.UserID, sess)
	}
	promo, ok := s.promos[code]
	if !ok {
		slog.Debug("checkout input rejected", "user_id", ev.UserID, "err", ErrInvalidPromoCode, "code", code)
		return domain.Response{
			Text:    "That promo code doesn't exist. Try another one, or skip.",
			Choices: []domain.Choice{{Label: "Skip", ID: domain.ChoicePromoSkip}},
		}
	}
	if total := s.carts.Total(ev.UserID); total < promo.MinOrder {
		slog.Debug("checkout input rejected", "user_id", ev.UserID, "err", ErrPromoMinimumNotMet, "code", code)
		return domain.Response{
			Text: fmt.Sprintf("%s needs a minimum order of %s. Your cart is at %s. Add more items, try another code, or skip.",
				promo.Code, s.money(promo.MinOrder), s.money(total)),
			Choices: []domain.Choice{{Label: "Skip", ID: domain.ChoicePromoSkip}},
		}
	}
	sess.Promo = &promo
	sess.Stage = domain.StageConfirm
	return s.summary(ev.UserID, sess)
}

func (s *CheckoutService) summary(userID int64, sess *session) domain.Response {
	var b strings.Builder
	b.WriteString("Here's your order:\n\n")
	for _, l := range s.carts.Lines(userID) {
		fmt.Fprintf(&b, "%s (x%d) - %s\n", l.Name, l.Quantity, s.money(l.Subtotal()))
	}
	subtotal := s.carts.Total(userID)
	fmt.Fprintf(&b, "\nSubtotal: %s\n", s.money(subtotal))
	if sess.Promo != nil {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", sess.Promo.Code, s.money(sess.Promo.Discount(subtotal)))
	}
	fmt.Fprintf(&b, "Total: %s\n\n", s.money(finalTotal(subtotal, sess.Promo)))
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\nAddress: %s\nPayment: %s\n",
		sess.Name, sess.Phone, sess.Address, paymentLabel(sess.Payment))
	return domain.Response{
		Text: b.String(),
		Choices: []domain.Choice{
			{Label: "Confirm Order", ID: domain.ChoiceConfirm},
			{Label: "Edit Details", ID: domain.ChoiceEdit},
		},
	}
}

func (s *CheckoutService) handleConfirm(ctx context.Context, ev domain.Event, sess *session) domain.Response {
	switch {
	case ev.Kind == domain.EventChoice && ev.ChoiceID == domain.ChoiceConfirm:
		return s.finalize(ctx, ev.UserID, sess)
	case ev.Kind == domain.EventChoice && ev.ChoiceID == domain.ChoiceEdit:
		// collected fields are discarded, dialogue restarts from the name
		*sess = session{Stage: domain.StageName, UserName: sess.UserName}
		return domain.Response{Text: "No problem, let's start over.\n\nWhat's your full name?"}
	default:
		return s.summary(ev.UserID, sess)
	}
}

func (s *CheckoutService) finalize(ctx context.Context, userID int64, sess *session) domain.Response {
	// re-validate: the cart could have been cleared since checkout started
	lines := s.carts.Lines(userID)
	if len(lines) == 0 {
		s.Cancel(userID)
		return domain.Response{Text: "Your cart is empty, so there is nothing to order. Checkout cancelled."}
	}

	subtotal := s.carts.Total(userID)
	var discount float64
	var promoCode string
	if sess.Promo != nil {
		discount = sess.Promo.Discount(subtotal)
		promoCode = sess.Promo.Code
	}

	order := &domain.Order{
		UserID:        userID,
		UserName:      sess.UserName,
		Items:         lines,
		Subtotal:      subtotal,
		Discount:      discount,
		Total:         finalTotal(subtotal, sess.Promo),
		CustomerName:  sess.Name,
		Phone:         sess.Phone,
		Address:       sess.Address,
		PaymentMethod: sess.Payment,
		PromoCode:     promoCode,
		Status:        domain.OrderStatusConfirmed,
	}
	id, err := s.orders.Save(ctx, order)
	if err != nil {
		// unexpected: in-memory save should not fail; keep the cart so the
		// user can retry, but never leave the session wedged
		slog.Error("order save failed", "user_id", userID, "err", err)
		s.Cancel(userID)
		return domain.Response{Text: "Something went wrong while placing your order. Your cart is untouched, please try again."}
	}

	s.carts.Clear(userID)
	s.Cancel(userID)
	return domain.Response{Text: fmt.Sprintf(
		"Order confirmed!\n\nOrder ID: %s\nTotal: %s\n\nThank you for shopping with Trusty Lads. We'll contact you shortly to arrange delivery.",
		id, s.money(order.Total))}
}

// finalTotal = subtotal - discount, clamped at zero.
func finalTotal(subtotal float64, promo *domain.PromoCode) float64 {
	if promo == nil {
		return subtotal
	}
	t := domain.Round2(subtotal - promo.Discount(subtotal))
	if t < 0 {
		t = 0
	}
	return t
}

func (s *CheckoutService) money(v float64) string {
	return fmt.Sprintf("%s%.2f", s.cfg.Currency, v)
}

func paymentLabel(m domain.PaymentMethod) string {
	switch m {
	case domain.PaymentCashOnDelivery:
		return "Cash on Delivery"
	case domain.PaymentOnline:
		return "Online Payment"
	default:
		return string(m)
	}
}
