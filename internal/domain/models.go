package domain

import "time"

// Product is a single catalog entry. Immutable after startup.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// Category groups products; order of Products is declaration order.
type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products"`
}

// CartLine is one product in a user's cart. Price is snapshotted at add time,
// so later catalog changes never affect an already-filled cart.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// Subtotal for a single line, rounded to 2 decimal places.
func (l CartLine) Subtotal() float64 {
	return Round2(l.Price * float64(l.Quantity))
}

// PaymentMethod способ оплаты
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentOnline         PaymentMethod = "online"
)

// PromoKind is how a promo code discounts an order.
type PromoKind string

const (
	PromoPercent PromoKind = "percent"
	PromoFixed   PromoKind = "fixed"
)

// PromoCode is a static discount rule. MinOrder is the inclusive lower bound
// on the cart total for the code to apply.
type PromoCode struct {
	Code     string    `json:"code"`
	Kind     PromoKind `json:"kind"`
	Value    float64   `json:"value"`
	MinOrder float64   `json:"min_order"`
}

// Discount returns the discount amount for the given cart total, clamped so
// the resulting total never goes negative. MinOrder is checked by the caller.
func (p PromoCode) Discount(total float64) float64 {
	var d float64
	switch p.Kind {
	case PromoPercent:
		d = Round2(total * p.Value / 100)
	case PromoFixed:
		d = p.Value
	}
	if d > total {
		d = total
	}
	if d < 0 {
		d = 0
	}
	return d
}

// Stage is a named point in the checkout dialogue.
type Stage string

const (
	StageNone    Stage = ""
	StageName    Stage = "awaiting_name"
	StagePhone   Stage = "awaiting_phone"
	StageAddress Stage = "awaiting_address"
	StagePayment Stage = "awaiting_payment_method"
	StagePromo   Stage = "awaiting_promo"
	StageConfirm Stage = "awaiting_confirmation"
)

// OrderStatus статус заказа
type OrderStatus string

const OrderStatusConfirmed OrderStatus = "Confirmed"

// Order is an immutable record of a completed purchase. Items is a snapshot
// of the cart at confirmation time, never a live reference.
type Order struct {
	ID            string        `json:"order_id"`
	UserID        int64         `json:"user_id"`
	UserName      string        `json:"user_name"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []CartLine    `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Discount      float64       `json:"discount"`
	Total         float64       `json:"total"`
	CustomerName  string        `json:"customer_name"`
	Phone         string        `json:"phone"`
	Address       string        `json:"address"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PromoCode     string        `json:"promo_code,omitempty"`
	Status        OrderStatus   `json:"status"`
}
