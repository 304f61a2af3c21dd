package domain

// EventKind tags an inbound event from the transport.
type EventKind int

const (
	EventText   EventKind = iota // free-form text message
	EventChoice                  // menu / inline button selection
)

// Event is what the core consumes from the transport: either a text message
// or an enumerated choice. The transport owns the mapping from display labels
// to choice ids; the core never inspects button labels.
type Event struct {
	Kind     EventKind
	UserID   int64
	UserName string
	Text     string
	ChoiceID string
}

// Choice is one selectable option offered back to the user.
type Choice struct {
	Label string
	ID    string
}

// Response is what the core produces: plain text, optionally with choices.
// Rendering (keyboards, markup) is the transport's job.
type Response struct {
	Text    string
	Choices []Choice
}

// Choice ids understood by the dispatcher. Parameterized ids use a ":"
// separator so category/product ids may themselves contain underscores.
const (
	ChoiceStart      = "start"
	ChoiceHelp       = "help"
	ChoiceBrowse     = "browse"
	ChoiceCategories = "categories"
	ChoiceCart       = "cart"
	ChoiceClearCart  = "cart:clear"
	ChoiceCheckout   = "checkout"
	ChoiceOrders     = "orders"
	ChoiceAbout      = "about"
	ChoiceContact    = "contact"
	ChoiceOffers     = "offers"
	ChoicePayCOD     = "pay:cod"
	ChoicePayOnline  = "pay:online"
	ChoicePromoSkip  = "promo:skip"
	ChoiceConfirm    = "confirm"
	ChoiceEdit       = "edit"
)

// CategoryChoice builds the choice id that opens a category.
func CategoryChoice(categoryID string) string {
	return "category:" + categoryID
}

// AddChoice builds the choice id that adds a product to the cart.
func AddChoice(categoryID, productID string) string {
	return "add:" + categoryID + ":" + productID
}
