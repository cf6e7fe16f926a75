package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/food-order-webhook/internal/model"
	"github.com/iliyamo/food-order-webhook/internal/service"
	"github.com/iliyamo/food-order-webhook/internal/session"
)

// Reply texts that do not depend on request data.
const (
	textUnhandled     = "I'm not sure how to help with that yet."
	textNotUnderstood = "Sorry, I didn't catch that. Could you say it again?"
	textStorageDown   = "Sorry, something went wrong on our side. Please try again in a moment."
	textAskAdd        = "What would you like to add? Check the menu for items like Foul or Falafel."
	textAskRemove     = "Which item would you like to remove from your order?"
	textBadQuantities = `Sorry, I couldn't make sense of the quantities. Try something like "2 falafel and 1 foul".`
	textAddNothing    = "Sorry, I couldn't add those. Are those on the menu?"
	textCartEmpty     = "Your cart is currently empty."
	textNothingYet    = "You haven't ordered anything yet!"
	textCleared       = "Ok, I've cleared your cart. What would you like to order?"
	textAskOrderID    = "I need an Order ID to check your status. Could you please provide it?"
	textMenuEmpty     = "Our menu is empty right now. Please check back later."
)

// maxBody caps the request body read from the agent.
const maxBody = 1 << 20

// turn is one webhook call after boundary decoding.
type turn struct {
	orderID int64
	params  Parameters
}

type intentFunc func(ctx context.Context, t turn) string

// WebhookHandler answers Dialogflow fulfillment calls.  Every call gets
// HTTP 200 with a fulfillment text, whatever went wrong, because the agent
// reads anything else as a webhook failure and replies with its own
// fallback.
type WebhookHandler struct {
	orders     *service.OrderService
	currency   string
	restaurant string
	log        zerolog.Logger
	intents    map[string]intentFunc
}

// NewWebhookHandler constructs the handler and panics if orders is nil.
func NewWebhookHandler(orders *service.OrderService, currency, restaurant string, log zerolog.Logger) *WebhookHandler {
	if orders == nil {
		panic("nil order service passed to NewWebhookHandler")
	}
	h := &WebhookHandler{
		orders:     orders,
		currency:   currency,
		restaurant: restaurant,
		log:        log.With().Str("component", "webhook").Logger(),
	}
	h.intents = map[string]intentFunc{
		"add_item":               h.addItem,
		"remove_item":            h.removeItem,
		"view_cart":              h.viewCart,
		"order_complete":         h.completeOrder,
		"New-order":              h.newOrder,
		"menu_prices":            h.menuPrices,
		"track-order":            h.trackOrder,
		"Default Welcome Intent": h.welcome,
	}
	return h
}

// Handle is the POST / and POST /webhook endpoint.
func (h *WebhookHandler) Handle(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBody))
	if err != nil {
		h.log.Warn().Err(err).Msg("read body failed")
		return reply(c, textNotUnderstood)
	}
	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.log.Warn().Err(err).Msg("malformed webhook body")
		return reply(c, textNotUnderstood)
	}

	intent := req.QueryResult.Intent.DisplayName
	fn, ok := h.intents[intent]
	if !ok {
		h.log.Info().Str("intent", intent).Msg("unhandled intent")
		return reply(c, textUnhandled)
	}

	orderID, ok := session.Resolve(req.Session)
	if !ok {
		h.log.Warn().Str("session", req.Session).Int64("order_id", orderID).Msg("no session token, using fallback key")
	}
	h.log.Debug().Str("intent", intent).Int64("order_id", orderID).Msg("dispatch")
	return reply(c, fn(c.Request().Context(), turn{orderID: orderID, params: req.QueryResult.Parameters}))
}

func reply(c echo.Context, text string) error {
	return c.JSON(http.StatusOK, WebhookResponse{FulfillmentText: text})
}

// failure maps an error to a reply without leaking its detail.
func (h *WebhookHandler) failure(op string, orderID int64, err error) string {
	if errors.Is(err, service.ErrValidation) {
		h.log.Info().Err(err).Str("op", op).Int64("order_id", orderID).Msg("rejected request")
		return textNotUnderstood
	}
	h.log.Error().Err(err).Str("op", op).Int64("order_id", orderID).Msg("request failed")
	return textStorageDown
}

func (h *WebhookHandler) money(v decimal.Decimal) string {
	return v.StringFixed(2) + " " + h.currency
}

func (h *WebhookHandler) addItem(ctx context.Context, t turn) string {
	names, qty, text, ok := itemParams(t.params, textAskAdd)
	if !ok {
		return text
	}
	res, err := h.orders.AddItems(ctx, t.orderID, names, qty)
	if errors.Is(err, service.ErrNoItems) {
		return textAskAdd
	}
	if errors.Is(err, service.ErrValidation) {
		return textBadQuantities
	}
	if err != nil {
		return h.failure("add_item", t.orderID, err)
	}
	if len(res.Added) == 0 {
		if len(res.Failed) > 0 {
			return textStorageDown
		}
		return textAddNothing
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Added %s to your cart.", joinItems(res.Added))
	if len(res.NotFound) > 0 {
		fmt.Fprintf(&b, " (Note: %s isn't on our menu.)", strings.Join(res.NotFound, ", "))
	}
	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, " (Note: I couldn't add %s right now.)", strings.Join(res.Failed, ", "))
	}
	b.WriteString(" Anything else?")
	return b.String()
}

func (h *WebhookHandler) removeItem(ctx context.Context, t turn) string {
	names, qty, text, ok := itemParams(t.params, textAskRemove)
	if !ok {
		return text
	}
	res, err := h.orders.RemoveItems(ctx, t.orderID, names, qty)
	if errors.Is(err, service.ErrNoItems) {
		return textAskRemove
	}
	if errors.Is(err, service.ErrValidation) {
		return textBadQuantities
	}
	if err != nil {
		return h.failure("remove_item", t.orderID, err)
	}
	if len(res.Removed) == 0 {
		if len(res.Failed) > 0 {
			return textStorageDown
		}
		return fmt.Sprintf("I couldn't find %s in your cart to remove.", strings.Join(res.NotFound, ", "))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Removed %s from your cart.", joinItems(res.Removed))
	if len(res.NotFound) > 0 {
		fmt.Fprintf(&b, " (Note: I couldn't find %s.)", strings.Join(res.NotFound, ", "))
	}
	if len(res.Failed) > 0 {
		fmt.Fprintf(&b, " (Note: I couldn't remove %s right now.)", strings.Join(res.Failed, ", "))
	}
	b.WriteString(" Anything else?")
	return b.String()
}

// itemParams decodes food-item and number.  When ok is false, text is the
// reply to send instead.
func itemParams(p Parameters, ask string) (names []string, qty []int, text string, ok bool) {
	names, err := p.FoodItems()
	if err != nil {
		return nil, nil, textNotUnderstood, false
	}
	if len(names) == 0 {
		return nil, nil, ask, false
	}
	qty, err = p.Numbers()
	if err != nil {
		return nil, nil, textBadQuantities, false
	}
	return names, qty, "", true
}

func joinItems(items []service.ItemRequest) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%d %s", it.Quantity, it.Display)
	}
	return strings.Join(parts, ", ")
}

func (h *WebhookHandler) viewCart(ctx context.Context, t turn) string {
	cart, err := h.orders.ViewCart(ctx, t.orderID)
	if err != nil {
		return h.failure("view_cart", t.orderID, err)
	}
	if cart.Empty() {
		return textCartEmpty
	}
	return fmt.Sprintf("Your cart: %s. Total is %s.", summarize(cart.Lines), h.money(cart.Total))
}

func summarize(lines []model.OrderLine) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = fmt.Sprintf("%dx %s", l.Quantity, l.ItemName)
	}
	return strings.Join(parts, ", ")
}

func (h *WebhookHandler) completeOrder(ctx context.Context, t turn) string {
	rec, err := h.orders.CompleteOrder(ctx, t.orderID)
	if errors.Is(err, service.ErrEmptyCart) {
		return textNothingYet
	}
	if err != nil {
		return h.failure("order_complete", t.orderID, err)
	}
	text := fmt.Sprintf("Awesome! Your order is placed. Your Order ID is %d. Total: %s. We are now preparing your food!",
		rec.OrderID, h.money(rec.Total))
	if rec.ClearFailed {
		text += ` If your cart still shows these items, say "new order" to start fresh.`
	}
	return text
}

func (h *WebhookHandler) newOrder(ctx context.Context, t turn) string {
	if err := h.orders.NewOrder(ctx, t.orderID); err != nil {
		return h.failure("new_order", t.orderID, err)
	}
	return textCleared
}

func (h *WebhookHandler) menuPrices(ctx context.Context, t turn) string {
	items, err := h.orders.Menu(ctx)
	if err != nil {
		return h.failure("menu_prices", t.orderID, err)
	}
	if len(items) == 0 {
		return textMenuEmpty
	}
	var b strings.Builder
	b.WriteString("Here is our menu:")
	for _, it := range items {
		fmt.Fprintf(&b, "\n• %s: %s", it.Name, h.money(it.Price))
	}
	return b.String()
}

// trackOrder looks up the order named by the number parameter, not the
// caller's session: an order can be tracked from any conversation.
func (h *WebhookHandler) trackOrder(ctx context.Context, t turn) string {
	nums, err := t.params.Numbers()
	if err != nil {
		return "That doesn't look like an Order ID. Order IDs are whole numbers."
	}
	if len(nums) == 0 {
		return textAskOrderID
	}
	id := int64(nums[0])
	status, err := h.orders.TrackOrder(ctx, id)
	switch {
	case errors.Is(err, service.ErrBadOrderID):
		return "That doesn't look like an Order ID. Order IDs are whole numbers."
	case errors.Is(err, service.ErrNotFound):
		return fmt.Sprintf("I couldn't find any record for Order ID %d. Please double-check the number.", id)
	case err != nil:
		return h.failure("track_order", id, err)
	}
	switch status {
	case model.StatusPreparing:
		return fmt.Sprintf("Order #%d is currently being prepared in the kitchen. It will be out soon! 🥣", id)
	case model.StatusInTransit:
		return fmt.Sprintf("Good news! Order #%d is on its way to you. 🛵", id)
	case model.StatusDelivered:
		return fmt.Sprintf("Order #%d shows as delivered. Enjoy your meal! 🎉", id)
	}
	return fmt.Sprintf("The status of your order #%d is: %s.", id, status)
}

func (h *WebhookHandler) welcome(context.Context, turn) string {
	name := h.restaurant
	if name == "" {
		name = "our kitchen"
	}
	return fmt.Sprintf(`Welcome to %s! Say "new order" to start, ask for the menu, or track an existing order.`, name)
}
