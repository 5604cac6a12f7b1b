package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/urbanfrill/storefront/internal/cart"
	"github.com/urbanfrill/storefront/internal/catalog"
	"github.com/urbanfrill/storefront/internal/checkout"
	domcart "github.com/urbanfrill/storefront/internal/domain/cart"
	"github.com/urbanfrill/storefront/internal/domain/order"
	"github.com/urbanfrill/storefront/internal/payment"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

type Handlers struct {
	catalog  *catalog.Service
	checkout *checkout.Service
	health   map[string]HealthCheck
	logger   *zap.Logger
}

func NewHandlers(catalogSvc *catalog.Service, checkoutSvc *checkout.Service, health map[string]HealthCheck, logger *zap.Logger) *Handlers {
	return &Handlers{
		catalog:  catalogSvc,
		checkout: checkoutSvc,
		health:   health,
		logger:   logger,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := catalog.Selection{
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Sort:     catalog.ParseSortOrder(q.Get("sort")),
	}

	var err error
	if sel.MinPrice, err = parsePrice(q.Get("min")); err != nil {
		respondJSONError(w, "min must be a number", http.StatusBadRequest)
		return
	}
	if sel.MaxPrice, err = parsePrice(q.Get("max")); err != nil {
		respondJSONError(w, "max must be a number", http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, h.catalog.Search(sel))
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.catalog.Get(id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.catalog.Facets())
}

// Cart Handlers

type cartResponse struct {
	Cart cart.View       `json:"cart"`
	Sync cart.SyncStatus `json:"sync,omitempty"`
}

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: sh.Cart.View()})
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID int `json:"id"`
		Quantity  int `json:"qty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	p, err := h.catalog.Get(req.ProductID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	task := sh.Cart.AddItem(r.Context(), domcart.Line{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.EffectivePrice(),
		Image:     p.PrimaryImage(),
		Quantity:  req.Quantity,
	})
	h.respondCart(w, r, sh.Cart, task)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity int `json:"qty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	h.respondCart(w, r, sh.Cart, sh.Cart.UpdateQuantity(r.Context(), id, req.Quantity))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respondCart(w, r, sh.Cart, sh.Cart.RemoveItem(r.Context(), id))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	h.respondCart(w, r, sh.Cart, sh.Cart.Clear(r.Context()))
}

// respondCart reports the cart and the remote sync state. With ?sync=wait
// the response waits for the mirror, bounded by the request context.
func (h *Handlers) respondCart(w http.ResponseWriter, r *http.Request, c *cart.Service, task *cart.SyncTask) {
	if r.URL.Query().Get("sync") == "wait" {
		if err := task.Wait(r.Context()); err != nil {
			h.logger.Debug("Cart sync not confirmed", zap.Error(err))
		}
	}
	respondJSON(w, http.StatusOK, cartResponse{Cart: c.View(), Sync: task.Status()})
}

// Checkout Handlers

type checkoutRequest struct {
	order.ShippingAddress
	PaymentMethod string `json:"paymentMethod"`
}

func (h *Handlers) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	placement, err := h.checkout.PlaceOrder(r.Context(), checkout.PlaceOrderInput{
		Device:        sh.Device,
		Identity:      sh.Session.Current(),
		Cart:          sh.Cart,
		Address:       req.ShippingAddress,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, placement)
}

type paymentRequest struct {
	Reference string `json:"reference"`
	payment.Result
}

func (h *Handlers) CompletePayment(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	o, err := h.checkout.CompletePayment(r.Context(), sh.Device, req.Reference, req.Result)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelPayment(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	if err := h.checkout.CancelPayment(sh.Device, r.PathValue("ref")); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Order Handlers

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	o, err := h.checkout.GetOrder(r.Context(), r.PathValue("id"), sh.Session.Current())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	sh, ok := currentShopper(w, r)
	if !ok {
		return
	}
	o, err := h.checkout.CancelOrder(r.Context(), r.PathValue("id"), sh.Session.Current())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// Health

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, check := range h.health {
		if err := check(ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]any{"status": state, "checks": checks})
}

// Helper functions

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondJSONError(w, "id must be a number", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
