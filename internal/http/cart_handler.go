package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joinsangha/storefront/internal/cart/domain"
	"github.com/joinsangha/storefront/pkg/apperr"
	"github.com/joinsangha/storefront/pkg/price"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, clientID string) (*domain.Cart, error)
	AddItem(ctx context.Context, clientID string, item domain.LineItem) (*domain.Cart, error)
	AdjustQuantity(ctx context.Context, clientID string, index int, delta decimal.Decimal) (*domain.Cart, error)
	RemoveItem(ctx context.Context, clientID string, index int) (*domain.Cart, error)
	ClearCart(ctx context.Context, clientID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
	maxBody int64
	log     *zap.Logger
}

func NewCartHandler(carts CartService, timeout time.Duration, maxBody int64, log *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout, maxBody: maxBody, log: log}
}

type AddItemRequestDTO struct {
	Name     string          `json:"name"`
	Price    price.Value     `json:"price"`
	Image    string          `json:"image"`
	Quantity decimal.Decimal `json:"quantity"`
}

type AdjustQuantityRequestDTO struct {
	Delta decimal.Decimal `json:"delta"`
}

type CartItemDTO struct {
	Name      string          `json:"name"`
	Price     price.Value     `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	LineTotal string          `json:"lineTotal"`
}

type CartResponseDTO struct {
	Items     []CartItemDTO   `json:"items"`
	ItemCount decimal.Decimal `json:"itemCount"`
	Subtotal  string          `json:"subtotal"`
}

// toCartResponse recomputes totals from the items on every response.
func toCartResponse(c *domain.Cart) CartResponseDTO {
	resp := CartResponseDTO{
		Items:     make([]CartItemDTO, 0, len(c.Items)),
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal().StringFixed(2),
	}
	for _, it := range c.Items {
		resp.Items = append(resp.Items, CartItemDTO{
			Name:      it.Name,
			Price:     it.Price,
			Image:     it.Image,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal().StringFixed(2),
		})
	}
	return resp
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.carts.GetCart(ctx, clientIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}
	if req.Quantity.IsZero() {
		req.Quantity = domain.MinQuantity
	}

	c, err := h.carts.AddItem(ctx, clientIDFromContext(r.Context()), domain.LineItem{
		Name:     req.Name,
		Price:    req.Price,
		Image:    req.Image,
		Quantity: req.Quantity,
	})
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartResponse(c))
}

func (h *CartHandler) AdjustQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, err := itemIndex(r)
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	var req AdjustQuantityRequestDTO
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	c, err := h.carts.AdjustQuantity(ctx, clientIDFromContext(r.Context()), index, req.Delta)
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	index, err := itemIndex(r)
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	c, err := h.carts.RemoveItem(ctx, clientIDFromContext(r.Context()), index)
	if err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.carts.ClearCart(ctx, clientIDFromContext(r.Context())); err != nil {
		handleServiceError(ctx, w, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func itemIndex(r *http.Request) (int, error) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		return 0, apperr.Validation("index", "index must be a non-negative integer")
	}
	return index, nil
}
