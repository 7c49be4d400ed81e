package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/rocketshoes/internal/domain"
	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/httputil"
	"github.com/utafrali/rocketshoes/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints.
type CartHandler struct {
	manager *service.CartManager
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(manager *service.CartManager, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		logger:  logger,
	}
}

// UpdateAmountRequest is the JSON body of PUT /api/v1/cart/products/{productId}.
// Amount is a pointer so that a missing field can be told apart from 0,
// which is a valid (ignored) request.
type UpdateAmountRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

// CartView is the body of GET /api/v1/cart.
type CartView struct {
	Items   domain.Cart    `json:"items"`
	Summary domain.Summary `json:"summary"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := h.manager.Cart()
	httputil.WriteData(w, http.StatusOK, CartView{Items: cart, Summary: cart.Summary()})
}

// AddProduct handles POST /api/v1/cart/products/{productId}
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	httputil.WriteData(w, http.StatusOK, h.manager.AddProduct(r.Context(), productID))
}

// RemoveProduct handles DELETE /api/v1/cart/products/{productId}
func (h *CartHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	httputil.WriteData(w, http.StatusOK, h.manager.RemoveProduct(r.Context(), productID))
}

// UpdateProductAmount handles PUT /api/v1/cart/products/{productId}
func (h *CartHandler) UpdateProductAmount(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseID(w, "productId", chi.URLParam(r, "productId"))
	if !ok {
		return
	}

	var req UpdateAmountRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res := h.manager.UpdateProductAmount(r.Context(), service.UpdateProductAmount{
		ProductID: productID,
		Amount:    *req.Amount,
	})
	httputil.WriteData(w, http.StatusOK, res)
}
