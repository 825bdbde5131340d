// ABOUTME: HTTP handlers for the product catalogue
// ABOUTME: CRUD plus search, price range, stock and stats queries; all routes require an identity

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/inventory-api/internal/inventory"
	"github.com/2389/inventory-api/internal/store"
)

// ProductRequest is the JSON request body for POST /products and PUT /products/{id}.
type ProductRequest struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Quantity    *int        `json:"quantity"`
}

// ProductResponse is the JSON representation of a product.
type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       inventory.Price `json:"price"`
	Quantity    int             `json:"quantity"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

// StatsResponse is the JSON response for GET /products/stats.
type StatsResponse struct {
	TotalProducts       int64            `json:"totalProducts"`
	TotalInventoryValue inventory.Amount `json:"totalInventoryValue"`
	AverageProductValue inventory.Amount `json:"averageProductValue"`
}

func toProductResponse(p *store.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       inventory.Price(p.PriceCents),
		Quantity:    p.Quantity,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toProductList(products []*store.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i, p := range products {
		out[i] = toProductResponse(p)
	}
	return out
}

func (req ProductRequest) input() inventory.ProductInput {
	return inventory.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price.String(),
		Quantity:    req.Quantity,
	}
}

// productID parses the {id} path value or writes a 400.
func (s *Server) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid product id %q", raw))
		return 0, false
	}
	return id, true
}

// decodeProduct reads the request body or writes a 400.
func (s *Server) decodeProduct(w http.ResponseWriter, r *http.Request) (inventory.ProductInput, bool) {
	var req ProductRequest
	if !s.decodeJSONBody(w, r, &req) {
		return inventory.ProductInput{}, false
	}
	return req.input(), true
}

// handleListProducts handles GET /products.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(products))
}

// handleGetProduct handles GET /products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}

	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// handleCreateProduct handles POST /products.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	in, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	p, err := s.products.Create(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/products/%d", p.ID))
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

// handleUpdateProduct handles PUT /products/{id}.
func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}
	in, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	p, err := s.products.Update(r.Context(), id, in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

// handleDeleteProduct handles DELETE /products/{id}.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := s.productID(w, r)
	if !ok {
		return
	}

	if err := s.products.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSearchProducts handles GET /products/search?name=X.
func (s *Server) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("name") {
		s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, "query parameter 'name' is required")
		return
	}

	products, err := s.products.SearchByName(r.Context(), query.Get("name"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(products))
}

// handlePriceRange handles GET /products/price-range?minPrice=X&maxPrice=Y.
func (s *Server) handlePriceRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	minPrice, err := inventory.ParsePrice(query.Get("minPrice"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, "minPrice: "+err.Error())
		return
	}
	maxPrice, err := inventory.ParsePrice(query.Get("maxPrice"))
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, "maxPrice: "+err.Error())
		return
	}

	products, err := s.products.ListByPriceRange(r.Context(), minPrice, maxPrice)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(products))
}

// handleLowStock handles GET /products/low-stock?threshold=N (default 10).
func (s *Server) handleLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := inventory.DefaultLowStock
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.sendJSONError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid threshold %q", raw))
			return
		}
		threshold = n
	}

	products, err := s.products.ListLowStock(r.Context(), threshold)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(products))
}

// handleInStock handles GET /products/in-stock.
func (s *Server) handleInStock(w http.ResponseWriter, r *http.Request) {
	products, err := s.products.ListInStock(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductList(products))
}

// handleStats handles GET /products/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.products.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalProducts:       stats.TotalProducts,
		TotalInventoryValue: stats.TotalInventoryValue,
		AverageProductValue: stats.AverageProductValue,
	})
}
