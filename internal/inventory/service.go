// ABOUTME: Product catalogue service with input validation
// ABOUTME: Sits between the HTTP handlers and the product store; all callers are already authenticated

package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/2389/inventory-api/internal/store"
)

// Field limits
const (
	MinNameLength        = 2
	MaxNameLength        = 100
	MaxDescriptionLength = 500
	DefaultLowStock      = 10
	MaxQuantity          = math.MaxInt32
)

// ErrInvalidArgument marks a request that is well-formed but not acceptable,
// such as an inverted price range.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError carries a client-facing message for ErrInvalidArgument.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return e.Message }

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *ArgumentError) Unwrap() error { return ErrInvalidArgument }

// ValidationError reports every invalid field at once, keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProductInput is the caller-supplied data for creating or replacing a product.
// Price is decimal text so it can be validated exactly; Quantity is a pointer
// so a missing value can be told apart from zero.
type ProductInput struct {
	Name        string
	Description string
	Price       string
	Quantity    *int
}

// Validate checks every field and returns a *ValidationError listing all
// failures, or nil.
func (in ProductInput) Validate() error {
	fields := make(map[string]string)

	name := strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(name); {
	case n == 0:
		fields["name"] = "name is required"
	case n < MinNameLength || n > MaxNameLength:
		fields["name"] = fmt.Sprintf("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	}

	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		fields["description"] = fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength)
	}

	if strings.TrimSpace(in.Price) == "" {
		fields["price"] = "price is required"
	} else if p, err := ParsePrice(in.Price); err != nil {
		fields["price"] = err.Error()
	} else if p <= 0 {
		fields["price"] = "price must be greater than 0"
	}

	if in.Quantity == nil {
		fields["quantity"] = "quantity is required"
	} else if *in.Quantity < 0 {
		fields["quantity"] = "quantity cannot be negative"
	} else if *in.Quantity > MaxQuantity {
		fields["quantity"] = fmt.Sprintf("quantity cannot exceed %d", MaxQuantity)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Stats summarises the catalogue.
type Stats struct {
	TotalProducts       int64
	TotalInventoryValue Amount
	AverageProductValue Amount
}

// Service implements the product operations exposed over HTTP.
type Service struct {
	products store.ProductStore
	logger   *slog.Logger
}

// NewService creates a product service. A nil logger uses slog.Default().
func NewService(products store.ProductStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		products: products,
		logger:   logger.With("component", "inventory"),
	}
}

// List returns every product ordered by ID.
func (s *Service) List(ctx context.Context) ([]*store.Product, error) {
	return s.products.ListProducts(ctx)
}

// Get returns one product or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*store.Product, error) {
	return s.products.GetProduct(ctx, id)
}

// Create validates in and stores a new product.
func (s *Service) Create(ctx context.Context, in ProductInput) (*store.Product, error) {
	p, err := toProduct(in)
	if err != nil {
		return nil, err
	}

	if err := s.products.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product created", "id", p.ID, "name", p.Name)
	return p, nil
}

// Update replaces every mutable field of product id.
func (s *Service) Update(ctx context.Context, id int64, in ProductInput) (*store.Product, error) {
	p, err := toProduct(in)
	if err != nil {
		return nil, err
	}
	p.ID = id

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	updated, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reloading product %d: %w", id, err)
	}

	s.logger.Info("product updated", "id", id)
	return updated, nil
}

// Delete removes product id or returns store.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "id", id)
	return nil
}

// SearchByName finds products whose name contains fragment, ignoring case.
func (s *Service) SearchByName(ctx context.Context, fragment string) ([]*store.Product, error) {
	return s.products.SearchProductsByName(ctx, fragment)
}

// ListByPriceRange returns products priced within [minPrice, maxPrice].
func (s *Service) ListByPriceRange(ctx context.Context, minPrice, maxPrice Price) ([]*store.Product, error) {
	if minPrice > maxPrice {
		return nil, &ArgumentError{Message: "minimum price cannot be greater than maximum price"}
	}
	return s.products.ListProductsByPriceRange(ctx, minPrice.Cents(), maxPrice.Cents())
}

// ListLowStock returns products with quantity at or below threshold.
func (s *Service) ListLowStock(ctx context.Context, threshold int) ([]*store.Product, error) {
	if threshold < 0 {
		return nil, &ArgumentError{Message: "stock threshold cannot be negative"}
	}
	return s.products.ListLowStockProducts(ctx, threshold)
}

// ListInStock returns products with quantity above zero.
func (s *Service) ListInStock(ctx context.Context) ([]*store.Product, error) {
	return s.products.ListInStockProducts(ctx)
}

// Stats returns the product count, total stock value and average product value.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	raw, err := s.products.GetInventoryStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalProducts:       raw.TotalProducts,
		TotalInventoryValue: NewAmount(raw.TotalValueCents),
		AverageProductValue: Average(raw.TotalValueCents, raw.TotalProducts),
	}, nil
}

func toProduct(in ProductInput) (*store.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	price, _ := ParsePrice(in.Price)
	return &store.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PriceCents:  price.Cents(),
		Quantity:    *in.Quantity,
	}, nil
}
