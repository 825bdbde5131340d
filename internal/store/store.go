// ABOUTME: Store interfaces and data types for inventory-api persistence
// ABOUTME: Defines Principal and Product records plus the errors callers match on

package store

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrPrincipalNotFound is returned when no principal has the requested username
var ErrPrincipalNotFound = errors.New("principal not found")

// ErrDuplicatePrincipal is returned when creating a principal whose username is taken
var ErrDuplicatePrincipal = errors.New("principal already exists")

// ErrDuplicateName is returned when a product name collides with an existing one
var ErrDuplicateName = errors.New("product name already exists")

// Principal is an authenticatable identity: a username, its bcrypt hash and
// the roles it holds.
type Principal struct {
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// HasRole reports whether the principal holds the named role.
func (p *Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Product is a single inventory line. Prices are kept in integer cents.
type Product struct {
	ID          int64
	Name        string
	Description string
	PriceCents  int64
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// InventoryStats summarises the whole catalogue.
type InventoryStats struct {
	TotalProducts   int64
	TotalValueCents *big.Int
}

// PrincipalStore resolves principals by username.
type PrincipalStore interface {
	GetPrincipal(ctx context.Context, username string) (*Principal, error)
}

// ProductStore defines persistence for the product catalogue
type ProductStore interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context) ([]*Product, error)

	// Queries
	SearchProductsByName(ctx context.Context, fragment string) ([]*Product, error)
	ListProductsByPriceRange(ctx context.Context, minCents, maxCents int64) ([]*Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]*Product, error)
	ListInStockProducts(ctx context.Context) ([]*Product, error)
	GetInventoryStats(ctx context.Context) (*InventoryStats, error)
}
