package catalog

import (
	"context"

	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/db/models"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository exposes the catalog reads the cart and checkout flows need,
// plus the conditional stock decrement used inside the checkout
// transaction. Catalog administration is not part of this surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, productID uint64) (*models.Product, error)
	// DecrementStock subtracts qty from the product's stock only when
	// enough stock remains. The guard lives in the UPDATE itself so two
	// concurrent checkouts cannot both pass a read-then-write check.
	DecrementStock(ctx context.Context, productID uint64, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository on the provided connection.
func NewRepository(conn *gorm.DB) Repository {
	if conn == nil {
		return nil
	}
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, productID uint64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"product_id": productID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return &product, nil
}

func (r *repository) DecrementStock(ctx context.Context, productID uint64, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "decrement quantity must be positive")
	}

	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock = stock - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock >= ?
	`, qty, productID, qty)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for product").
			WithDetails(map[string]any{"product_id": productID, "requested": qty})
	}
	return nil
}
