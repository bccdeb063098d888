package cart

import (
	"context"
	"fmt"

	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/db/models"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, productID uint64) (*models.Product, error)
}

// Service exposes the cart operations the storefront needs. Stock checks
// here are advisory only; checkout re-verifies against current stock.
type Service interface {
	List(ctx context.Context, owner identity.Owner) ([]models.CartLine, error)
	Add(ctx context.Context, owner identity.Owner, input AddInput) (*models.CartLine, error)
	UpdateQuantity(ctx context.Context, owner identity.Owner, lineID uint64, quantity int) (*models.CartLine, error)
	Remove(ctx context.Context, owner identity.Owner, lineID uint64) error
	Clear(ctx context.Context, owner identity.Owner) error
	Count(ctx context.Context, owner identity.Owner) (int, error)
	MergeOnLogin(ctx context.Context, sessionToken string, userID uint64) error
}

// AddInput carries the add-to-cart payload. UnitPrice is the
// caller-supplied price snapshot captured onto the line.
type AddInput struct {
	ProductID uint64
	Variant   *string
	Quantity  int
	UnitPrice decimal.Decimal
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  productLoader
	sessions tokenDiscarder
}

// tokenDiscarder forgets a guest session token once its cart is merged.
type tokenDiscarder interface {
	Forget(ctx context.Context, token string) error
}

// NewService builds a cart service backed by the provided stack. The
// session store is optional; merge works without it.
func NewService(repo Repository, tx txRunner, catalog productLoader, sessions tokenDiscarder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalog,
		sessions: sessions,
	}, nil
}

func (s *service) List(ctx context.Context, owner identity.Owner) ([]models.CartLine, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	return s.repo.ListByOwner(ctx, owner)
}

func (s *service) Add(ctx context.Context, owner identity.Owner, input AddInput) (*models.CartLine, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	product, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	var result *models.CartLine
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, err := repo.FindByConfig(ctx, owner, input.ProductID, input.Variant)
		if err != nil {
			return err
		}

		if existing != nil {
			combined := existing.Quantity + input.Quantity
			if combined > product.Stock {
				return insufficientStock(product, combined)
			}
			if err := repo.SetQuantity(ctx, existing.ID, combined); err != nil {
				return err
			}
			existing.Quantity = combined
			result = existing
			return nil
		}

		if input.Quantity > product.Stock {
			return insufficientStock(product, input.Quantity)
		}

		line := &models.CartLine{
			ProductID: input.ProductID,
			Variant:   input.Variant,
			Quantity:  input.Quantity,
			UnitPrice: input.UnitPrice,
		}
		if owner.IsUser() {
			uid := owner.UserID()
			line.UserID = &uid
		} else {
			tok := owner.SessionToken()
			line.SessionToken = &tok
		}
		// Two concurrent adds for the same configuration can both miss
		// FindByConfig; the unique index catches the loser.
		if err := repo.Create(ctx, line); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line already exists for this product configuration")
			}
			return err
		}
		result = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) UpdateQuantity(ctx context.Context, owner identity.Owner, lineID uint64, quantity int) (*models.CartLine, error) {
	if owner.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	if quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	line, err := s.repo.FindByOwnerAndID(ctx, owner, lineID)
	if err != nil {
		return nil, err
	}

	product, err := s.catalog.FindByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product, quantity)
	}

	if err := s.repo.SetQuantity(ctx, line.ID, quantity); err != nil {
		return nil, err
	}
	line.Quantity = quantity
	return line, nil
}

func (s *service) Remove(ctx context.Context, owner identity.Owner, lineID uint64) error {
	if owner.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	line, err := s.repo.FindByOwnerAndID(ctx, owner, lineID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, line.ID)
}

func (s *service) Clear(ctx context.Context, owner identity.Owner) error {
	if owner.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	return s.repo.DeleteByOwner(ctx, owner)
}

func (s *service) Count(ctx context.Context, owner identity.Owner) (int, error) {
	if owner.IsZero() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "cart owner required")
	}
	return s.repo.SumQuantity(ctx, owner)
}

func insufficientStock(product *models.Product, requested int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s", product.Title)).
		WithDetails(map[string]any{
			"product_id": product.ID,
			"product":    product.Title,
			"requested":  requested,
			"available":  product.Stock,
		})
}
