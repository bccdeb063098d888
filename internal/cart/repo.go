package cart

import (
	"context"

	"github.com/dukastore/backend/internal/identity"
	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/db/models"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository owns the cart_lines table. Every query is scoped by the
// owner union; a line id on its own is never trusted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByOwner(ctx context.Context, owner identity.Owner) ([]models.CartLine, error)
	FindByOwnerAndID(ctx context.Context, owner identity.Owner, lineID uint64) (*models.CartLine, error)
	FindByConfig(ctx context.Context, owner identity.Owner, productID uint64, variant *string) (*models.CartLine, error)
	Create(ctx context.Context, line *models.CartLine) error
	SetQuantity(ctx context.Context, lineID uint64, quantity int) error
	Delete(ctx context.Context, lineID uint64) error
	DeleteByOwner(ctx context.Context, owner identity.Owner) error
	Reassign(ctx context.Context, lineID uint64, userID uint64) error
	SumQuantity(ctx context.Context, owner identity.Owner) (int, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository on the provided connection.
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

// ownerScope dispatches the owner union onto the denormalized columns.
func ownerScope(q *gorm.DB, owner identity.Owner) *gorm.DB {
	if owner.IsUser() {
		return q.Where("user_id = ?", owner.UserID())
	}
	return q.Where("session_token = ?", owner.SessionToken())
}

func variantScope(q *gorm.DB, variant *string) *gorm.DB {
	if variant == nil {
		return q.Where("variant IS NULL")
	}
	return q.Where("variant = ?", *variant)
}

func (r *repository) ListByOwner(ctx context.Context, owner identity.Owner) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := ownerScope(r.db.WithContext(ctx), owner).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cart lines")
	}
	return lines, nil
}

func (r *repository) FindByOwnerAndID(ctx context.Context, owner identity.Owner, lineID uint64) (*models.CartLine, error) {
	var line models.CartLine
	err := ownerScope(r.db.WithContext(ctx), owner).
		First(&line, "id = ?", lineID).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return &line, nil
}

func (r *repository) FindByConfig(ctx context.Context, owner identity.Owner, productID uint64, variant *string) (*models.CartLine, error) {
	var line models.CartLine
	q := ownerScope(r.db.WithContext(ctx), owner).Where("product_id = ?", productID)
	err := variantScope(q, variant).First(&line).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line by config")
	}
	return &line, nil
}

func (r *repository) Create(ctx context.Context, line *models.CartLine) error {
	if err := r.db.WithContext(ctx).Create(line).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart line")
	}
	return nil
}

func (r *repository) SetQuantity(ctx context.Context, lineID uint64, quantity int) error {
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Update("quantity", quantity).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line quantity")
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, lineID uint64) error {
	err := r.db.WithContext(ctx).Delete(&models.CartLine{}, "id = ?", lineID).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart line")
	}
	return nil
}

func (r *repository) DeleteByOwner(ctx context.Context, owner identity.Owner) error {
	err := ownerScope(r.db.WithContext(ctx), owner).
		Delete(&models.CartLine{}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (r *repository) Reassign(ctx context.Context, lineID uint64, userID uint64) error {
	err := r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", lineID).
		Updates(map[string]any{
			"user_id":       userID,
			"session_token": nil,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign cart line")
	}
	return nil
}

func (r *repository) SumQuantity(ctx context.Context, owner identity.Owner) (int, error) {
	var total *int64
	err := ownerScope(r.db.WithContext(ctx).Model(&models.CartLine{}), owner).
		Select("SUM(quantity)").
		Scan(&total).Error
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum cart quantities")
	}
	if total == nil {
		return 0, nil
	}
	return int(*total), nil
}
