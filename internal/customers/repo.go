package customers

import (
	"context"
	"strings"

	"github.com/dukastore/backend/pkg/db"
	"github.com/dukastore/backend/pkg/db/models"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"gorm.io/gorm"
)

// Repository persists customer records. Email is the natural key; upsert
// is last-write-wins on contact details.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByEmail(ctx context.Context, email string) (*models.Customer, error)
	UpsertByEmail(ctx context.Context, customer *models.Customer) (*models.Customer, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a customer repository on the provided connection.
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

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		First(&customer, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	return &customer, nil
}

// UpsertByEmail creates the customer when absent, else rewrites name,
// phone, and addresses in place.
func (r *repository) UpsertByEmail(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	if customer == nil || strings.TrimSpace(customer.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	customer.Email = normalizeEmail(customer.Email)

	var existing models.Customer
	err := r.db.WithContext(ctx).First(&existing, "email = ?", customer.Email).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"full_name":        customer.FullName,
			"phone":            customer.Phone,
			"billing_address":  customer.BillingAddress,
			"shipping_address": customer.ShippingAddress,
			"country":          customer.Country,
		}
		if err := r.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update customer")
		}
		existing.FullName = customer.FullName
		existing.Phone = customer.Phone
		existing.BillingAddress = customer.BillingAddress
		existing.ShippingAddress = customer.ShippingAddress
		existing.Country = customer.Country
		return &existing, nil
	case db.IsNotFound(err):
		if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
		}
		return customer, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
