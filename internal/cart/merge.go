package cart

import (
	"context"

	"github.com/dukastore/backend/internal/identity"
	pkgerrors "github.com/dukastore/backend/pkg/errors"
	"gorm.io/gorm"
)

// MergeOnLogin folds a guest cart into the authenticated user's cart.
// Lines colliding on (product, variant) combine quantities; the rest are
// reassigned in place. No stock validation happens here; checkout is the
// authoritative check. Running merge again with no guest lines left is a
// no-op, and the session token is discarded either way.
func (s *service) MergeOnLogin(ctx context.Context, sessionToken string, userID uint64) error {
	if sessionToken == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}
	if userID == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	guest := identity.OwnerForSession(sessionToken)
	user := identity.OwnerForUser(userID)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		guestLines, err := repo.ListByOwner(ctx, guest)
		if err != nil {
			return err
		}

		for _, guestLine := range guestLines {
			userLine, err := repo.FindByConfig(ctx, user, guestLine.ProductID, guestLine.Variant)
			if err != nil {
				return err
			}
			if userLine != nil {
				if err := repo.SetQuantity(ctx, userLine.ID, userLine.Quantity+guestLine.Quantity); err != nil {
					return err
				}
				if err := repo.Delete(ctx, guestLine.ID); err != nil {
					return err
				}
				continue
			}
			if err := repo.Reassign(ctx, guestLine.ID, userID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// The token stops being a cart owner even when no lines existed.
	if s.sessions != nil {
		if err := s.sessions.Forget(ctx, sessionToken); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "discard guest session")
		}
	}
	return nil
}
