// Package cart is the per-user shopping cart. Every mutation runs under the
// user's cart lock so checkout always reads a point-in-time cart.
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/01moynul/tvshop-golang/internal/apperr"
	"github.com/01moynul/tvshop-golang/internal/lock"
	"github.com/01moynul/tvshop-golang/internal/models"
	"github.com/rs/zerolog"
)

// ErrNotCleared is returned by WithSnapshot when fn succeeded and asked for
// the cart to be cleared but the clear failed. Whatever fn did still stands.
var ErrNotCleared = errors.New("cart not cleared")

// Repository is the cart persistence the service needs. *store.Store implements it.
type Repository interface {
	Product(ctx context.Context, id int64) (*models.Product, error)
	CartLines(ctx context.Context, userID string) ([]models.CartLine, error)
	AddCartLine(ctx context.Context, line models.CartLine) error
	SetCartLineQuantity(ctx context.Context, userID string, productID int64, qty int) (bool, error)
	DeleteCartLine(ctx context.Context, userID string, productID int64) error
	ClearCart(ctx context.Context, userID string) error
	ReplaceCart(ctx context.Context, line models.CartLine) error
	CartCount(ctx context.Context, userID string) (int, error)
}

type Service struct {
	repo   Repository
	locker lock.Locker
	logger zerolog.Logger
}

func NewService(repo Repository, locker lock.Locker, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		logger: logger.With().Str("component", "cart").Logger(),
	}
}

// Lines returns the user's cart, oldest line first.
func (s *Service) Lines(ctx context.Context, userID string) ([]models.CartLine, error) {
	if err := checkUser(userID); err != nil {
		return nil, err
	}
	return s.repo.CartLines(ctx, userID)
}

// Add puts one unit of the product in the cart. A product already in the
// cart gets its quantity bumped; its price snapshot is kept.
func (s *Service) Add(ctx context.Context, userID string, productID int64) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	product, err := s.repo.Product(ctx, productID)
	if err != nil {
		return err
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		if err := s.repo.AddCartLine(ctx, snapshot(userID, product)); err != nil {
			return err
		}
		s.logger.Debug().Str("user_id", userID).Int64("product_id", productID).Msg("added to cart")
		return nil
	})
}

// SetQuantity overwrites the line's quantity. Zero removes the line and a
// missing line is left missing.
func (s *Service) SetQuantity(ctx context.Context, userID string, productID int64, qty int) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	if qty < 0 {
		return fmt.Errorf("quantity %d: %w", qty, apperr.ErrInvalidArgument)
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		if qty == 0 {
			return s.repo.DeleteCartLine(ctx, userID, productID)
		}
		_, err := s.repo.SetCartLineQuantity(ctx, userID, productID, qty)
		return err
	})
}

func (s *Service) Remove(ctx context.Context, userID string, productID int64) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		return s.repo.DeleteCartLine(ctx, userID, productID)
	})
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		return s.repo.ClearCart(ctx, userID)
	})
}

// Count is the total number of units in the cart.
func (s *Service) Count(ctx context.Context, userID string) (int, error) {
	if err := checkUser(userID); err != nil {
		return 0, err
	}
	return s.repo.CartCount(ctx, userID)
}

// Replace empties the cart and leaves exactly one unit of the product (buy now).
func (s *Service) Replace(ctx context.Context, userID string, productID int64) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	product, err := s.repo.Product(ctx, productID)
	if err != nil {
		return err
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		return s.repo.ReplaceCart(ctx, snapshot(userID, product))
	})
}

// SnapshotFunc receives a point-in-time read of the cart while the user's
// lock is held. Returning clear=true with a nil error empties the cart
// before the lock is released.
type SnapshotFunc func(ctx context.Context, lines []models.CartLine) (clear bool, err error)

// WithSnapshot runs fn with the cart locked from read to (optional) clear.
// No add or remove for the same user can interleave.
func (s *Service) WithSnapshot(ctx context.Context, userID string, fn SnapshotFunc) error {
	if err := checkUser(userID); err != nil {
		return err
	}
	return s.locked(ctx, userID, func(ctx context.Context) error {
		lines, err := s.repo.CartLines(ctx, userID)
		if err != nil {
			return err
		}
		clear, err := fn(ctx, lines)
		if err != nil || !clear {
			return err
		}
		// The order is already paid at this point; finish even if the caller gave up.
		if err := s.repo.ClearCart(context.WithoutCancel(ctx), userID); err != nil {
			return fmt.Errorf("%w after checkout: %w", ErrNotCleared, err)
		}
		return nil
	})
}

func (s *Service) locked(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Lock(ctx, lock.CartKey(userID))
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("could not release cart lock")
		}
	}()
	return fn(ctx)
}

func snapshot(userID string, p *models.Product) models.CartLine {
	return models.CartLine{
		UserID:       userID,
		ProductID:    p.ID,
		ProductName:  p.Name,
		MainImageURL: p.SafeMainImageURL(),
		UnitPrice:    p.Price,
		Quantity:     1,
	}
}

func checkUser(userID string) error {
	if userID == "" {
		return fmt.Errorf("empty user id: %w", apperr.ErrInvalidArgument)
	}
	return nil
}
