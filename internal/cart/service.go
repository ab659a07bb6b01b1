package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/grocerly/grocerly-backend/internal/products"
	"github.com/grocerly/grocerly-backend/internal/stores"
	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// Service keeps per-user baskets. Checkout consumes the rows; the endpoints
// stay minimal.
type Service interface {
	Add(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	Remove(ctx context.Context, userID, itemID uuid.UUID) error
}

// AddInput describes one line to put in the basket. Re-adding an existing
// line replaces its quantity.
type AddInput struct {
	StoreID   uuid.UUID
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int
}

type service struct {
	repo     Repository
	stores   stores.Repository
	products products.Repository
}

type ServiceParams struct {
	Repo     Repository
	Stores   stores.Repository
	Products products.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: params.Repo, stores: params.Stores, products: params.Products}, nil
}

func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	store, err := s.stores.GetActive(ctx, input.StoreID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}

	product, err := s.products.GetActive(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	variant, err := s.products.GetVariant(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}

	item := &models.CartItem{
		ID:        uuid.New(),
		UserID:    userID,
		StoreID:   input.StoreID,
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Quantity:  input.Quantity,
		UnitPrice: variant.Price,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save cart item")
	}
	return item, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.repo.GetOwned(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.repo.Delete(ctx, itemID)
}
