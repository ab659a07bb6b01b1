package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
	pkgerrors "github.com/grocerly/grocerly-backend/pkg/errors"
)

// Service reserves and releases per-store stock. Both operations run
// inside the caller's transaction: a line item must never exist without
// the matching decrement having succeeded, and vice versa.
type Service interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error)
	Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error
}

// ReservationRequest identifies one stock line and a quantity.
type ReservationRequest struct {
	StoreID      uuid.UUID
	ProductID    uuid.UUID
	VariantID    uuid.UUID
	Quantity     int
	Subscription bool
}

// ReservationResult is the post-decrement snapshot for one request.
type ReservationResult struct {
	StoreID           uuid.UUID
	ProductID         uuid.UUID
	VariantID         uuid.UUID
	Reserved          int
	RemainingQuantity int
}

// ShortageDetail reports one line that could not be reserved.
type ShortageDetail struct {
	ProductID uuid.UUID `json:"productId"`
	VariantID uuid.UUID `json:"variantId"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

type service struct {
	repo Repository
}

// ServiceParams wires the inventory service dependencies.
type ServiceParams struct {
	Repo Repository
}

// NewService builds the inventory service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]ReservationResult, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if err := validateRequests(requests); err != nil {
		return nil, err
	}
	repo := s.repo.WithTx(tx)
	ordered := sortedRequests(requests)

	// First pass: lock every row and collect shortages so the caller
	// gets the full picture instead of failing on the first line.
	type lockedLine struct {
		request ReservationRequest
		stock   *models.StoreStock
	}
	locked := make([]lockedLine, 0, len(ordered))
	var shortages []ShortageDetail

	for _, req := range ordered {
		stock, err := repo.GetStockForUpdate(ctx, req.StoreID, req.ProductID, req.VariantID)
		if err != nil {
			return nil, err
		}
		available := 0
		if stock != nil {
			available = availableFor(stock, req.Subscription)
		}
		if stock == nil || available < req.Quantity {
			shortages = append(shortages, ShortageDetail{
				ProductID: req.ProductID,
				VariantID: req.VariantID,
				Requested: req.Quantity,
				Available: available,
			})
			continue
		}
		locked = append(locked, lockedLine{request: req, stock: stock})
	}

	if len(shortages) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeOutOfStock, "requested quantity is unavailable").
			WithDetails(shortages)
	}

	results := make([]ReservationResult, 0, len(locked))
	for _, line := range locked {
		req := line.request
		stock := line.stock
		if req.Subscription {
			stock.SubscriptionQuantity -= req.Quantity
		} else {
			stock.Quantity -= req.Quantity
		}
		if err := repo.SaveStock(ctx, stock); err != nil {
			return nil, err
		}
		if err := s.mirrorProductStock(ctx, repo, req.ProductID, -req.Quantity); err != nil {
			return nil, err
		}
		results = append(results, ReservationResult{
			StoreID:           req.StoreID,
			ProductID:         req.ProductID,
			VariantID:         req.VariantID,
			Reserved:          req.Quantity,
			RemainingQuantity: availableFor(stock, req.Subscription),
		})
	}
	return results, nil
}

func (s *service) Release(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if err := validateRequests(requests); err != nil {
		return err
	}
	repo := s.repo.WithTx(tx)

	for _, req := range sortedRequests(requests) {
		stock, err := repo.GetStockForUpdate(ctx, req.StoreID, req.ProductID, req.VariantID)
		if err != nil {
			return err
		}
		if stock == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("stock row missing for product %s", req.ProductID))
		}
		if req.Subscription {
			stock.SubscriptionQuantity += req.Quantity
		} else {
			stock.Quantity += req.Quantity
		}
		if err := repo.SaveStock(ctx, stock); err != nil {
			return err
		}
		if err := s.mirrorProductStock(ctx, repo, req.ProductID, req.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// mirrorProductStock keeps the legacy aggregate counter and the
// out_of_stock flag in sync with the per-store rows.
func (s *service) mirrorProductStock(ctx context.Context, repo Repository, productID uuid.UUID, delta int) error {
	product, err := repo.GetProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("product %s not found", productID))
	}
	product.Stock += delta
	if product.Stock < 0 {
		product.Stock = 0
	}
	product.OutOfStock = product.Stock == 0
	return repo.SaveProduct(ctx, product)
}

// sortedRequests copies the requests into a stable lock order so two
// transactions touching the same rows never lock them in opposite order.
func sortedRequests(requests []ReservationRequest) []ReservationRequest {
	ordered := make([]ReservationRequest, len(requests))
	copy(ordered, requests)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.StoreID != b.StoreID {
			return a.StoreID.String() < b.StoreID.String()
		}
		if a.ProductID != b.ProductID {
			return a.ProductID.String() < b.ProductID.String()
		}
		return a.VariantID.String() < b.VariantID.String()
	})
	return ordered
}

func availableFor(stock *models.StoreStock, subscription bool) int {
	if subscription {
		return stock.SubscriptionQuantity
	}
	return stock.Quantity
}

func validateRequests(requests []ReservationRequest) error {
	if len(requests) == 0 {
		return fmt.Errorf("at least one reservation request is required")
	}
	for _, req := range requests {
		if req.StoreID == uuid.Nil || req.ProductID == uuid.Nil || req.VariantID == uuid.Nil {
			return fmt.Errorf("store, product and variant ids are required")
		}
		if req.Quantity <= 0 {
			return fmt.Errorf("quantity must be positive")
		}
	}
	return nil
}
