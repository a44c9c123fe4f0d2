package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/memoria-ph/memoria-backend/pkg/errors"
	"github.com/memoria-ph/memoria-backend/pkg/logger"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AddItemInput is one product line added to a cart. Prices and names are
// snapshotted from the storefront at add time; there is no catalog lookup.
type AddItemInput struct {
	ProductID uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	ImageURL  *string
}

// ItemView is one cart line with its computed line total.
type ItemView struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	ImageURL  *string         `json:"image_url,omitempty"`
}

// Snapshot is the full cart as returned to the storefront.
type Snapshot struct {
	CartID   uuid.UUID       `json:"cart_id"`
	Items    []ItemView      `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Currency string          `json:"currency"`
}

// Service manages the per-user cart. Every operation resolves the cart
// from the authenticated user id; callers never pass cart ids.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*Snapshot, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Snapshot, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Snapshot, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Snapshot, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the cart service with its dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	cart, err := s.loadOrCreate(ctx, s.repo, userID)
	if err != nil {
		return nil, err
	}
	return toSnapshot(cart), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*Snapshot, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := s.loadOrCreate(ctx, repo, userID)
		if err != nil {
			return err
		}

		existing, err := repo.FindItemByProduct(ctx, cart.ID, input.ProductID)
		switch {
		case err == nil:
			// Adds accumulate onto the existing line. Price and name stay
			// whatever the first add snapshotted.
			return repo.UpdateItemQuantity(ctx, existing.ID, existing.Quantity+input.Quantity)
		case errors.Is(err, gorm.ErrRecordNotFound):
			return repo.CreateItem(ctx, &models.CartItem{
				CartID:    cart.ID,
				ProductID: input.ProductID,
				Name:      input.Name,
				UnitPrice: input.UnitPrice,
				Quantity:  input.Quantity,
				ImageURL:  input.ImageURL,
			})
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*Snapshot, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		if quantity <= 0 {
			return repo.DeleteItem(ctx, item.ID)
		}
		return repo.UpdateItemQuantity(ctx, item.ID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*Snapshot, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		item, err := s.findOwnedItem(ctx, repo, userID, itemID)
		if err != nil {
			return err
		}
		return repo.DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.repo.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}
	return s.repo.ClearItems(ctx, cart.ID)
}

// loadOrCreate resolves the user's cart, creating an empty one on first use.
func (s *service) loadOrCreate(ctx context.Context, repo Repository, userID uuid.UUID) (*models.Cart, error) {
	cart, err := repo.FindCartByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}
	created, err := repo.CreateCart(ctx, &models.Cart{UserID: userID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create cart")
	}
	return created, nil
}

// findOwnedItem resolves an item id within the caller's own cart. Items in
// other users' carts are indistinguishable from missing ones.
func (s *service) findOwnedItem(ctx context.Context, repo Repository, userID, itemID uuid.UUID) (*models.CartItem, error) {
	cart, err := repo.FindCartByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load cart")
	}
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
}

func toSnapshot(cart *models.Cart) *Snapshot {
	items := make([]ItemView, 0, len(cart.Items))
	subtotal := decimal.Zero
	for _, item := range cart.Items {
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, ItemView{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
			ImageURL:  item.ImageURL,
		})
	}
	return &Snapshot{
		CartID:   cart.ID,
		Items:    items,
		Subtotal: subtotal,
		Currency: "PHP",
	}
}
