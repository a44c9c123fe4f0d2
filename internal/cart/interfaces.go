package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
)

// Repository defines persistence operations for carts and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCartByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	CreateCart(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
}
