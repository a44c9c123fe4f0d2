package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
	"github.com/memoria-ph/memoria-backend/pkg/pagination"
)

// Repository defines persistence operations for the order tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	FindOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error)
	FindCadaverRecord(ctx context.Context, recordID uuid.UUID) (*models.CadaverRecord, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	SettlePendingOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error)
	LinkCadaverRecord(ctx context.Context, recordID, orderID uuid.UUID) error
	NextTrackingSequence(ctx context.Context, carrier string) (int64, error)
}
