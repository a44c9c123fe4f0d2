package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
	"github.com/memoria-ph/memoria-backend/pkg/enums"
	"github.com/memoria-ph/memoria-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("external_id = ?", externalID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItem(ctx context.Context, orderID, itemID uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ? AND order_id = ?", itemID, orderID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindCadaverRecord(ctx context.Context, recordID uuid.UUID) (*models.CadaverRecord, error) {
	var record models.CadaverRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", recordID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	return r.listOrders(ctx, query, params, filters)
}

func (r *repository) ListOrders(ctx context.Context, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	return r.listOrders(ctx, query, params, filters)
}

func (r *repository) listOrders(ctx context.Context, query *gorm.DB, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)
	var rows []models.Order
	err = query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		itemCount := 0
		for _, item := range row.Items {
			itemCount += item.Quantity
		}
		list.Orders = append(list.Orders, OrderSummary{
			ID:             row.ID,
			Status:         row.Status,
			Total:          row.Total,
			Currency:       row.Currency,
			ItemCount:      itemCount,
			TrackingNumber: row.TrackingNumber,
			CreatedAt:      row.CreatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) UpdateOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}

// SettlePendingOrder applies a terminal payment status with a conditional
// write. The WHERE status='pending' guard makes webhook redelivery a no-op:
// the second delivery matches zero rows and reports applied=false.
func (r *repository) SettlePendingOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, enums.OrderStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) LinkCadaverRecord(ctx context.Context, recordID, orderID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CadaverRecord{}).
		Where("id = ? AND (order_id IS NULL OR order_id = ?)", recordID, orderID).
		Update("order_id", orderID).Error
}

// NextTrackingSequence atomically claims the next sequence value for the
// carrier. The upsert serializes concurrent claims on the carrier row so no
// two callers ever observe the same value.
func (r *repository) NextTrackingSequence(ctx context.Context, carrier string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO tracking_sequences (carrier, next_seq, updated_at)
		 VALUES (?, 1, CURRENT_TIMESTAMP)
		 ON CONFLICT (carrier)
		 DO UPDATE SET next_seq = tracking_sequences.next_seq + 1, updated_at = CURRENT_TIMESTAMP
		 RETURNING next_seq`,
		carrier,
	).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("claim tracking sequence: %w", err)
	}
	return seq, nil
}
