package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/memoria-ph/memoria-backend/pkg/db/models"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  quantity INTEGER NOT NULL DEFAULT 1,
  image_url TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedCart(t *testing.T, db *gorm.DB, userID uuid.UUID) *models.Cart {
	t.Helper()
	cart := &models.Cart{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Create(cart).Error)
	return cart
}

func seedCartItem(t *testing.T, db *gorm.DB, cartID uuid.UUID, quantity int) *models.CartItem {
	t.Helper()
	item := &models.CartItem{
		ID:        uuid.New(),
		CartID:    cartID,
		ProductID: uuid.New(),
		Name:      "White Lily Wreath",
		UnitPrice: decimal.NewFromInt(1500),
		Quantity:  quantity,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func TestFindCartByUserPreloadsItems(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	cart := seedCart(t, db, userID)
	seedCartItem(t, db, cart.ID, 2)
	seedCartItem(t, db, cart.ID, 1)

	found, err := repo.FindCartByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, found.ID)
	assert.Len(t, found.Items, 2)

	_, err = repo.FindCartByUser(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindItemByProduct(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, uuid.New())
	item := seedCartItem(t, db, cart.ID, 3)

	found, err := repo.FindItemByProduct(ctx, cart.ID, item.ProductID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)
	assert.Equal(t, 3, found.Quantity)

	_, err = repo.FindItemByProduct(ctx, cart.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateItemQuantityAndDelete(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	cart := seedCart(t, db, uuid.New())
	item := seedCartItem(t, db, cart.ID, 1)

	require.NoError(t, repo.UpdateItemQuantity(ctx, item.ID, 5))

	var reloaded models.CartItem
	require.NoError(t, db.First(&reloaded, "id = ?", item.ID).Error)
	assert.Equal(t, 5, reloaded.Quantity)

	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	err := db.First(&reloaded, "id = ?", item.ID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClearItemsScopedToCart(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := seedCart(t, db, uuid.New())
	second := seedCart(t, db, uuid.New())
	seedCartItem(t, db, first.ID, 1)
	seedCartItem(t, db, first.ID, 2)
	kept := seedCartItem(t, db, second.ID, 4)

	require.NoError(t, repo.ClearItems(ctx, first.ID))

	var count int64
	require.NoError(t, db.Model(&models.CartItem{}).Where("cart_id = ?", first.ID).Count(&count).Error)
	assert.Zero(t, count)

	var survivor models.CartItem
	require.NoError(t, db.First(&survivor, "id = ?", kept.ID).Error)
	assert.Equal(t, 4, survivor.Quantity)
}
