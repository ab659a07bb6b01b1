package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/grocerly/grocerly-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stores_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Store{}, &models.Timeslot{}))
	return conn
}

func seedStore(t *testing.T, conn *gorm.DB, active bool) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:             uuid.New(),
		Name:           "Fresh Corner",
		DeliveryCharge: decimal.NewFromInt(25),
		StoreCharge:    decimal.NewFromInt(10),
		IsActive:       active,
	}
	require.NoError(t, conn.Create(store).Error)
	return store
}

func TestGetActive(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	active := seedStore(t, conn, true)
	inactive := seedStore(t, conn, false)

	found, err := repo.GetActive(ctx, active.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, active.ID, found.ID)
	assert.True(t, found.DeliveryCharge.Equal(decimal.NewFromInt(25)))

	found, err = repo.GetActive(ctx, inactive.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = repo.GetActive(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCreatePersistsInactiveFlag(t *testing.T) {
	conn := newTestDB(t)

	inactive := seedStore(t, conn, false)

	var reloaded models.Store
	require.NoError(t, conn.First(&reloaded, "id = ?", inactive.ID).Error)
	assert.False(t, reloaded.IsActive)
}

func TestGetTimeslot(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	store := seedStore(t, conn, true)
	other := seedStore(t, conn, true)
	slot := &models.Timeslot{
		ID:        uuid.New(),
		StoreID:   store.ID,
		Label:     "Morning",
		StartTime: "07:00",
		EndTime:   "09:00",
		IsActive:  true,
	}
	require.NoError(t, conn.Create(slot).Error)

	found, err := repo.GetTimeslot(ctx, store.ID, slot.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Morning", found.Label)

	// Slot belongs to a different store.
	found, err = repo.GetTimeslot(ctx, other.ID, slot.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListActive(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	seedStore(t, conn, true)
	seedStore(t, conn, false)

	list, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
