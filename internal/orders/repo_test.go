package orders

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
)

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:orderstest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Order{}, &models.OrderItem{}))
	return conn
}

func sampleOrder() *models.Order {
	return &models.Order{
		OrderNumber:    NewOrderNumber(time.Now()),
		CustomerName:   "Sari Dewi",
		CustomerEmail:  "sari@example.test",
		CustomerPhone:  "+628123456789",
		Courier:        "jne",
		CourierService: "REG",
		AddressLine:    "Jl. Merdeka 1",
		City:           "Bandung",
		Province:       "Jawa Barat",
		SubtotalCents:  300000,
		TotalCents:     315000,
		PaymentMethod:  "BRIVA",
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusUnpaid,
		Items: []models.OrderItem{
			{Name: "Tote Bag", SKU: "TB-001", UnitPriceCents: 150000, Qty: 2, TotalCents: 300000},
		},
	}
}

func TestCreateAssignsIDsAndLinksItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	order := sampleOrder()
	require.NoError(t, repo.Create(context.Background(), order))

	assert.NotEqual(t, uuid.Nil, order.ID)
	require.Len(t, order.Items, 1)
	assert.NotEqual(t, uuid.Nil, order.Items[0].ID)
	assert.Equal(t, order.ID, order.Items[0].OrderID)
}

func TestFindByNumberPreloadsItems(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	order := sampleOrder()
	require.NoError(t, repo.Create(context.Background(), order))

	found, err := repo.FindByNumber(context.Background(), order.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "TB-001", found.Items[0].SKU)
}

func TestFindByNumberMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindByNumber(context.Background(), "ORD-00000000-FFFFFF")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUpdateAppliesStatusChanges(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	order := sampleOrder()
	require.NoError(t, repo.Create(context.Background(), order))

	ref := "T123456"
	require.NoError(t, repo.Update(context.Background(), order.ID, map[string]any{
		"status":         enums.OrderStatusCancelled,
		"payment_status": enums.PaymentStatusFailed,
		"gateway_ref":    ref,
	}))

	found, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCancelled, found.Status)
	assert.Equal(t, enums.PaymentStatusFailed, found.PaymentStatus)
	require.NotNil(t, found.GatewayRef)
	assert.Equal(t, ref, *found.GatewayRef)
}

func TestNewOrderNumberShape(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	number := NewOrderNumber(now)

	assert.Regexp(t, `^ORD-20260830-[0-9A-F]{10}$`, number)

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		n := NewOrderNumber(now)
		assert.False(t, seen[n])
		seen[n] = true
	}
}
