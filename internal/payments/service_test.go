package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/annisahuljannah/cadoobag/internal/inventory"
	"github.com/annisahuljannah/cadoobag/internal/orders"
	"github.com/annisahuljannah/cadoobag/pkg/db/models"
	"github.com/annisahuljannah/cadoobag/pkg/enums"
	pkgerrors "github.com/annisahuljannah/cadoobag/pkg/errors"
	"github.com/annisahuljannah/cadoobag/pkg/metrics"
	"github.com/annisahuljannah/cadoobag/pkg/paygate"
)

const testSecret = "callback-secret"

var testDBSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:paymentstest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	))
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db      *gorm.DB
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	service, err := NewService(
		orders.NewRepository(db),
		NewRepository(db),
		inventory.NewLedger(db),
		gormTxRunner{db: db},
		testSecret,
		nil,
		metrics.NewCheckoutMetrics(nil),
	)
	require.NoError(t, err)

	return &fixture{db: db, service: service}
}

// seedOrder creates a pending order with one reserved line.
func (f *fixture) seedOrder(t *testing.T, method string) (*models.Order, uuid.UUID) {
	t.Helper()
	variantID := uuid.New()
	require.NoError(t, f.db.Create(&models.InventoryItem{
		VariantID: variantID,
		Stock:     10,
		Reserved:  2,
	}).Error)

	order := &models.Order{
		ID:             uuid.New(),
		OrderNumber:    orders.NewOrderNumber(time.Now()),
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
		PaymentMethod:  method,
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.PaymentStatusUnpaid,
		Items: []models.OrderItem{
			{ID: uuid.New(), VariantID: &variantID, Name: "Tote Bag", SKU: "TB-001", UnitPriceCents: 150000, Qty: 2, TotalCents: 300000},
		},
	}
	require.NoError(t, f.db.Create(order).Error)
	return order, variantID
}

func (f *fixture) seedManualPayment(t *testing.T, order *models.Order) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  enums.PaymentMethodManualTransfer,
		Status:  enums.PaymentStatusUnpaid,
	}
	require.NoError(t, f.db.Create(payment).Error)
	return payment
}

func signedCallback(t *testing.T, merchantRef, status string) ([]byte, string) {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"reference":    "T1234",
		"merchant_ref": merchantRef,
		"status":       status,
	})
	require.NoError(t, err)
	return body, paygate.CallbackSignature(testSecret, body)
}

func (f *fixture) reloadOrder(t *testing.T, id uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, f.db.First(&order, "id = ?", id).Error)
	return order
}

func (f *fixture) reloadInventory(t *testing.T, variantID uuid.UUID) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	require.NoError(t, f.db.First(&item, "variant_id = ?", variantID).Error)
	return item
}

func TestCallbackMissingSignature(t *testing.T) {
	f := newFixture(t)

	err := f.service.HandleGatewayCallback(context.Background(), []byte(`{}`), "")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingSignature))
}

func TestCallbackInvalidSignature(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, "BRIVA")
	body, _ := signedCallback(t, order.OrderNumber, "PAID")

	err := f.service.HandleGatewayCallback(context.Background(), body, "deadbeef")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusUnpaid, reloaded.PaymentStatus)
}

func TestVerifyCallbackSignatureStandsAlone(t *testing.T) {
	f := newFixture(t)
	body, sig := signedCallback(t, "ORD-20260830-ABCDEF", "PAID")

	assert.NoError(t, f.service.VerifyCallbackSignature(body, sig))
	assert.True(t, pkgerrors.HasCode(
		f.service.VerifyCallbackSignature(body, ""), pkgerrors.CodeMissingSignature))
	assert.True(t, pkgerrors.HasCode(
		f.service.VerifyCallbackSignature(body, "deadbeef"), pkgerrors.CodeInvalidSignature))
}

func TestCallbackSignatureOverTamperedBody(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, "BRIVA")
	_, sig := signedCallback(t, order.OrderNumber, "PAID")

	tampered := []byte(`{"merchant_ref":"` + order.OrderNumber + `","status":"FAILED"}`)
	err := f.service.HandleGatewayCallback(context.Background(), tampered, sig)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidSignature))
}

func TestCallbackPaidMovesOrderToProcessing(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, "BRIVA")
	body, sig := signedCallback(t, order.OrderNumber, "PAID")

	require.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	require.NotNil(t, reloaded.PaidAt)
}

func TestCallbackExpiredReleasesInventory(t *testing.T) {
	f := newFixture(t)
	order, variantID := f.seedOrder(t, "BRIVA")
	body, sig := signedCallback(t, order.OrderNumber, "EXPIRED")

	require.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusExpired, reloaded.PaymentStatus)

	item := f.reloadInventory(t, variantID)
	assert.Equal(t, 0, item.Reserved)
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	f := newFixture(t)
	order, variantID := f.seedOrder(t, "BRIVA")
	body, sig := signedCallback(t, order.OrderNumber, "FAILED")

	require.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))
	require.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)
	assert.Equal(t, enums.PaymentStatusFailed, reloaded.PaymentStatus)

	// The first delivery released two units; the replay must not
	// release two more.
	item := f.reloadInventory(t, variantID)
	assert.Equal(t, 0, item.Reserved)
	assert.Equal(t, 10, item.Stock)
}

func TestCallbackUnknownOrderAcknowledged(t *testing.T) {
	f := newFixture(t)
	body, sig := signedCallback(t, "ORD-20260830-FFFFFF", "PAID")

	assert.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))
}

func TestCallbackUnknownStatusRecordedVerbatim(t *testing.T) {
	f := newFixture(t)
	order, variantID := f.seedOrder(t, "BRIVA")
	body, sig := signedCallback(t, order.OrderNumber, "ON_HOLD")

	require.NoError(t, f.service.HandleGatewayCallback(context.Background(), body, sig))

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.OrderStatusPending, reloaded.Status)
	assert.Equal(t, enums.PaymentStatus("ON_HOLD"), reloaded.PaymentStatus)

	item := f.reloadInventory(t, variantID)
	assert.Equal(t, 2, item.Reserved)
}

func TestManualFlowUploadVerify(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, enums.PaymentMethodManualTransfer)
	payment := f.seedManualPayment(t, order)
	ctx := context.Background()

	uploaded, err := f.service.UploadManualProof(ctx, payment.ID, "uploads/proof-1.jpg", map[string]any{
		"sender_account": "1234567890",
		"transfer_date":  "2026-08-30",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPendingVerification, uploaded.Status)
	require.NotNil(t, uploaded.ProofImageURL)
	assert.Equal(t, "uploads/proof-1.jpg", *uploaded.ProofImageURL)
	assert.Equal(t, "1234567890", uploaded.Meta["sender_account"])

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPendingVerification, reloaded.PaymentStatus)

	verified, err := f.service.VerifyManualPayment(ctx, payment.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, "admin-1", *verified.VerifiedBy)
	require.NotNil(t, verified.VerifiedAt)

	reloaded = f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusPaid, reloaded.PaymentStatus)
	assert.Equal(t, enums.OrderStatusProcessing, reloaded.Status)

	// Second verification attempt must be rejected.
	_, err = f.service.VerifyManualPayment(ctx, payment.ID, "admin-2")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestUploadProofRejectsNonManualPayment(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, "BRIVA")
	payment := &models.Payment{
		ID:      uuid.New(),
		OrderID: order.ID,
		Method:  "BRIVA",
		Status:  enums.PaymentStatusUnpaid,
	}
	require.NoError(t, f.db.Create(payment).Error)

	_, err := f.service.UploadManualProof(context.Background(), payment.ID, "uploads/proof.jpg", nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidPaymentMethod))
}

func TestUploadProofRejectsPaidPayment(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, enums.PaymentMethodManualTransfer)
	payment := f.seedManualPayment(t, order)
	require.NoError(t, f.db.Model(&models.Payment{}).
		Where("id = ?", payment.ID).
		Update("status", enums.PaymentStatusPaid).Error)

	_, err := f.service.UploadManualProof(context.Background(), payment.ID, "uploads/proof.jpg", nil)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestRejectManualPaymentReleasesInventoryAndCancels(t *testing.T) {
	f := newFixture(t)
	order, variantID := f.seedOrder(t, enums.PaymentMethodManualTransfer)
	payment := f.seedManualPayment(t, order)
	ctx := context.Background()

	_, err := f.service.UploadManualProof(ctx, payment.ID, "uploads/proof.jpg", nil)
	require.NoError(t, err)

	rejected, err := f.service.RejectManualPayment(ctx, payment.ID, "amount does not match")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionNote)
	assert.Equal(t, "amount does not match", *rejected.RejectionNote)
	require.NotNil(t, rejected.RejectedAt)

	reloaded := f.reloadOrder(t, order.ID)
	assert.Equal(t, enums.PaymentStatusFailed, reloaded.PaymentStatus)
	assert.Equal(t, enums.OrderStatusCancelled, reloaded.Status)

	item := f.reloadInventory(t, variantID)
	assert.Equal(t, 0, item.Reserved)
}

func TestRejectManualPaymentRequiresReason(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, enums.PaymentMethodManualTransfer)
	payment := f.seedManualPayment(t, order)

	_, err := f.service.RejectManualPayment(context.Background(), payment.ID, "   ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestListPendingVerification(t *testing.T) {
	f := newFixture(t)
	order, _ := f.seedOrder(t, enums.PaymentMethodManualTransfer)
	payment := f.seedManualPayment(t, order)
	ctx := context.Background()

	list, err := f.service.ListPendingVerification(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.service.UploadManualProof(ctx, payment.ID, "uploads/proof.jpg", nil)
	require.NoError(t, err)

	list, err = f.service.ListPendingVerification(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, payment.ID, list[0].ID)
}

func TestBanksReturnsCopy(t *testing.T) {
	banks := Banks()
	require.NotEmpty(t, banks)
	banks[0].BankName = "mutated"
	assert.NotEqual(t, "mutated", Banks()[0].BankName)
}
