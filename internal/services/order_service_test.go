// internal/services/order_service_test.go
package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c13agent/aaas-backend/internal/models"
)

type fakeSigner struct {
	signed map[string]string
}

func (f *fakeSigner) SignDownloadURL(rawURL string) string {
	if s, ok := f.signed[rawURL]; ok {
		return s
	}
	return rawURL
}

type fakeVerifier struct {
	err error
	// captured arguments from the last call
	txHash string
	linkID int64
	buyer  string
}

func (f *fakeVerifier) VerifyPayment(ctx context.Context, txHash string, linkID int64, buyerWallet string) error {
	f.txHash = txHash
	f.linkID = linkID
	f.buyer = buyerWallet
	return f.err
}

type fakeOrderStore struct {
	products  map[uuid.UUID]*models.Product
	orders    []models.Order
	createErr error
}

func newFakeOrderStore(products ...*models.Product) *fakeOrderStore {
	store := &fakeOrderStore{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		store.products[p.ID] = p
	}
	return store
}

func (f *fakeOrderStore) GetProduct(id uuid.UUID) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, ErrProductNotFound
}

func (f *fakeOrderStore) TxHashSettled(txHash string) (bool, error) {
	for _, o := range f.orders {
		if o.TxHash != nil && *o.TxHash == txHash {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeOrderStore) CreateSettledOrder(order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, o := range f.orders {
		if o.TxHash != nil && *o.TxHash == *order.TxHash {
			return ErrDuplicateSettlement
		}
	}
	order.ID = uuid.New()
	f.orders = append(f.orders, *order)
	f.products[order.ProductID].SalesCount++
	return nil
}

func (f *fakeOrderStore) GetOrderWithProduct(id uuid.UUID) (*models.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			o.Product = *f.products[o.ProductID]
			return &o, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (f *fakeOrderStore) ListBuyerOrders(wallet string) ([]models.Order, error) {
	return f.orders, nil
}

func (f *fakeOrderStore) ListSellerOrders(wallet string) ([]models.Order, error) {
	return f.orders, nil
}

func purchasableProduct() *models.Product {
	linkID := int64(42)
	hashtag := "aaas_11223344"
	p := &models.Product{
		SellerWallet:     "0xseller",
		Name:             "Synthwave Sample Pack",
		PriceUSDC:        10.00,
		DeliveryMethod:   models.DeliveryMethodFile,
		DownloadURL:      "https://bucket.s3.us-east-1.amazonaws.com/files/pack.zip",
		BlockchainLinkID: &linkID,
		Hashtag:          &hashtag,
		Status:           models.ProductStatusActive,
	}
	p.ID = uuid.New()
	return p
}

func settlementRequest(productID uuid.UUID) *RecordSettlementRequest {
	return &RecordSettlementRequest{
		ProductID:   productID,
		BuyerWallet: "0xBBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB",
		TxHash:      "0x" + strings.Repeat("ab", 32),
	}
}

func TestRecordSettlement(t *testing.T) {
	product := purchasableProduct()
	store := newFakeOrderStore(product)
	verifier := &fakeVerifier{}
	svc := NewOrderService(store, verifier, &fakeSigner{})

	before := time.Now().UTC()
	order, err := svc.RecordSettlement(context.Background(), settlementRequest(product.ID))

	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	assert.Equal(t, product.PriceUSDC, order.AmountUSDC)
	assert.Equal(t, int64(42), order.BlockchainLinkID)
	// buyer wallet is normalized to lowercase
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", order.BuyerWallet)

	// confirmation timestamp is server-assigned
	require.NotNil(t, order.PaymentConfirmedAt)
	assert.False(t, order.PaymentConfirmedAt.Before(before))
	assert.False(t, order.PaymentConfirmedAt.After(time.Now().UTC()))

	// verification ran against the product's link id and normalized buyer
	assert.Equal(t, int64(42), verifier.linkID)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", verifier.buyer)

	// order persisted and sales count incremented in the same store call
	require.Len(t, store.orders, 1)
	assert.Equal(t, int64(1), product.SalesCount)
}

func TestRecordSettlementDuplicateTxHash(t *testing.T) {
	product := purchasableProduct()
	store := newFakeOrderStore(product)
	svc := NewOrderService(store, &fakeVerifier{}, &fakeSigner{})

	_, err := svc.RecordSettlement(context.Background(), settlementRequest(product.ID))
	require.NoError(t, err)

	_, err = svc.RecordSettlement(context.Background(), settlementRequest(product.ID))
	assert.ErrorIs(t, err, ErrDuplicateSettlement)

	require.Len(t, store.orders, 1, "exactly one completed order per tx hash")
	assert.Equal(t, int64(1), product.SalesCount)
}

// Two settlements racing past the pre-check both reach the insert; the
// unique index rejects the loser and the error passes through.
func TestRecordSettlementInsertRace(t *testing.T) {
	product := purchasableProduct()
	store := newFakeOrderStore(product)
	store.createErr = ErrDuplicateSettlement
	svc := NewOrderService(store, &fakeVerifier{}, &fakeSigner{})

	_, err := svc.RecordSettlement(context.Background(), settlementRequest(product.ID))
	assert.ErrorIs(t, err, ErrDuplicateSettlement)
	assert.Equal(t, int64(0), product.SalesCount)
}

func TestRecordSettlementNotPurchasable(t *testing.T) {
	draft := purchasableProduct()
	draft.BlockchainLinkID = nil
	draft.Status = models.ProductStatusDraft

	paused := purchasableProduct()
	paused.Status = models.ProductStatusPaused

	store := newFakeOrderStore(draft, paused)
	svc := NewOrderService(store, &fakeVerifier{}, &fakeSigner{})

	_, err := svc.RecordSettlement(context.Background(), settlementRequest(draft.ID))
	assert.ErrorIs(t, err, ErrProductNotPurchasable)

	_, err = svc.RecordSettlement(context.Background(), settlementRequest(paused.ID))
	assert.ErrorIs(t, err, ErrProductNotPurchasable)

	assert.Empty(t, store.orders)
}

func TestRecordSettlementUnknownProduct(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), &fakeVerifier{}, &fakeSigner{})

	_, err := svc.RecordSettlement(context.Background(), settlementRequest(uuid.New()))
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRecordSettlementVerificationFailure(t *testing.T) {
	product := purchasableProduct()
	store := newFakeOrderStore(product)
	verifier := &fakeVerifier{err: errors.New("payment event not found")}
	svc := NewOrderService(store, verifier, &fakeSigner{})

	_, err := svc.RecordSettlement(context.Background(), settlementRequest(product.ID))

	assert.ErrorContains(t, err, "payment verification failed")
	assert.Empty(t, store.orders, "no order recorded for an unverified payment")
	assert.Equal(t, int64(0), product.SalesCount)
}

func TestGetOrderStatusMintsFreshDownloadURL(t *testing.T) {
	product := purchasableProduct()
	store := newFakeOrderStore(product)
	signer := &fakeSigner{signed: map[string]string{
		product.DownloadURL: "https://signed.example/pack.zip?sig=abc",
	}}
	svc := NewOrderService(store, &fakeVerifier{}, signer)

	order, err := svc.RecordSettlement(context.Background(), settlementRequest(product.ID))
	require.NoError(t, err)

	status, err := svc.GetOrderStatus(order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, status.Status)
	assert.Equal(t, product.Name, status.ProductName)
	assert.Equal(t, "https://signed.example/pack.zip?sig=abc", status.DownloadURL)
}

func TestGetOrderStatusUnknownOrder(t *testing.T) {
	svc := NewOrderService(newFakeOrderStore(), &fakeVerifier{}, &fakeSigner{})

	_, err := svc.GetOrderStatus(uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestResolveDeliveryFile(t *testing.T) {
	signer := &fakeSigner{signed: map[string]string{
		"https://bucket.s3.us-east-1.amazonaws.com/files/pack.zip": "https://signed.example/pack.zip?sig=abc",
	}}
	svc := NewOrderService(nil, nil, signer)

	product := &models.Product{
		DeliveryMethod: models.DeliveryMethodFile,
		DownloadURL:    "https://bucket.s3.us-east-1.amazonaws.com/files/pack.zip",
	}

	assert.Equal(t, "https://signed.example/pack.zip?sig=abc", svc.resolveDelivery(product))
}

func TestResolveDeliveryLinkPassesThrough(t *testing.T) {
	svc := NewOrderService(nil, nil, &fakeSigner{})

	product := &models.Product{
		DeliveryMethod: models.DeliveryMethodLink,
		DownloadURL:    "https://example.com/course",
	}

	assert.Equal(t, "https://example.com/course", svc.resolveDelivery(product))
}

func TestResolveDeliveryEmpty(t *testing.T) {
	svc := NewOrderService(nil, nil, &fakeSigner{})

	product := &models.Product{DeliveryMethod: models.DeliveryMethodFile}
	assert.Empty(t, svc.resolveDelivery(product))
}
