package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/internal/listings"
	"github.com/pixelfair/pixelfair-backend/internal/transactions"
	"github.com/pixelfair/pixelfair-backend/internal/users"
	"github.com/pixelfair/pixelfair-backend/pkg/db"
	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	"github.com/pixelfair/pixelfair-backend/pkg/enums"
	apperrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
)

type ledgerHarness struct {
	db      *gorm.DB
	svc     Service
	users   *users.Repository
	listing *listings.Repository
}

func setupLedgerTest(t *testing.T) *ledgerHarness {
	t.Helper()

	dsn := fmt.Sprintf("file:ledger_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	// a single pooled connection serializes concurrent write transactions,
	// matching the row-lock behavior Postgres provides
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingTag{},
		&models.Transaction{},
		&models.LedgerEvent{},
	))

	usersRepo := users.NewRepository(conn)
	listingsRepo := listings.NewRepository(conn)
	txnsRepo := transactions.NewRepository(conn)
	eventsRepo := NewEventRepository(conn)

	svc, err := NewService(db.FromGorm(conn), listingsRepo, usersRepo, txnsRepo, eventsRepo, nil)
	require.NoError(t, err)

	return &ledgerHarness{
		db:      conn,
		svc:     svc,
		users:   usersRepo,
		listing: listingsRepo,
	}
}

func (h *ledgerHarness) seedUser(t *testing.T, balance float64) *models.User {
	t.Helper()
	user, err := h.users.Create(context.Background(), users.CreateUserDTO{
		Username:     fmt.Sprintf("user-%s", uuid.NewString()[:8]),
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		PasswordHash: "hash",
		Balance:      balance,
	})
	require.NoError(t, err)
	return user
}

func (h *ledgerHarness) seedListing(t *testing.T, owner uuid.UUID, inventory int) *models.Listing {
	t.Helper()
	listing := &models.Listing{
		ID:          uuid.New(),
		Name:        "print",
		Public:      true,
		OwnerID:     owner,
		Inventory:   inventory,
		IsAvailable: true,
	}
	require.NoError(t, h.db.Create(listing).Error)
	return listing
}

func (h *ledgerHarness) balances(t *testing.T, ids ...uuid.UUID) []float64 {
	t.Helper()
	out := make([]float64, 0, len(ids))
	for _, id := range ids {
		user, err := h.users.FindByID(context.Background(), id)
		require.NoError(t, err)
		out = append(out, user.Balance)
	}
	return out
}

func (h *ledgerHarness) inventory(t *testing.T, id uuid.UUID) int {
	t.Helper()
	listing, err := h.listing.FindByID(context.Background(), id)
	require.NoError(t, err)
	return listing.Inventory
}

func TestPurchaseAndReturnScenario(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 1000)
	seller := h.seedUser(t, 1000)
	listing := h.seedListing(t, seller.ID, 100)

	result, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
		SellerID:  seller.ID,
		ListingID: listing.ID,
		Price:     100,
		Quantity:  1,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.TransactionStatusReceived, result.Transaction.Status)
	assert.Equal(t, 900.0, result.Buyer.Balance)
	assert.Equal(t, 1100.0, result.Seller.Balance)
	assert.Equal(t, 99, result.Listing.Inventory)

	returned := int(enums.TransactionStatusReturned)
	update, err := h.svc.UpdateTransaction(ctx, buyer.ID, result.Transaction.ID, transactions.Patch{Status: &returned})
	require.NoError(t, err)

	assert.True(t, update.Reversed)
	assert.Equal(t, enums.TransactionStatusReturned, update.Transaction.Status)
	assert.Equal(t, 1000.0, update.Buyer.Balance)
	assert.Equal(t, 1000.0, update.Seller.Balance)
	assert.Equal(t, 100, update.Listing.Inventory)
}

func TestReturnIsIdempotent(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 500)
	seller := h.seedUser(t, 0)
	listing := h.seedListing(t, seller.ID, 10)

	result, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
		SellerID: seller.ID, ListingID: listing.ID, Price: 50, Quantity: 2,
	})
	require.NoError(t, err)

	returned := int(enums.TransactionStatusReturned)
	first, err := h.svc.UpdateTransaction(ctx, buyer.ID, result.Transaction.ID, transactions.Patch{Status: &returned})
	require.NoError(t, err)
	assert.True(t, first.Reversed)

	second, err := h.svc.UpdateTransaction(ctx, buyer.ID, result.Transaction.ID, transactions.Patch{Status: &returned})
	require.NoError(t, err)
	assert.False(t, second.Reversed)
	assert.Nil(t, second.Buyer)

	balances := h.balances(t, buyer.ID, seller.ID)
	assert.Equal(t, 500.0, balances[0])
	assert.Equal(t, 0.0, balances[1])
	assert.Equal(t, 10, h.inventory(t, listing.ID))
}

func TestReturnRestoresOriginalsDespiteInterimPatches(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 1000)
	seller := h.seedUser(t, 1000)
	listing := h.seedListing(t, seller.ID, 20)

	result, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
		SellerID: seller.ID, ListingID: listing.ID, Price: 25, Quantity: 4,
	})
	require.NoError(t, err)

	shipped := int(enums.TransactionStatusShipped)
	when := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	_, err = h.svc.UpdateTransaction(ctx, seller.ID, result.Transaction.ID, transactions.Patch{Status: &shipped, Date: &when})
	require.NoError(t, err)

	returned := int(enums.TransactionStatusReturned)
	update, err := h.svc.UpdateTransaction(ctx, buyer.ID, result.Transaction.ID, transactions.Patch{Status: &returned})
	require.NoError(t, err)
	assert.True(t, update.Reversed)

	balances := h.balances(t, buyer.ID, seller.ID)
	assert.Equal(t, 1000.0, balances[0])
	assert.Equal(t, 1000.0, balances[1])
	assert.Equal(t, 20, h.inventory(t, listing.ID))
}

func TestPurchasePreconditionFailuresLeaveStateUnchanged(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 100)
	seller := h.seedUser(t, 50)
	listing := h.seedListing(t, seller.ID, 3)

	assertUnchanged := func(t *testing.T) {
		t.Helper()
		balances := h.balances(t, buyer.ID, seller.ID)
		assert.Equal(t, 100.0, balances[0])
		assert.Equal(t, 50.0, balances[1])
		assert.Equal(t, 3, h.inventory(t, listing.ID))
	}

	t.Run("insufficient inventory", func(t *testing.T) {
		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: listing.ID, Price: 1, Quantity: 4,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientInventory))
		assertUnchanged(t)
	})

	t.Run("insufficient funds", func(t *testing.T) {
		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: listing.ID, Price: 200, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientFunds))
		assertUnchanged(t)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: uuid.New(), Price: 1, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidListing))
		assertUnchanged(t)
	})

	t.Run("seller mismatch", func(t *testing.T) {
		impostor := h.seedUser(t, 0)
		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: impostor.ID, ListingID: listing.ID, Price: 1, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidListing))
		assertUnchanged(t)
	})

	t.Run("self purchase", func(t *testing.T) {
		_, err := h.svc.Purchase(ctx, seller.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: listing.ID, Price: 1, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		assertUnchanged(t)
	})

	t.Run("unavailable listing", func(t *testing.T) {
		hidden := h.seedListing(t, seller.ID, 5)
		require.NoError(t, h.db.Model(&models.Listing{}).
			Where("id = ?", hidden.ID).
			UpdateColumn("is_available", false).Error)

		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: hidden.ID, Price: 1, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidListing))
		assert.Equal(t, 5, h.inventory(t, hidden.ID))
		assertUnchanged(t)
	})

	t.Run("deleted listing", func(t *testing.T) {
		gone := h.seedListing(t, seller.ID, 5)
		require.NoError(t, h.listing.SoftDelete(ctx, gone.ID))

		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: gone.ID, Price: 1, Quantity: 1,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidListing))
		assertUnchanged(t)
	})

	t.Run("zero quantity", func(t *testing.T) {
		_, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
			SellerID: seller.ID, ListingID: listing.ID, Price: 1, Quantity: 0,
		})
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
		assertUnchanged(t)
	})
}

func TestConcurrentPurchasesCannotOversell(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyerA := h.seedUser(t, 10000)
	buyerB := h.seedUser(t, 10000)
	seller := h.seedUser(t, 0)
	listing := h.seedListing(t, seller.ID, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	buyers := []uuid.UUID{buyerA.ID, buyerB.ID}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.Purchase(ctx, buyers[i], PurchaseInput{
				SellerID: seller.ID, ListingID: listing.ID, Price: 10, Quantity: 60,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientInventory), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 40, h.inventory(t, listing.ID))

	seller, err := h.users.FindByID(ctx, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, seller.Balance)
}

func TestTransactionVisibilityAndSoftDelete(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 100)
	seller := h.seedUser(t, 0)
	outsider := h.seedUser(t, 0)
	listing := h.seedListing(t, seller.ID, 5)

	result, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
		SellerID: seller.ID, ListingID: listing.ID, Price: 10, Quantity: 1,
	})
	require.NoError(t, err)
	txnID := result.Transaction.ID

	_, err = h.svc.GetTransaction(ctx, buyer.ID, txnID)
	require.NoError(t, err)
	_, err = h.svc.GetTransaction(ctx, seller.ID, txnID)
	require.NoError(t, err)
	_, err = h.svc.GetTransaction(ctx, outsider.ID, txnID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	err = h.svc.SoftDeleteTransaction(ctx, outsider.ID, txnID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	require.NoError(t, h.svc.SoftDeleteTransaction(ctx, buyer.ID, txnID))

	// balances are untouched by the soft delete
	balances := h.balances(t, buyer.ID, seller.ID)
	assert.Equal(t, 90.0, balances[0])
	assert.Equal(t, 10.0, balances[1])

	_, err = h.svc.GetTransaction(ctx, buyer.ID, txnID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeleted))

	results, err := h.svc.SearchTransactions(ctx, buyer.ID, transactions.SearchParams{})
	require.NoError(t, err)
	assert.Empty(t, results)

	status := int(enums.TransactionStatusShipped)
	_, err = h.svc.UpdateTransaction(ctx, buyer.ID, txnID, transactions.Patch{Status: &status})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestLedgerEventsAppendOnly(t *testing.T) {
	h := setupLedgerTest(t)
	ctx := context.Background()

	buyer := h.seedUser(t, 100)
	seller := h.seedUser(t, 0)
	outsider := h.seedUser(t, 0)
	listing := h.seedListing(t, seller.ID, 5)

	result, err := h.svc.Purchase(ctx, buyer.ID, PurchaseInput{
		SellerID: seller.ID, ListingID: listing.ID, Price: 20, Quantity: 2,
	})
	require.NoError(t, err)
	txnID := result.Transaction.ID

	events, err := h.svc.ListEvents(ctx, buyer.ID, txnID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, enums.LedgerEventTypePurchaseRecorded, events[0].Type)
	assert.Equal(t, 40.0, events[0].Amount)

	returned := int(enums.TransactionStatusReturned)
	_, err = h.svc.UpdateTransaction(ctx, buyer.ID, txnID, transactions.Patch{Status: &returned})
	require.NoError(t, err)

	events, err = h.svc.ListEvents(ctx, seller.ID, txnID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, enums.LedgerEventTypePurchaseReturned, events[1].Type)

	_, err = h.svc.ListEvents(ctx, outsider.ID, txnID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}
