package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/internal/listings"
	"github.com/pixelfair/pixelfair-backend/internal/transactions"
	"github.com/pixelfair/pixelfair-backend/internal/users"
	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	"github.com/pixelfair/pixelfair-backend/pkg/enums"
	apperrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/metrics"
)

// txRunner is the transactional surface the engine needs from the db client.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the ledger engine: every balance or inventory mutation in the
// system flows through it inside a single database transaction.
type Service interface {
	Purchase(ctx context.Context, buyerID uuid.UUID, input PurchaseInput) (*PurchaseResult, error)
	GetTransaction(ctx context.Context, requesterID, id uuid.UUID) (*models.Transaction, error)
	SearchTransactions(ctx context.Context, requesterID uuid.UUID, params transactions.SearchParams) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, requesterID, id uuid.UUID, patch transactions.Patch) (*UpdateResult, error)
	SoftDeleteTransaction(ctx context.Context, requesterID, id uuid.UUID) error
	ListEvents(ctx context.Context, requesterID, transactionID uuid.UUID) ([]models.LedgerEvent, error)
}

// PurchaseInput carries the purchase request. The buyer is always the
// authenticated caller, never a field the client controls.
type PurchaseInput struct {
	SellerID  uuid.UUID `json:"seller" validate:"required"`
	ListingID uuid.UUID `json:"image" validate:"required"`
	Price     float64   `json:"price" validate:"gte=0"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

// PurchaseResult returns every record the purchase touched so callers can
// render the post-purchase state without a second read.
type PurchaseResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Listing     *models.Listing     `json:"listing"`
	Buyer       *models.User        `json:"buyer"`
	Seller      *models.User        `json:"seller"`
}

// UpdateResult returns the patched transaction plus, when a reversal ran,
// the three compensated records.
type UpdateResult struct {
	Transaction *models.Transaction `json:"transaction"`
	Listing     *models.Listing     `json:"listing,omitempty"`
	Buyer       *models.User        `json:"buyer,omitempty"`
	Seller      *models.User        `json:"seller,omitempty"`
	Reversed    bool                `json:"reversed"`
}

type service struct {
	runner   txRunner
	listings *listings.Repository
	users    *users.Repository
	txns     *transactions.Repository
	events   EventRepository
	metrics  *metrics.LedgerMetrics
	validate *validator.Validate
}

// NewService wires the ledger engine. The metrics collector may be nil.
func NewService(
	runner txRunner,
	listingsRepo *listings.Repository,
	usersRepo *users.Repository,
	txnsRepo *transactions.Repository,
	eventsRepo EventRepository,
	m *metrics.LedgerMetrics,
) (Service, error) {
	if runner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if listingsRepo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if txnsRepo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if eventsRepo == nil {
		return nil, fmt.Errorf("event repository required")
	}
	return &service{
		runner:   runner,
		listings: listingsRepo,
		users:    usersRepo,
		txns:     txnsRepo,
		events:   eventsRepo,
		metrics:  m,
		validate: validator.New(),
	}, nil
}

func (s *service) Purchase(ctx context.Context, buyerID uuid.UUID, input PurchaseInput) (*PurchaseResult, error) {
	if buyerID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "buyer identity required")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid purchase payload")
	}
	if buyerID == input.SellerID {
		return nil, apperrors.New(apperrors.CodeValidation, "buyer and seller must be different users")
	}

	var result PurchaseResult
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		lr := s.listings.WithTx(tx)
		ur := s.users.WithTx(tx)
		tr := s.txns.WithTx(tx)
		er := s.events.WithTx(tx)

		listing, err := lr.FindByID(ctx, input.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.New(apperrors.CodeInvalidListing, "listing does not exist")
			}
			return apperrors.Wrap(apperrors.CodeDependency, err, "loading listing")
		}
		if listing.IsDeleted {
			return apperrors.New(apperrors.CodeInvalidListing, "listing has been deleted")
		}
		if !listing.IsAvailable {
			return apperrors.New(apperrors.CodeInvalidListing, "listing is not available for sale")
		}
		if listing.OwnerID != input.SellerID {
			return apperrors.New(apperrors.CodeInvalidListing, "seller does not own this listing")
		}

		rows, err := lr.DecrementInventory(ctx, listing.ID, input.Quantity)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "reserving inventory")
		}
		if rows == 0 {
			return apperrors.New(apperrors.CodeInsufficientInventory, "not enough inventory")
		}

		total := input.Price * float64(input.Quantity)
		rows, err = ur.DebitBalanceGuarded(ctx, buyerID, total)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "debiting buyer")
		}
		if rows == 0 {
			return apperrors.New(apperrors.CodeInsufficientFunds, "buyer cannot cover the purchase")
		}
		if err := ur.CreditBalance(ctx, input.SellerID, total); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "crediting seller")
		}

		txn := &models.Transaction{
			ID:        uuid.New(),
			BuyerID:   buyerID,
			SellerID:  input.SellerID,
			ListingID: listing.ID,
			Price:     input.Price,
			Quantity:  input.Quantity,
			Date:      time.Now().UTC(),
			Status:    enums.TransactionStatusReceived,
		}
		if err := tr.Create(ctx, txn); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "recording transaction")
		}

		event := &models.LedgerEvent{
			TransactionID: txn.ID,
			ListingID:     listing.ID,
			BuyerID:       buyerID,
			SellerID:      input.SellerID,
			Type:          enums.LedgerEventTypePurchaseRecorded,
			Amount:        total,
			Quantity:      input.Quantity,
		}
		if err := er.Create(ctx, event); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "recording ledger event")
		}

		return s.loadPurchaseResult(ctx, tx, txn, &result)
	})
	if err != nil {
		s.metrics.IncPurchase(purchaseOutcome(err))
		return nil, err
	}

	s.metrics.IncPurchase("recorded")
	return &result, nil
}

func (s *service) GetTransaction(ctx context.Context, requesterID, id uuid.UUID) (*models.Transaction, error) {
	txn, err := s.loadTransaction(ctx, s.txns, id)
	if err != nil {
		return nil, err
	}
	if txn.BuyerID != requesterID && txn.SellerID != requesterID {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "transaction belongs to other parties")
	}
	if txn.IsDeleted {
		return nil, apperrors.New(apperrors.CodeDeleted, "transaction deleted")
	}
	return txn, nil
}

func (s *service) SearchTransactions(ctx context.Context, requesterID uuid.UUID, params transactions.SearchParams) ([]models.Transaction, error) {
	if requesterID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "requester identity required")
	}
	results, err := s.txns.Search(ctx, requesterID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "searching transactions")
	}
	return results, nil
}

func (s *service) UpdateTransaction(ctx context.Context, requesterID, id uuid.UUID, patch transactions.Patch) (*UpdateResult, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "invalid transaction patch")
	}

	var result UpdateResult
	err := s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		tr := s.txns.WithTx(tx)

		txn, err := s.loadTransaction(ctx, tr, id)
		if err != nil {
			return err
		}
		if txn.IsDeleted {
			return apperrors.New(apperrors.CodeNotFound, "transaction not found")
		}
		if txn.BuyerID != requesterID && txn.SellerID != requesterID {
			return apperrors.New(apperrors.CodeUnauthorized, "transaction belongs to other parties")
		}

		// Reversal fires only on a transition into Returned. The amounts come
		// from the stored row, never from the patch.
		reverse := patch.Status != nil &&
			enums.TransactionStatus(*patch.Status) == enums.TransactionStatusReturned &&
			txn.Status != enums.TransactionStatusReturned

		if reverse {
			if err := s.compensate(ctx, tx, txn); err != nil {
				return err
			}
		}

		patch.Apply(txn)
		if err := tr.Save(ctx, txn); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "saving transaction")
		}

		result.Transaction = txn
		result.Reversed = reverse
		if reverse {
			if err := s.loadCompensatedRecords(ctx, tx, txn, &result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Reversed {
		s.metrics.IncReversal()
	}
	return &result, nil
}

func (s *service) SoftDeleteTransaction(ctx context.Context, requesterID, id uuid.UUID) error {
	return s.runner.WithTx(ctx, func(tx *gorm.DB) error {
		tr := s.txns.WithTx(tx)

		txn, err := s.loadTransaction(ctx, tr, id)
		if err != nil {
			return err
		}
		if txn.IsDeleted {
			return apperrors.New(apperrors.CodeNotFound, "transaction not found")
		}
		if txn.BuyerID != requesterID && txn.SellerID != requesterID {
			return apperrors.New(apperrors.CodeUnauthorized, "transaction belongs to other parties")
		}
		if err := tr.SoftDelete(ctx, id); err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "deleting transaction")
		}
		return nil
	})
}

func (s *service) ListEvents(ctx context.Context, requesterID, transactionID uuid.UUID) ([]models.LedgerEvent, error) {
	txn, err := s.loadTransaction(ctx, s.txns, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.BuyerID != requesterID && txn.SellerID != requesterID {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "transaction belongs to other parties")
	}
	events, err := s.events.ListByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "listing ledger events")
	}
	return events, nil
}

// compensate undoes the original sale: stock returns to the listing, the
// buyer is refunded, and the seller is debited even if that sends their
// balance negative.
func (s *service) compensate(ctx context.Context, tx *gorm.DB, txn *models.Transaction) error {
	lr := s.listings.WithTx(tx)
	ur := s.users.WithTx(tx)
	er := s.events.WithTx(tx)

	if err := lr.IncrementInventory(ctx, txn.ListingID, txn.Quantity); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "restoring inventory")
	}
	total := txn.Total()
	if err := ur.CreditBalance(ctx, txn.BuyerID, total); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "refunding buyer")
	}
	if err := ur.DebitBalance(ctx, txn.SellerID, total); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "debiting seller")
	}

	event := &models.LedgerEvent{
		TransactionID: txn.ID,
		ListingID:     txn.ListingID,
		BuyerID:       txn.BuyerID,
		SellerID:      txn.SellerID,
		Type:          enums.LedgerEventTypePurchaseReturned,
		Amount:        total,
		Quantity:      txn.Quantity,
	}
	if err := er.Create(ctx, event); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "recording reversal event")
	}
	return nil
}

func (s *service) loadTransaction(ctx context.Context, repo *transactions.Repository, id uuid.UUID) (*models.Transaction, error) {
	txn, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "transaction not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "loading transaction")
	}
	return txn, nil
}

func (s *service) loadPurchaseResult(ctx context.Context, tx *gorm.DB, txn *models.Transaction, result *PurchaseResult) error {
	lr := s.listings.WithTx(tx)
	ur := s.users.WithTx(tx)

	listing, err := lr.FindByID(ctx, txn.ListingID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading listing")
	}
	buyer, err := ur.FindByID(ctx, txn.BuyerID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading buyer")
	}
	seller, err := ur.FindByID(ctx, txn.SellerID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading seller")
	}

	result.Transaction = txn
	result.Listing = listing
	result.Buyer = buyer
	result.Seller = seller
	return nil
}

func (s *service) loadCompensatedRecords(ctx context.Context, tx *gorm.DB, txn *models.Transaction, result *UpdateResult) error {
	lr := s.listings.WithTx(tx)
	ur := s.users.WithTx(tx)

	listing, err := lr.FindByID(ctx, txn.ListingID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading listing")
	}
	buyer, err := ur.FindByID(ctx, txn.BuyerID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading buyer")
	}
	seller, err := ur.FindByID(ctx, txn.SellerID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reloading seller")
	}

	result.Listing = listing
	result.Buyer = buyer
	result.Seller = seller
	return nil
}

func purchaseOutcome(err error) string {
	switch {
	case apperrors.HasCode(err, apperrors.CodeInvalidListing):
		return "invalid_listing"
	case apperrors.HasCode(err, apperrors.CodeInsufficientInventory):
		return "insufficient_inventory"
	case apperrors.HasCode(err, apperrors.CodeInsufficientFunds):
		return "insufficient_funds"
	case apperrors.HasCode(err, apperrors.CodeValidation):
		return "validation_failed"
	default:
		return "error"
	}
}
