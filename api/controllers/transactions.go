package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfair/pixelfair-backend/api/middleware"
	"github.com/pixelfair/pixelfair-backend/api/responses"
	"github.com/pixelfair/pixelfair-backend/api/validators"
	"github.com/pixelfair/pixelfair-backend/internal/ledger"
	"github.com/pixelfair/pixelfair-backend/internal/transactions"
	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/logger"
	"github.com/pixelfair/pixelfair-backend/pkg/pagination"
)

// TransactionPurchase executes an atomic purchase. The buyer is always the
// authenticated caller.
func TransactionPurchase(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		var input ledger.PurchaseInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Purchase(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// TransactionDetail fetches one transaction the caller participates in.
func TransactionDetail(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := svc.GetTransaction(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, txn)
	}
}

// TransactionSearch lists the caller's transactions, filtered and paginated.
func TransactionSearch(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		params, err := parseTransactionSearchParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.SearchTransactions(r.Context(), middleware.UserIDFromContext(r.Context()), *params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

func parseTransactionSearchParams(r *http.Request) (*transactions.SearchParams, error) {
	var params transactions.SearchParams

	listingID, err := validators.ParseOptionalQueryUUID(r, "image")
	if err != nil {
		return nil, err
	}
	params.Filters.ListingID = listingID

	buyerID, err := validators.ParseOptionalQueryUUID(r, "buyer")
	if err != nil {
		return nil, err
	}
	params.Filters.BuyerID = buyerID

	sellerID, err := validators.ParseOptionalQueryUUID(r, "seller")
	if err != nil {
		return nil, err
	}
	params.Filters.SellerID = sellerID

	status, err := validators.ParseOptionalQueryInt(r, "status")
	if err != nil {
		return nil, err
	}
	params.Filters.Status = status

	from, err := validators.ParseOptionalQueryTime(r, "from")
	if err != nil {
		return nil, err
	}
	params.Filters.DateFrom = from

	to, err := validators.ParseOptionalQueryTime(r, "to")
	if err != nil {
		return nil, err
	}
	params.Filters.DateTo = to

	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return nil, err
	}
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<30)
	if err != nil {
		return nil, err
	}
	params.Page = pagination.Params{Limit: limit, Page: page}

	return &params, nil
}

// TransactionUpdate applies a partial patch. Moving the status to returned
// also reverses the purchase's balance and inventory effects.
func TransactionUpdate(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var patch transactions.Patch
		if err := validators.DecodeJSONBody(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UpdateTransaction(r.Context(), middleware.UserIDFromContext(r.Context()), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// TransactionDelete tombstones a transaction without touching balances.
func TransactionDelete(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDeleteTransaction(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// TransactionEvents lists the append-only ledger trail for one transaction.
func TransactionEvents(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "transactionId"), "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.ListEvents(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, events)
	}
}
