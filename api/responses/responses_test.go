package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/types"
)

func TestWriteSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "OK", envelope.Message)
	assert.Equal(t, map[string]any{"hello": "world"}, envelope.Data)
}

func TestWriteErrorMapsTypedCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "insufficient funds",
			err:        pkgerrors.New(pkgerrors.CodeInsufficientFunds, "buyer cannot cover the purchase"),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   "INSUFFICIENT_FUNDS",
			wantMsg:    "buyer cannot cover the purchase",
		},
		{
			name:       "deleted resource",
			err:        pkgerrors.New(pkgerrors.CodeDeleted, "listing deleted"),
			wantStatus: http.StatusGone,
			wantCode:   "RESOURCE_DELETED",
			wantMsg:    "listing deleted",
		},
		{
			name:       "invalid listing",
			err:        pkgerrors.New(pkgerrors.CodeInvalidListing, "seller does not own this listing"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INVALID_LISTING",
			wantMsg:    "seller does not own this listing",
		},
		{
			name:       "untyped error hides internals",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var envelope types.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
			assert.Equal(t, tc.wantCode, envelope.Error.Code)
			assert.Equal(t, tc.wantMsg, envelope.Error.Message)
		})
	}
}
