package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfair/pixelfair-backend/api/middleware"
	"github.com/pixelfair/pixelfair-backend/api/responses"
	"github.com/pixelfair/pixelfair-backend/api/validators"
	"github.com/pixelfair/pixelfair-backend/internal/listings"
	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/logger"
	"github.com/pixelfair/pixelfair-backend/pkg/pagination"
)

// maxListingUploadBytes caps the in-memory image payload on listing create.
const maxListingUploadBytes = 10 << 20

// ListingCreate publishes a listing owned by the caller. The body is either
// plain JSON or multipart form data with a "metadata" JSON part and an
// optional "image" file part.
func ListingCreate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		var dto listings.CreateListingDTO
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			parsed, err := decodeListingMultipart(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			dto = *parsed
		} else if err := validators.DecodeJSONBody(r, &dto); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), middleware.UserIDFromContext(r.Context()), dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

func decodeListingMultipart(r *http.Request) (*listings.CreateListingDTO, error) {
	if err := r.ParseMultipartForm(maxListingUploadBytes); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
	}

	meta := strings.TrimSpace(r.FormValue("metadata"))
	if meta == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "metadata part is required")
	}

	var dto listings.CreateListingDTO
	if err := json.Unmarshal([]byte(meta), &dto); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid metadata json")
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return &dto, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image part")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxListingUploadBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image part")
	}
	if len(data) > maxListingUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image exceeds the upload limit")
	}

	dto.ImageData = data
	dto.ImageContentType = header.Header.Get("Content-Type")
	return &dto, nil
}

// ListingDetail fetches one listing subject to the visibility rules.
func ListingDetail(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingSearch runs a filtered, paginated search over visible listings.
func ListingSearch(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		params, err := parseListingSearchParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		results, err := svc.Search(r.Context(), middleware.UserIDFromContext(r.Context()), *params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, results)
	}
}

func parseListingSearchParams(r *http.Request) (*listings.SearchParams, error) {
	query := r.URL.Query()
	params := listings.SearchParams{
		Filters: listings.SearchFilters{
			Name:        strings.TrimSpace(query.Get("name")),
			Description: strings.TrimSpace(query.Get("description")),
			Tag:         strings.TrimSpace(query.Get("tag")),
		},
	}

	owner, err := validators.ParseOptionalQueryUUID(r, "owner")
	if err != nil {
		return nil, err
	}
	params.Filters.OwnerID = owner

	minDiscount, err := validators.ParseOptionalQueryFloat(r, "discount")
	if err != nil {
		return nil, err
	}
	params.Filters.MinDiscount = minDiscount

	minInventory, err := validators.ParseOptionalQueryInt(r, "inventory")
	if err != nil {
		return nil, err
	}
	params.Filters.MinInventory = minInventory

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

// ListingUpdate applies a partial patch to a listing the caller owns.
func ListingUpdate(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var dto listings.UpdateListingDTO
		if err := validators.DecodeJSONBody(r, &dto); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, dto)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, listing)
	}
}

// ListingDelete tombstones a listing the caller owns.
func ListingDelete(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "listingId"), "listingId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SoftDelete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
