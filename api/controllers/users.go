package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelfair/pixelfair-backend/api/middleware"
	"github.com/pixelfair/pixelfair-backend/api/responses"
	"github.com/pixelfair/pixelfair-backend/api/validators"
	"github.com/pixelfair/pixelfair-backend/internal/users"
	pkgerrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/logger"
)

// UserProfile returns the authenticated user's own record, balance included.
func UserProfile(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		user, err := repo.FindByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
			return
		}

		responses.WriteSuccess(w, user)
	}
}

// UserDetail returns another user's public record by id.
func UserDetail(repo *users.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users repository unavailable"))
			return
		}

		id, err := validators.ParsePathUUID(chi.URLParam(r, "userId"), "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := repo.FindByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if user == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
			return
		}

		responses.WriteSuccess(w, user)
	}
}
