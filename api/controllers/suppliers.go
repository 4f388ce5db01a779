package controllers

import (
	"net/http"

	"github.com/tapcellar/tapcellar-backend/api/responses"
	"github.com/tapcellar/tapcellar-backend/internal/suppliers"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

// ListSuppliers returns the cached inventory supplier directory.
func ListSuppliers(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		directory, err := svc.Directory(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, directory)
	}
}

// RefreshSuppliers drops the cached directory so the next read refetches it.
func RefreshSuppliers(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}

		if err := svc.InvalidateDirectory(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "refreshed"})
	}
}
