package controllers

import (
	"net/http"

	"github.com/tapcellar/tapcellar-backend/api/responses"
	"github.com/tapcellar/tapcellar-backend/api/validators"
	"github.com/tapcellar/tapcellar-backend/internal/worklist"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

// GetWorklist returns the product-creation worklist for an invoice.
func GetWorklist(svc worklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "worklist service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Build(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// GetWorklistCSV returns the worklist as a downloadable sheet.
func GetWorklistCSV(svc worklist.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "worklist service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload, err := svc.BuildCSV(r.Context(), invoiceID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCSV(w, "worklist-"+invoiceID.String()+".csv", payload)
	}
}
