package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/tapcellar/tapcellar-backend/api/responses"
	"github.com/tapcellar/tapcellar-backend/api/validators"
	"github.com/tapcellar/tapcellar-backend/internal/reconcile"
	pkgerrors "github.com/tapcellar/tapcellar-backend/pkg/errors"
	"github.com/tapcellar/tapcellar-backend/pkg/logger"
)

// RunReconciliation triggers one engine run over the invoice. The body is
// optional; an empty body runs with defaults.
func RunReconciliation(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}

		invoiceID, err := validators.UUIDParam(r, "invoiceID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input reconcile.RunInput
		if err := validators.DecodeJSONBody(r, &input); err != nil && !isEmptyBody(err) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Run(r.Context(), invoiceID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func isEmptyBody(err error) bool {
	return errors.Is(err, io.EOF)
}
