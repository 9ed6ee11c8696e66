package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/api/validators"
	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
)

// AccountBalance returns the caller's spendable balance.
func AccountBalance(rail payments.Rail, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rail == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment rail unavailable"))
			return
		}

		caller := middleware.AccountFromContext(r.Context())
		if caller == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		balance, err := rail.Balance(r.Context(), caller)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"account": caller, "balance": balance})
	}
}

type accountCreditRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// AdminAccountCredit tops up an account on the internal rail.
func AdminAccountCredit(client *db.Client, rail payments.Rail, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if client == nil || rail == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment rail unavailable"))
			return
		}

		account := validators.SanitizeString(chi.URLParam(r, "account"), 200)
		if account == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "account must not be empty"))
			return
		}

		var payload accountCreditRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := client.WithTx(r.Context(), func(tx *gorm.DB) error {
			return rail.Transfer(r.Context(), tx, account, payload.Amount)
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := rail.Balance(r.Context(), account)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"account": account, "balance": balance})
	}
}

// AdminEscrowBalance reports the aggregate amount held for unsettled events.
func AdminEscrowBalance(svc escrow.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "escrow service unavailable"))
			return
		}

		balance, err := svc.Balance(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"balance": balance})
	}
}
