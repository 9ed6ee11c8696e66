package controllers

import (
	"net/http"
	"time"

	"github.com/gatepasshq/gatepass-backend/api/responses"
	"github.com/gatepasshq/gatepass-backend/api/validators"
	"github.com/gatepasshq/gatepass-backend/pkg/auth"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
)

type devTokenRequest struct {
	Account string `json:"account" validate:"required,min=1,max=200"`
	Role    string `json:"role" validate:"required"`
}

// DevTokenMint issues an access token without any credential check. Wired
// only in dev environments for local and integration testing.
func DevTokenMint(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg == nil || !cfg.App.IsDev() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "not available"))
			return
		}

		var payload devTokenRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		role, err := enums.ParseActorRole(payload.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
			Account: validators.SanitizeString(payload.Account, 200),
			Role:    role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"accessToken": token})
	}
}
