package auth

import (
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	Account string
	Role    enums.ActorRole
}

// AccessTokenClaims represents the typed JWT issued to clients. Account is
// the ledger account the bearer acts as.
type AccessTokenClaims struct {
	Account string          `json:"account"`
	Role    enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
