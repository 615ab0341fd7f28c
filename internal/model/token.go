package model

import "errors"

// Token errors. Verification is purely a function of the signature and the
// embedded expiry; tokens are never persisted server-side, so there is no
// early revocation.
var (
	// ErrTokenExpired is returned when the token's expiry has elapsed
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned for malformed tokens and signature mismatches
	ErrTokenInvalid = errors.New("invalid token")
)
