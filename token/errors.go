package token

import "errors"

var (
	// ErrTokenExpired is returned when a token's signature is valid but its expiry
	// has passed. Callers use this to decide whether a refresh is worth attempting.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenMalformed covers every other verification failure: bad structure,
	// wrong signature, wrong algorithm, wrong audience, wrong token use.
	ErrTokenMalformed = errors.New("token malformed")
)
