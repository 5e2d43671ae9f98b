package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or signature doesn't match
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrTokenNotYetValid indicates the token is not yet valid (nbf claim in the future)
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	// ErrWrongTokenType indicates a token minted for another purpose was presented.
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrSecretMissing is returned when production runs without a signing secret.
	ErrSecretMissing = errors.New("jwt secret is required in production")

	// ErrSecretTooShort is returned when the signing secret is under 32 characters.
	ErrSecretTooShort = errors.New("jwt secret must be at least 32 characters")

	// ErrNilDatabase is returned by a Factory asked to build a provider without
	// a database handle.
	ErrNilDatabase = errors.New("auth provider requires a database handle")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)
