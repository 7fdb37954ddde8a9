package common

const (
	// AuthorizationHeaderName carries the bearer access token.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the auth scheme prefix expected in AuthorizationHeaderName.
	BearerScheme = "Bearer"

	// TokenTypeBearer is returned as token_type alongside issued tokens.
	TokenTypeBearer = "bearer"
)
