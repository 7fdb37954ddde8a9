// Package client talks to the auth server's HTTP API.
//
// HTTPClient wraps the register, login, me, logout and health endpoints and
// translates error statuses into sentinels callers match with errors.Is:
//
//	400 -> common.ErrorValidation (the server's detail is kept in the message)
//	401 -> common.ErrorUnauthorized
//	403 -> common.ErrorForbidden
//	502 -> common.ErrorUpstreamAuth
//	5xx -> common.ErrorInternal
//
// Transport failures (connection refused, timeouts) wrap ErrUnavailable.
//
// HTTPClient is safe for concurrent use. It does not hold the access token;
// callers pass it to the calls that need it.
package client
