package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	msgInternal         = "Internal server error"
	msgBadBody          = "Invalid request body"
	msgEmailTaken       = "User with this email already exists"
	msgBadCredentials   = "Incorrect email or password"
	msgNotAuthenticated = "Could not validate credentials"
	msgInactive         = "Inactive user"
	msgUpstream         = "Authentication with the provider failed"
	msgStateMismatch    = "Invalid OAuth state"
	msgMissingCode      = "Missing authorization code"
	msgProviderDenied   = "Authorization was denied by the provider"
)

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, errorBody{Detail: detail})
}

// statusFor maps a service error to a status code and a client-safe
// message. Validation messages are built from fixed strings and are passed
// through as is.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorConflict):
		return http.StatusBadRequest, msgEmailTaken
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, msgNotAuthenticated
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, msgInactive
	case errors.Is(err, common.ErrorUpstreamAuth):
		return http.StatusBadGateway, msgUpstream
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// outcome is the metrics label for err.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorValidation):
		return "invalid"
	case errors.Is(err, common.ErrorConflict):
		return "conflict"
	case errors.Is(err, common.ErrorUnauthorized):
		return "unauthorized"
	case errors.Is(err, common.ErrorUpstreamAuth):
		return "upstream"
	default:
		return "error"
	}
}
