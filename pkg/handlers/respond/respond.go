// Package respond centralizes JSON serialization and the mapping of domain
// error kinds to HTTP statuses.
package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/de-tools/ops-agent/pkg/models/api"
	"github.com/de-tools/ops-agent/pkg/models/domain"
)

func JSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("failed to encode response")
	}
}

// Error writes err as a JSON error body with the status its kind maps to.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	JSON(w, r, status, api.ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInputTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindInvalidToken:
		return http.StatusConflict
	case domain.KindNoRemediationAvailable:
		return http.StatusUnprocessableEntity
	case domain.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindExecutionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
