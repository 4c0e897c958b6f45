package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	apperrors "github.com/campusware/campus-ui-api/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteAppError maps an application error to an HTTP response. Unknown error
// shapes collapse to a generic 500 so internals never leak to the client.
func WriteAppError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	WriteError(w, ErrorParams{
		Code:    statusForCode(code),
		ErrCode: errCodeLabel(code),
		Err:     err,
	})
}

func statusForCode(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeRefresh, apperrors.ErrCodeMissingRefreshToken:
		return http.StatusUnauthorized
	case apperrors.ErrCodeTenantMismatch:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest
	case apperrors.ErrCodeDiscovery:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errCodeLabel(code apperrors.ErrorCode) string {
	switch code {
	case apperrors.ErrCodeUnauthorized, apperrors.ErrCodeRefresh, apperrors.ErrCodeMissingRefreshToken:
		return "reauthentication_required"
	case apperrors.ErrCodeTenantMismatch:
		return "tenant_mismatch"
	case apperrors.ErrCodeNotFound:
		return "not_found"
	case apperrors.ErrCodeValidation:
		return "validation_failed"
	case apperrors.ErrCodeDiscovery:
		return "idp_unavailable"
	case apperrors.ErrCodeTimeout:
		return "idp_timeout"
	default:
		return "internal_error"
	}
}
