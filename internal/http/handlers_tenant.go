package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/campusware/campus-ui-api/internal/domain/model"
	apperrors "github.com/campusware/campus-ui-api/internal/errors"
)

// TenantReader defines read access to the tenant directory.
type TenantReader interface {
	GetByID(ctx context.Context, id string) (*model.Tenant, error)
	List(ctx context.Context, limit, offset int) ([]model.Tenant, error)
}

// TenantHandlers provides HTTP handlers for tenant directory lookups.
// Every lookup is scoped to the caller's own tenant; asking about another
// tenant is a 403 no matter whether that tenant exists.
type TenantHandlers struct {
	Tenants TenantReader
	Logger  *slog.Logger
}

// Get returns the caller's tenant record.
// GET /tenant/{id}.
func (h *TenantHandlers) Get(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}

	id := r.PathValue("id")
	if id == "" {
		WriteAppError(w, apperrors.Validation("tenant ID is required"))
		return
	}

	// Tenant check first: existence of other tenants is not disclosed.
	if id != session.TenantID {
		WriteAppError(w, apperrors.TenantMismatch("session is not scoped to this tenant"))
		return
	}

	tenant, err := h.Tenants.GetByID(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tenant)
}

// List returns tenants for admin views.
// GET /tenants?limit=N&offset=N. Mounted behind RequireRole(RoleAdmin).
func (h *TenantHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := intQueryParam(r, "limit", 50)
	offset := intQueryParam(r, "offset", 0)

	tenants, err := h.Tenants.List(r.Context(), limit, offset)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tenants": tenants})
}

func intQueryParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
