package httphandler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/fixzit/lease-engine/internal/appcontext"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/serve/httperror"
	"github.com/fixzit/lease-engine/internal/services"
)

const defaultExpiringWithinDays = 30

// LeasesHandler exposes the read-only lease queries of an organization.
type LeasesHandler struct {
	LifecycleService services.LeaseLifecycleServiceInterface
}

func (h LeasesHandler) GetLease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizationID, err := appcontext.GetOrganizationIDFromContext(ctx)
	if err != nil {
		httperror.BadRequest("Organization not found in context.", err, nil).Render(w)
		return
	}

	lease, err := h.LifecycleService.GetLeaseByID(ctx, organizationID, chi.URLParam(r, "lease_id"))
	if err != nil {
		httperror.FromLeaseError(ctx, err, "Cannot get lease.").Render(w)
		return
	}

	httpjson.Render(w, lease, httpjson.JSON)
}

// GetPropertyLeases lists a property's leases, optionally filtered by the comma-separated `status` query param.
func (h LeasesHandler) GetPropertyLeases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizationID, err := appcontext.GetOrganizationIDFromContext(ctx)
	if err != nil {
		httperror.BadRequest("Organization not found in context.", err, nil).Render(w)
		return
	}

	var statuses []data.LeaseStatus
	if statusParam := strings.TrimSpace(r.URL.Query().Get("status")); statusParam != "" {
		for _, status := range strings.Split(statusParam, ",") {
			statuses = append(statuses, data.LeaseStatus(strings.ToUpper(strings.TrimSpace(status))))
		}
	}

	leases, err := h.LifecycleService.GetLeasesByProperty(ctx, organizationID, chi.URLParam(r, "property_id"), statuses)
	if err != nil {
		httperror.FromLeaseError(ctx, err, "Cannot get leases of property.").Render(w)
		return
	}
	if leases == nil {
		leases = []*data.Lease{}
	}

	httpjson.Render(w, leases, httpjson.JSON)
}

// GetExpiringLeases lists the active leases ending within `within_days` days, 30 by default.
func (h LeasesHandler) GetExpiringLeases(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizationID, err := appcontext.GetOrganizationIDFromContext(ctx)
	if err != nil {
		httperror.BadRequest("Organization not found in context.", err, nil).Render(w)
		return
	}

	withinDays := defaultExpiringWithinDays
	if withinDaysParam := r.URL.Query().Get("within_days"); withinDaysParam != "" {
		withinDays, err = strconv.Atoi(withinDaysParam)
		if err != nil {
			httperror.BadRequest("", err, map[string]interface{}{"within_days": "within_days must be an integer"}).Render(w)
			return
		}
	}

	leases, err := h.LifecycleService.GetExpiringLeases(ctx, organizationID, withinDays)
	if err != nil {
		httperror.FromLeaseError(ctx, err, "Cannot get expiring leases.").Render(w)
		return
	}
	if leases == nil {
		leases = []*data.Lease{}
	}

	httpjson.Render(w, leases, httpjson.JSON)
}
