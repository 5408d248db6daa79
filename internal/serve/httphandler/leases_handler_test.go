package httphandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/serve/middleware"
	"github.com/fixzit/lease-engine/internal/services"
	"github.com/fixzit/lease-engine/internal/services/mocks"
)

const (
	testOrganizationID = "0f4d3c2b-1a09-4e8f-8d7c-6b5a49382716"
	testPropertyID     = "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c2d"
	testLeaseID        = "c1d2e3f4-a5b6-4c7d-8e9f-0a1b2c3d4e5f"
)

func newLeasesRouter(lifecycleService services.LeaseLifecycleServiceInterface) *chi.Mux {
	handler := LeasesHandler{LifecycleService: lifecycleService}

	r := chi.NewRouter()
	r.Route("/organizations/{organization_id}", func(r chi.Router) {
		r.Use(middleware.OrganizationMiddleware)
		r.Get("/leases/expiring", handler.GetExpiringLeases)
		r.Get("/leases/{lease_id}", handler.GetLease)
		r.Get("/properties/{property_id}/leases", handler.GetPropertyLeases)
	})
	return r
}

func decodeLeases(t *testing.T, body []byte) []map[string]interface{} {
	t.Helper()
	var leases []map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &leases))
	return leases
}

func Test_LeasesHandler_GetLease(t *testing.T) {
	t.Run("returns the lease", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeaseByID", mock.Anything, testOrganizationID, testLeaseID).
			Return(&data.Lease{ID: testLeaseID, LeaseNumber: "LSE-2025-00001", Status: data.ActiveLeaseStatus}, nil).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/"+testLeaseID, nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var lease map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lease))
		assert.Equal(t, testLeaseID, lease["id"])
		assert.Equal(t, "LSE-2025-00001", lease["lease_number"])
		assert.Equal(t, string(data.ActiveLeaseStatus), lease["status"])
	})

	t.Run("maps a missing lease to 404", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeaseByID", mock.Anything, testOrganizationID, testLeaseID).
			Return(nil, services.NewNotFoundError("lease not found", data.ErrRecordNotFound)).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/"+testLeaseID, nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error": "lease not found", "error_code": "NOT_FOUND"}`, rr.Body.String())
	})

	t.Run("maps unexpected failures to 500", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeaseByID", mock.Anything, testOrganizationID, testLeaseID).
			Return(nil, errors.New("connection refused")).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/"+testLeaseID, nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.JSONEq(t, `{"error": "Cannot get lease."}`, rr.Body.String())
	})
}

func Test_LeasesHandler_GetPropertyLeases(t *testing.T) {
	t.Run("parses the status filter", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeasesByProperty", mock.Anything, testOrganizationID, testPropertyID, []data.LeaseStatus{data.ActiveLeaseStatus, data.PendingApprovalLeaseStatus}).
			Return([]*data.Lease{{ID: testLeaseID}}, nil).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/properties/"+testPropertyID+"/leases?status=active,%20pending_approval", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		leases := decodeLeases(t, rr.Body.Bytes())
		require.Len(t, leases, 1)
		assert.Equal(t, testLeaseID, leases[0]["id"])
	})

	t.Run("renders an empty list", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeasesByProperty", mock.Anything, testOrganizationID, testPropertyID, []data.LeaseStatus(nil)).
			Return(nil, nil).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/properties/"+testPropertyID+"/leases", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("maps validation failures to 400", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetLeasesByProperty", mock.Anything, testOrganizationID, testPropertyID, []data.LeaseStatus{"ARCHIVED"}).
			Return(nil, services.NewValidationError("invalid lease query", map[string]interface{}{"statuses": "invalid lease status: ARCHIVED"})).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/properties/"+testPropertyID+"/leases?status=archived", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{
			"error": "invalid lease query",
			"error_code": "VALIDATION_ERROR",
			"extras": {"statuses": "invalid lease status: ARCHIVED"}
		}`, rr.Body.String())
	})
}

func Test_LeasesHandler_GetExpiringLeases(t *testing.T) {
	t.Run("defaults to 30 days", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetExpiringLeases", mock.Anything, testOrganizationID, 30).
			Return([]*data.Lease{{ID: testLeaseID}}, nil).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/expiring", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decodeLeases(t, rr.Body.Bytes()), 1)
	})

	t.Run("uses within_days", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)
		mLifecycleService.
			On("GetExpiringLeases", mock.Anything, testOrganizationID, 7).
			Return([]*data.Lease{}, nil).
			Once()

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/expiring?within_days=7", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("rejects a non-numeric within_days", func(t *testing.T) {
		mLifecycleService := &mocks.MockLeaseLifecycleService{}
		defer mLifecycleService.AssertExpectations(t)

		req := httptest.NewRequest(http.MethodGet, "/organizations/"+testOrganizationID+"/leases/expiring?within_days=soon", nil)
		rr := httptest.NewRecorder()
		newLeasesRouter(mLifecycleService).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{
			"error": "The request was invalid in some way.",
			"extras": {"within_days": "within_days must be an integer"}
		}`, rr.Body.String())
	})
}
