package serve

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fixzit/lease-engine/db"
	"github.com/fixzit/lease-engine/db/dbtest"
	"github.com/fixzit/lease-engine/internal/data"
	"github.com/fixzit/lease-engine/internal/monitor"
	"github.com/fixzit/lease-engine/internal/services/mocks"
)

type mockHTTPServer struct {
	mock.Mock
}

func (m *mockHTTPServer) Run(conf supporthttp.Config) {
	m.Called(conf)
}

func getServeOptionsForTests(t *testing.T, dbConnectionPool db.DBConnectionPool) ServeOptions {
	t.Helper()

	models, err := data.NewModels(dbConnectionPool)
	require.NoError(t, err)

	return ServeOptions{
		Environment:      "test",
		GitCommit:        "1234567890abcdef",
		Port:             8000,
		Version:          "x.y.z",
		Models:           models,
		LifecycleService: &mocks.MockLeaseLifecycleService{},
	}
}

func Test_Serve(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	opts := getServeOptionsForTests(t, dbConnectionPool)

	mHTTPServer := mockHTTPServer{}
	mHTTPServer.On("Run", mock.AnythingOfType("http.Config")).Run(func(args mock.Arguments) {
		conf, ok := args.Get(0).(supporthttp.Config)
		require.True(t, ok, "should be of type supporthttp.Config")
		assert.Equal(t, ":8000", conf.ListenAddr)
		assert.Equal(t, time.Minute*3, conf.TCPKeepAlive)
		assert.Equal(t, time.Second*50, conf.ShutdownGracePeriod)
		assert.Equal(t, time.Second*5, conf.ReadTimeout)
		assert.Equal(t, time.Second*35, conf.WriteTimeout)
		assert.Equal(t, time.Minute*2, conf.IdleTimeout)
		assert.Nil(t, conf.TLS)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		conf.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"status": "pass",
			"version": "x.y.z",
			"service_id": "lease-engine",
			"release_id": "1234567890abcdef",
			"services": {"database": "pass"}
		}`, w.Body.String())
	}).Once()

	err = Serve(opts, &mHTTPServer)
	require.NoError(t, err)
	mHTTPServer.AssertExpectations(t)
}

func Test_Serve_validatesOptions(t *testing.T) {
	mHTTPServer := mockHTTPServer{}

	err := Serve(ServeOptions{Port: 8000}, &mHTTPServer)
	require.EqualError(t, err, "validating serve options: models with a DB connection pool are required")

	mHTTPServer.AssertNotCalled(t, "Run", mock.Anything)
}

func Test_handleHTTP_routes(t *testing.T) {
	dbt := dbtest.Open(t)
	defer dbt.Close()

	dbConnectionPool, err := db.OpenDBConnectionPool(dbt.DSN)
	require.NoError(t, err)
	defer dbConnectionPool.Close()

	opts := getServeOptionsForTests(t, dbConnectionPool)
	mMonitorService := &monitor.MockMonitorService{}
	mMonitorService.
		On("MonitorDuration", mock.AnythingOfType("time.Duration"), monitor.HttpRequestDurationTag, mock.Anything).
		Return(nil)
	opts.MonitorService = mMonitorService
	mux := handleHTTP(opts)

	testCases := []struct {
		name     string
		path     string
		wantCode int
	}{
		{name: "health", path: "/health", wantCode: http.StatusOK},
		{name: "organization id must be a UUID", path: "/organizations/acme/leases/expiring", wantCode: http.StatusBadRequest},
		{name: "unknown route", path: "/leases", wantCode: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			assert.Equal(t, tc.wantCode, w.Code)
		})
	}

	mMonitorService.AssertNumberOfCalls(t, "MonitorDuration", len(testCases))
}
