package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/memory"
	"warehouse-lending-backend/internal/security"
	"warehouse-lending-backend/internal/service"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func newTestRouter(t *testing.T, db Pinger) (*mux.Router, security.TokenManager) {
	t.Helper()
	store := memory.NewStore()
	store.PutInventory(domain.InventoryRecord{MaterialID: 5, LocationID: 1, OnHand: 4, Reserved: 1, Version: 1})
	store.PutInventory(domain.InventoryRecord{MaterialID: 6, LocationID: 2, OnHand: 2, Version: 1})

	clock := service.SystemClock()
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)
	reporting := service.NewReportingService(store.InventoryRepository, store.RequestRepository, resolver, clock)
	tokens := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)

	router := mux.NewRouter()
	NewReportingHandler(reporting, tokens, db).Register(router)
	return router, tokens
}

func do(t *testing.T, router http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestReportingHandler(t *testing.T) {
	router, tokens := newTestRouter(t, fakePinger{})
	staff, err := tokens.GenerateAccessToken(7, domain.RoleEmployee)
	require.NoError(t, err)
	customer, err := tokens.GenerateAccessToken(42, domain.RoleCustomer)
	require.NoError(t, err)

	t.Run("Health", func(t *testing.T) {
		rec := do(t, router, "/healthz", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("RequiresToken", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(t, router, "/api/v1/inventory", "").Code)
		assert.Equal(t, http.StatusForbidden, do(t, router, "/api/v1/inventory", customer).Code)
	})

	t.Run("ListInventoryFiltered", func(t *testing.T) {
		rec := do(t, router, "/api/v1/inventory?location_id=2", staff)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Records []domain.InventoryRecord `json:"records"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Records, 1)
		assert.Equal(t, int32(6), body.Records[0].MaterialID)
	})

	t.Run("BadFilter", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(t, router, "/api/v1/inventory?material_id=abc", staff).Code)
	})

	t.Run("GetInventory", func(t *testing.T) {
		rec := do(t, router, "/api/v1/inventory/5/1", staff)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Available int32 `json:"available"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, int32(3), body.Available)

		assert.Equal(t, http.StatusNotFound, do(t, router, "/api/v1/inventory/9/9", staff).Code)
	})

	t.Run("Outstanding", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, do(t, router, "/api/v1/requests/77/outstanding", staff).Code)
	})

	t.Run("Overdue", func(t *testing.T) {
		rec := do(t, router, "/api/v1/requests/overdue", staff)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"requests":[],"count":0}`, rec.Body.String())
	})
}

func TestReportingHandler_HealthReportsDatabaseFailure(t *testing.T) {
	router, _ := newTestRouter(t, fakePinger{err: errors.New("connection refused")})

	rec := do(t, router, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
