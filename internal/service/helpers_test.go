package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/memory"
	"warehouse-lending-backend/internal/service"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

type harness struct {
	store     *memory.Store
	clock     *fixedClock
	ledger    service.InventoryLedger
	resolver  service.ItemLineResolver
	recorder  service.TransactionRecorder
	requests  service.RequestService
	reporting service.ReportingService
}

func newHarness(t *testing.T, policy service.LendingPolicy) *harness {
	t.Helper()
	clock := &fixedClock{now: testNow}
	store := memory.NewStore().WithClock(clock.Now)

	ledger := service.NewInventoryLedger(store.InventoryRepository, store, service.LockRetryPolicy{
		MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond,
	})
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)
	recorder := service.NewTransactionRecorder(store.TransactionRepository, store.RequestRepository, service.NewULIDGenerator(clock), clock)

	return &harness{
		store:     store,
		clock:     clock,
		ledger:    ledger,
		resolver:  resolver,
		recorder:  recorder,
		requests:  service.NewRequestService(store, store.RequestRepository, resolver, ledger, recorder, clock, policy),
		reporting: service.NewReportingService(store.InventoryRepository, store.RequestRepository, resolver, clock),
	}
}

// seedDrill registers item type 5 at $10.00 with onHand units at location 1.
func (h *harness) seedDrill(onHand int32) domain.ItemType {
	it := h.store.AddItemType(domain.ItemType{ID: 5, Name: "Cordless drill", Unit: "pcs", UnitPrice: decimal.RequireFromString("10.00")})
	h.store.PutInventory(domain.InventoryRecord{MaterialID: it.ID, LocationID: 1, OnHand: onHand, Version: 1})
	return it
}

func (h *harness) inventory(t *testing.T, materialID int32) *domain.InventoryRecord {
	t.Helper()
	rec, err := h.reporting.GetInventory(context.Background(), domain.InventoryKey{MaterialID: materialID, LocationID: 1})
	require.NoError(t, err)
	return rec
}

func (h *harness) submit(t *testing.T, lines ...service.LineInput) *domain.BorrowingRequest {
	t.Helper()
	req, err := h.requests.Submit(context.Background(), service.SubmitInput{
		RequesterID: 42,
		LocationID:  domain.Int32Ptr(1),
		Purpose:     "Site survey",
		RequiredBy:  testNow.Add(24 * time.Hour),
		Lines:       lines,
	})
	require.NoError(t, err)
	return req
}

func catalogLine(typeID, qty int32) service.LineInput {
	return service.LineInput{ItemTypeID: domain.Int32Ptr(typeID), Quantity: qty}
}
