package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository/memory"
	"warehouse-lending-backend/internal/service"
)

func TestItemLineResolver_Resolve(t *testing.T) {
	store := memory.NewStore()
	store.AddItemType(domain.ItemType{ID: 3, Name: "Torque wrench", UnitPrice: decimal.RequireFromString("12.345")})
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)

	lines, err := resolver.Resolve(context.Background(), []service.LineInput{
		catalogLine(3, 2),
		{Description: "  Extension cord ", Quantity: 1},
		{},
	})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "Torque wrench", lines[0].Description)
	assert.Equal(t, "24.69", lines[0].EstimatedValue.StringFixed(2))
	assert.True(t, lines[0].IsCatalogLinked())

	assert.Equal(t, "Extension cord", lines[1].Description)
	assert.True(t, lines[1].EstimatedValue.IsZero())
	assert.False(t, lines[1].IsCatalogLinked())
}

func TestItemLineResolver_ResolveCollectsEveryProblem(t *testing.T) {
	store := memory.NewStore()
	resolver := service.NewItemLineResolver(store.CatalogRepository, store.RequestRepository)

	_, err := resolver.Resolve(context.Background(), []service.LineInput{
		catalogLine(1, 1),
		{Quantity: 2},
		{Description: "gloves", Quantity: -3},
	})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors, 3)
	assert.Equal(t, "lines[0].item_type_id", verr.Errors[0].Field)
	assert.Equal(t, "lines[1].description", verr.Errors[1].Field)
	assert.Equal(t, "lines[2].quantity", verr.Errors[2].Field)
}

func TestItemLineResolver_Reconcile(t *testing.T) {
	resolver := service.NewItemLineResolver(memory.NewStore().CatalogRepository, nil)
	req := &domain.BorrowingRequest{
		ID: 1,
		Lines: []domain.RequestLine{
			{ID: 10, QuantityRequested: 4, QuantityApproved: domain.Int32Ptr(3), QuantityBorrowed: domain.Int32Ptr(3), QuantityReturned: domain.Int32Ptr(1)},
			{ID: 11, QuantityRequested: 2, QuantityApproved: domain.Int32Ptr(2), QuantityBorrowed: domain.Int32Ptr(1)},
		},
	}

	approved, err := resolver.ReconcileApproval(req, map[int32]int32{10: 2})
	require.NoError(t, err)
	assert.Equal(t, map[int32]int32{10: 2, 11: 2}, approved)

	_, err = resolver.ReconcileApproval(req, map[int32]int32{10: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = resolver.ReconcileApproval(req, map[int32]int32{99: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = resolver.ReconcileApproval(req, map[int32]int32{10: 0, 11: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	borrowed, err := resolver.ReconcileHandOut(req, nil)
	require.NoError(t, err)
	assert.Equal(t, map[int32]int32{10: 3, 11: 2}, borrowed)

	returned, err := resolver.ReconcileReturn(req, map[int32]int32{11: 1})
	require.NoError(t, err)
	assert.Equal(t, map[int32]int32{10: 0, 11: 1}, returned)

	_, err = resolver.ReconcileReturn(req, map[int32]int32{10: 3})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
