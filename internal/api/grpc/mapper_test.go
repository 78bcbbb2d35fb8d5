package grpc

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"warehouse-lending-backend/internal/domain"
)

func TestMapDomainRequestToWire(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	r := &domain.BorrowingRequest{
		ID:          12,
		RequesterID: 42,
		LocationID:  domain.Int32Ptr(1),
		Purpose:     "site survey",
		RequiredBy:  time.Date(2026, 3, 16, 17, 0, 0, 0, time.UTC),
		Status:      domain.RequestStatusActive,
		Lines: []domain.RequestLine{
			{
				ID:                1,
				ItemTypeID:        domain.Int32Ptr(5),
				Description:       "Cordless drill",
				QuantityRequested: 3,
				QuantityApproved:  domain.Int32Ptr(3),
				QuantityBorrowed:  domain.Int32Ptr(3),
				QuantityReturned:  domain.Int32Ptr(1),
				UnitValue:         decimal.RequireFromString("10"),
				EstimatedValue:    decimal.RequireFromString("30"),
			},
			{ID: 2, Description: "Extension cable", QuantityRequested: 1},
		},
	}

	wire := MapDomainRequestToWire(r, now)

	assert.Equal(t, int32(12), wire.ID)
	assert.Equal(t, "ACTIVE", wire.Status)
	assert.Equal(t, "2026-03-16T17:00:00Z", wire.RequiredBy)
	assert.True(t, wire.Overdue)
	assert.Equal(t, int32(4), wire.DaysOverdue)
	assert.Equal(t, "30.00", wire.EstimatedValue)
	assert.Empty(t, wire.ApprovedOn)
	assert.Len(t, wire.Lines, 2)
	assert.Equal(t, int32(2), wire.Lines[0].Outstanding)
	assert.Equal(t, "10.00", wire.Lines[0].UnitValue)
	assert.Nil(t, wire.Lines[1].ItemTypeID)
	assert.Equal(t, int32(0), wire.Lines[1].Outstanding)

	assert.Nil(t, MapDomainRequestToWire(nil, now))
}

func TestMapDomainRequestToWire_NotOverdue(t *testing.T) {
	now := time.Date(2026, 3, 20, 9, 0, 0, 0, time.UTC)
	r := &domain.BorrowingRequest{
		ID:         3,
		RequiredBy: now.Add(-time.Hour),
		Status:     domain.RequestStatusApproved,
	}

	wire := MapDomainRequestToWire(r, now)

	assert.False(t, wire.Overdue)
	assert.Zero(t, wire.DaysOverdue)
	assert.Empty(t, wire.Lines)
}

func TestMapWireLinesToInput(t *testing.T) {
	in := MapWireLinesToInput([]LineInput{
		{ItemTypeID: domain.Int32Ptr(5), Quantity: 2},
		{Description: "Ladder", Quantity: 1},
	})

	assert.Len(t, in, 2)
	assert.Equal(t, int32(5), *in[0].ItemTypeID)
	assert.Equal(t, int32(2), in[0].Quantity)
	assert.Nil(t, in[1].ItemTypeID)
	assert.Equal(t, "Ladder", in[1].Description)
}
