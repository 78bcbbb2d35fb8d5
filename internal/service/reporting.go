package service

import (
	"context"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/repository"
)

type reportingService struct {
	inventoryRepo repository.InventoryRepository
	requestRepo   repository.RequestRepository
	resolver      ItemLineResolver
	clock         Clock
}

func NewReportingService(inventoryRepo repository.InventoryRepository, requestRepo repository.RequestRepository, resolver ItemLineResolver, clock Clock) ReportingService {
	return &reportingService{
		inventoryRepo: inventoryRepo,
		requestRepo:   requestRepo,
		resolver:      resolver,
		clock:         clock,
	}
}

func (s *reportingService) GetInventory(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	return s.inventoryRepo.Get(ctx, key)
}

func (s *reportingService) ListInventory(ctx context.Context, materialID, locationID *int32) ([]domain.InventoryRecord, error) {
	return s.inventoryRepo.List(ctx, materialID, locationID)
}

func (s *reportingService) Outstanding(ctx context.Context, requestID int32) ([]domain.LineOutstanding, error) {
	return s.resolver.Outstanding(ctx, requestID)
}

// ListOverdue returns active requests past their required-by date, flagged or not.
func (s *reportingService) ListOverdue(ctx context.Context) ([]domain.BorrowingRequest, error) {
	now := s.clock.Now()
	reqs, _, err := s.requestRepo.List(ctx, domain.RequestFilter{OverdueAt: &now})
	return reqs, err
}
