package postgres

import (
	"context"
	"database/sql"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

type catalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) repository.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetItemType(ctx context.Context, id int32) (*domain.ItemType, error) {
	query := `SELECT id, name, unit, unit_price FROM item_types WHERE id = $1`
	logger.DatabaseCall("SELECT", "item_types", "id", id)

	it := &domain.ItemType{}
	err := querierFromCtx(ctx, r.db).QueryRowContext(ctx, query, id).Scan(&it.ID, &it.Name, &it.Unit, &it.UnitPrice)
	if err != nil {
		return nil, mapError(err, "item type", id)
	}
	return it, nil
}
