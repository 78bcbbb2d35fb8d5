package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

const inventoryColumns = `material_id, location_id, on_hand, reserved, on_loan, version, updated_on`

type inventoryRepository struct {
	db *sql.DB
}

func NewInventoryRepository(db *sql.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventory(row rowScanner) (*domain.InventoryRecord, error) {
	rec := &domain.InventoryRecord{}
	err := row.Scan(&rec.MaterialID, &rec.LocationID, &rec.OnHand, &rec.Reserved, &rec.OnLoan, &rec.Version, &rec.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *inventoryRepository) Get(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_records WHERE material_id = $1 AND location_id = $2`
	rec, err := scanInventory(querierFromCtx(ctx, r.db).QueryRowContext(ctx, query, key.MaterialID, key.LocationID))
	if err != nil {
		return nil, mapError(err, "inventory", key)
	}
	return rec, nil
}

// GetForUpdate takes the row lock with NOWAIT inside a savepoint, so a busy row fails fast
// with repository.ErrLockNotAvailable and leaves the surrounding transaction usable for a retry.
func (r *inventoryRepository) GetForUpdate(ctx context.Context, key domain.InventoryKey) (*domain.InventoryRecord, error) {
	tx, ok := txFromCtx(ctx)
	if !ok {
		return nil, fmt.Errorf("inventory %s: row lock requires a transaction", key)
	}

	logger.DatabaseCall("SELECT FOR UPDATE NOWAIT", "inventory_records", "key", key.String())
	if _, err := tx.ExecContext(ctx, `SAVEPOINT inventory_lock`); err != nil {
		return nil, mapError(err, "inventory", key)
	}

	query := `SELECT ` + inventoryColumns + ` FROM inventory_records WHERE material_id = $1 AND location_id = $2 FOR UPDATE NOWAIT`
	rec, err := scanInventory(tx.QueryRowContext(ctx, query, key.MaterialID, key.LocationID))
	if err != nil {
		if isLockNotAvailable(err) || errors.Is(err, sql.ErrNoRows) {
			if _, rbErr := tx.ExecContext(ctx, `ROLLBACK TO SAVEPOINT inventory_lock`); rbErr != nil {
				return nil, mapError(rbErr, "inventory", key)
			}
		}
		return nil, mapError(err, "inventory", key)
	}

	if _, err := tx.ExecContext(ctx, `RELEASE SAVEPOINT inventory_lock`); err != nil {
		return nil, mapError(err, "inventory", key)
	}
	return rec, nil
}

func (r *inventoryRepository) Create(ctx context.Context, rec *domain.InventoryRecord) error {
	query := `INSERT INTO inventory_records (material_id, location_id, on_hand, reserved, on_loan, version, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	rec.Version = 1
	rec.UpdatedOn = time.Now()
	_, err := querierFromCtx(ctx, r.db).ExecContext(ctx, query, rec.MaterialID, rec.LocationID, rec.OnHand, rec.Reserved, rec.OnLoan, rec.Version, rec.UpdatedOn)
	return mapError(err, "inventory", rec.Key())
}

func (r *inventoryRepository) Update(ctx context.Context, rec *domain.InventoryRecord) error {
	query := `UPDATE inventory_records SET on_hand=$1, reserved=$2, on_loan=$3, version=version+1, updated_on=$4
	          WHERE material_id=$5 AND location_id=$6 AND version=$7`
	now := time.Now()
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, query, rec.OnHand, rec.Reserved, rec.OnLoan, now, rec.MaterialID, rec.LocationID, rec.Version)
	if err != nil {
		return mapError(err, "inventory", rec.Key())
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE inventory_records", n, err)
	if err != nil {
		return mapError(err, "inventory", rec.Key())
	}
	if n == 0 {
		return fmt.Errorf("inventory %s: %w", rec.Key(), domain.ErrConflict)
	}
	rec.Version++
	rec.UpdatedOn = now
	return nil
}

func (r *inventoryRepository) List(ctx context.Context, materialID, locationID *int32) ([]domain.InventoryRecord, error) {
	qb := sq.Select(inventoryColumns).From("inventory_records").
		OrderBy("material_id", "location_id").
		PlaceholderFormat(sq.Dollar)
	if materialID != nil {
		qb = qb.Where(sq.Eq{"material_id": *materialID})
	}
	if locationID != nil {
		qb = qb.Where(sq.Eq{"location_id": *locationID})
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build inventory query: %w", err)
	}

	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "inventory", "list")
	}
	defer rows.Close()

	var records []domain.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
