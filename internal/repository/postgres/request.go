package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/repository"
)

const (
	requestColumns = `id, requester_id, handler_id, location_id, purpose, required_by, notes, status, approver_id, approved_on, status_reason, overdue_flagged_on, version, created_on, updated_on`
	lineColumns    = `id, request_id, item_type_id, description, quantity_requested, quantity_approved, quantity_borrowed, quantity_returned, unit_value, estimated_value`
)

type requestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) repository.RequestRepository {
	return &requestRepository{db: db}
}

func scanRequest(row rowScanner) (*domain.BorrowingRequest, error) {
	req := &domain.BorrowingRequest{}
	err := row.Scan(&req.ID, &req.RequesterID, &req.HandlerID, &req.LocationID, &req.Purpose, &req.RequiredBy, &req.Notes,
		&req.Status, &req.ApproverID, &req.ApprovedOn, &req.StatusReason, &req.OverdueFlaggedOn, &req.Version, &req.CreatedOn, &req.UpdatedOn)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func scanLine(row rowScanner) (*domain.RequestLine, error) {
	l := &domain.RequestLine{}
	err := row.Scan(&l.ID, &l.RequestID, &l.ItemTypeID, &l.Description, &l.QuantityRequested,
		&l.QuantityApproved, &l.QuantityBorrowed, &l.QuantityReturned, &l.UnitValue, &l.EstimatedValue)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Create inserts the request and its lines. Call it inside RunInTx so both land together.
func (r *requestRepository) Create(ctx context.Context, req *domain.BorrowingRequest) error {
	q := querierFromCtx(ctx, r.db)
	now := time.Now()
	req.Version = 1
	req.CreatedOn = now
	req.UpdatedOn = now

	query := `INSERT INTO borrowing_requests (requester_id, handler_id, location_id, purpose, required_by, notes, status, version, created_on, updated_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	logger.DatabaseCall("INSERT", "borrowing_requests", "requester_id", req.RequesterID)
	err := q.QueryRowContext(ctx, query, req.RequesterID, req.HandlerID, req.LocationID, req.Purpose, req.RequiredBy, req.Notes,
		req.Status, req.Version, req.CreatedOn, req.UpdatedOn).Scan(&req.ID)
	if err != nil {
		return mapError(err, "borrowing request", "new")
	}

	lineQuery := `INSERT INTO request_lines (request_id, item_type_id, description, quantity_requested, unit_value, estimated_value)
	              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	for i := range req.Lines {
		l := &req.Lines[i]
		l.RequestID = req.ID
		err := q.QueryRowContext(ctx, lineQuery, l.RequestID, l.ItemTypeID, l.Description, l.QuantityRequested, l.UnitValue, l.EstimatedValue).Scan(&l.ID)
		if err != nil {
			return mapError(err, "request line", i)
		}
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	return r.get(ctx, id, false)
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id int32) (*domain.BorrowingRequest, error) {
	return r.get(ctx, id, true)
}

func (r *requestRepository) get(ctx context.Context, id int32, forUpdate bool) (*domain.BorrowingRequest, error) {
	q := querierFromCtx(ctx, r.db)
	query := `SELECT ` + requestColumns + ` FROM borrowing_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	req, err := scanRequest(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "borrowing request", id)
	}

	lines, err := r.linesFor(ctx, []int32{id})
	if err != nil {
		return nil, err
	}
	req.Lines = lines[id]
	return req, nil
}

func (r *requestRepository) linesFor(ctx context.Context, requestIDs []int32) (map[int32][]domain.RequestLine, error) {
	out := make(map[int32][]domain.RequestLine, len(requestIDs))
	if len(requestIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + lineColumns + ` FROM request_lines WHERE request_id = ANY($1) ORDER BY id`
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, pq.Array(requestIDs))
	if err != nil {
		return nil, mapError(err, "request lines", requestIDs)
	}
	defer rows.Close()

	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		out[l.RequestID] = append(out[l.RequestID], *l)
	}
	return out, rows.Err()
}

func (r *requestRepository) Update(ctx context.Context, req *domain.BorrowingRequest) error {
	query := `UPDATE borrowing_requests SET handler_id=$1, location_id=$2, status=$3, approver_id=$4, approved_on=$5, status_reason=$6, version=version+1, updated_on=$7
	          WHERE id=$8 AND version=$9`
	now := time.Now()
	res, err := querierFromCtx(ctx, r.db).ExecContext(ctx, query, req.HandlerID, req.LocationID, req.Status, req.ApproverID, req.ApprovedOn, req.StatusReason, now, req.ID, req.Version)
	if err != nil {
		return mapError(err, "borrowing request", req.ID)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE borrowing_requests", n, err, "id", req.ID)
	if err != nil {
		return mapError(err, "borrowing request", req.ID)
	}
	if n == 0 {
		return fmt.Errorf("borrowing request %d: %w", req.ID, domain.ErrConflict)
	}
	req.Version++
	req.UpdatedOn = now
	return nil
}

func (r *requestRepository) UpdateLines(ctx context.Context, lines []domain.RequestLine) error {
	q := querierFromCtx(ctx, r.db)
	query := `UPDATE request_lines SET quantity_approved=$1, quantity_borrowed=$2, quantity_returned=$3 WHERE id=$4 AND request_id=$5`
	for _, l := range lines {
		res, err := q.ExecContext(ctx, query, l.QuantityApproved, l.QuantityBorrowed, l.QuantityReturned, l.ID, l.RequestID)
		if err != nil {
			return mapError(err, "request line", l.ID)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("request line %d: %w", l.ID, domain.ErrNotFound)
		}
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter domain.RequestFilter) ([]domain.BorrowingRequest, int32, error) {
	where := sq.And{}
	if filter.RequesterID != nil {
		where = append(where, sq.Eq{"requester_id": *filter.RequesterID})
	}
	if filter.HandlerID != nil {
		where = append(where, sq.Eq{"handler_id": *filter.HandlerID})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.OverdueAt != nil {
		where = append(where, sq.Eq{"status": domain.RequestStatusActive}, sq.Lt{"required_by": *filter.OverdueAt})
	}

	q := querierFromCtx(ctx, r.db)

	countQuery, countArgs, err := sq.Select("count(*)").From("borrowing_requests").Where(where).PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}
	var count int32
	if err := q.QueryRowContext(ctx, countQuery, countArgs...).Scan(&count); err != nil {
		return nil, 0, mapError(err, "borrowing requests", "count")
	}

	qb := sq.Select(requestColumns).From("borrowing_requests").Where(where).
		OrderBy("created_on DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)
	if filter.PageSize > 0 {
		page := max(filter.Page, 1)
		qb = qb.Limit(uint64(filter.PageSize)).Offset(uint64((page - 1) * filter.PageSize))
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError(err, "borrowing requests", "list")
	}
	defer rows.Close()

	var requests []domain.BorrowingRequest
	var ids []int32
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, *req)
		ids = append(ids, req.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range requests {
		requests[i].Lines = lines[requests[i].ID]
	}
	return requests, count, nil
}

func (r *requestRepository) FlagOverdue(ctx context.Context, now time.Time) ([]int32, error) {
	query := `UPDATE borrowing_requests SET overdue_flagged_on = $1
	          WHERE status = $2 AND required_by < $1 AND overdue_flagged_on IS NULL
	          RETURNING id`
	rows, err := querierFromCtx(ctx, r.db).QueryContext(ctx, query, now, domain.RequestStatusActive)
	if err != nil {
		return nil, mapError(err, "borrowing requests", "overdue")
	}
	defer rows.Close()

	var ids []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
