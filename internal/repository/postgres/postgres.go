package postgres

import (
	"database/sql"

	"warehouse-lending-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	*TxManager
	repository.CatalogRepository
	repository.InventoryRepository
	repository.RequestRepository
	repository.TransactionRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		TxManager:             NewTxManager(db),
		CatalogRepository:     NewCatalogRepository(db),
		InventoryRepository:   NewInventoryRepository(db),
		RequestRepository:     NewRequestRepository(db),
		TransactionRepository: NewTransactionRepository(db),
	}
}

// DB exposes the pool for health checks and migrations.
func (s *Store) DB() *sql.DB {
	return s.db
}
