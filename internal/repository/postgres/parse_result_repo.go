package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"clarabill/internal/domain"
	"clarabill/internal/port"
)

type parseResultRepo struct {
	db *sqlx.DB
}

// NewParseResultRepo creates a new PostgreSQL-backed ParseResultRepository.
func NewParseResultRepo(db *sqlx.DB) port.ParseResultRepository {
	return &parseResultRepo{db: db}
}

func (r *parseResultRepo) Create(ctx context.Context, record *domain.ParseRecord) error {
	query := `INSERT INTO parse_results
		(id, source_name, reconciled, billed_sum, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		record.ID, record.SourceName, record.Reconciled, record.BilledSum,
		record.Payload, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("parseResultRepo.Create: %w", err)
	}
	return nil
}

func (r *parseResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ParseRecord, error) {
	var record domain.ParseRecord
	err := r.db.GetContext(ctx, &record,
		"SELECT * FROM parse_results WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("parseResultRepo.GetByID: %w", err)
	}
	return &record, nil
}

func (r *parseResultRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM parse_results WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("parseResultRepo.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("parseResultRepo.Delete: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *parseResultRepo) List(ctx context.Context, limit, offset int) ([]domain.ParseRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var records []domain.ParseRecord
	err := r.db.SelectContext(ctx, &records,
		`SELECT id, source_name, reconciled, billed_sum, ''::bytea AS payload, created_at
		 FROM parse_results
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("parseResultRepo.List: %w", err)
	}
	return records, nil
}
