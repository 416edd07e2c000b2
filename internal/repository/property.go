package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/propertybot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PropertyRepository struct {
	db dbtx
}

func NewPropertyRepository(pool *pgxpool.Pool) *PropertyRepository {
	return &PropertyRepository{db: pool}
}

func NewPropertyRepositoryWithTx(tx pgx.Tx) *PropertyRepository {
	return &PropertyRepository{db: tx}
}

func (r *PropertyRepository) Create(ctx context.Context, p *domain.Property) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO properties (id, title, description, single_line, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Title, p.Description, nullableString(p.SingleLine), p.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrPropertyAlreadyExists
	}
	return err
}

func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	var p domain.Property
	var singleLine *string
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, single_line, created_at
		 FROM properties WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Description, &singleLine, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPropertyNotFound
		}
		return nil, err
	}
	p.SingleLine = stringValue(singleLine)
	return &p, nil
}

// GetByIDs returns the stored properties among ids, in no particular order.
func (r *PropertyRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Property, error) {
	if len(ids) == 0 {
		return []*domain.Property{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, single_line, created_at
		 FROM properties WHERE id = ANY($1::uuid[])`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPropertyRows(rows)
}

func (r *PropertyRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM properties WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		existing[id] = true
	}
	return existing, rows.Err()
}

func (r *PropertyRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM properties`).Scan(&n)
	return n, err
}

func scanPropertyRows(rows pgx.Rows) ([]*domain.Property, error) {
	results := make([]*domain.Property, 0)
	for rows.Next() {
		var p domain.Property
		var singleLine *string
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &singleLine, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.SingleLine = stringValue(singleLine)
		results = append(results, &p)
	}
	return results, rows.Err()
}
