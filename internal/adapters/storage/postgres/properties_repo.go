package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rent-console/internal/domain/properties"
)

type PropertiesRepo struct {
	db *sql.DB
}

func NewPropertiesRepo(db *sql.DB) *PropertiesRepo {
	return &PropertiesRepo{db: db}
}

const propertyColumns = `id, owner_id, name, address, city, state, postal_code, country, total_floors, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PropertiesRepo) Create(ctx context.Context, p properties.Property) (properties.Property, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO properties (
			owner_id, name, address, city, state, postal_code, country,
			total_floors, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`,
		p.OwnerID,
		p.Name,
		p.Address,
		p.City,
		p.State,
		p.PostalCode,
		p.Country,
		p.TotalFloors,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return properties.Property{}, err
	}
	return p, nil
}

func (r *PropertiesRepo) GetByID(ctx context.Context, id int64) (properties.Property, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id)
	p, err := scanProperty(row)
	if errors.Is(err, sql.ErrNoRows) {
		return properties.Property{}, ErrNotFound
	}
	return p, err
}

func (r *PropertiesRepo) ListByOwner(ctx context.Context, ownerID int64) ([]properties.Property, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+propertyColumns+`
		FROM properties
		WHERE owner_id = $1
		ORDER BY id ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]properties.Property, 0)
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProperty(row rowScanner) (properties.Property, error) {
	var p properties.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Address,
		&p.City,
		&p.State,
		&p.PostalCode,
		&p.Country,
		&p.TotalFloors,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
