package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rent-console/internal/domain/assistants"
)

type AssistantsRepo struct {
	db *sql.DB
}

func NewAssistantsRepo(db *sql.DB) *AssistantsRepo {
	return &AssistantsRepo{db: db}
}

const relColumns = `id, owner_id, assistant_user_id, is_active, created_at, updated_at`

func (r *AssistantsRepo) Create(ctx context.Context, rel assistants.Relationship) (assistants.Relationship, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO assistant_relationships (owner_id, assistant_user_id, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id
	`,
		rel.OwnerID,
		rel.AssistantUserID,
		rel.IsActive,
		rel.CreatedAt,
		rel.UpdatedAt,
	).Scan(&rel.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return assistants.Relationship{}, assistants.ErrAlreadyExists
		}
		return assistants.Relationship{}, err
	}
	return rel, nil
}

func (r *AssistantsRepo) Update(ctx context.Context, rel assistants.Relationship) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE assistant_relationships
		SET is_active = $3, updated_at = $4
		WHERE owner_id = $1 AND assistant_user_id = $2
	`, rel.OwnerID, rel.AssistantUserID, rel.IsActive, rel.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AssistantsRepo) Get(ctx context.Context, ownerID, assistantUserID int64) (assistants.Relationship, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+relColumns+`
		FROM assistant_relationships
		WHERE owner_id = $1 AND assistant_user_id = $2
	`, ownerID, assistantUserID)

	var rel assistants.Relationship
	if err := row.Scan(&rel.ID, &rel.OwnerID, &rel.AssistantUserID, &rel.IsActive, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return assistants.Relationship{}, ErrNotFound
		}
		return assistants.Relationship{}, err
	}
	return rel, nil
}

func (r *AssistantsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]assistants.Relationship, error) {
	return r.list(ctx, `SELECT `+relColumns+` FROM assistant_relationships WHERE owner_id = $1 ORDER BY id ASC`, ownerID)
}

func (r *AssistantsRepo) ListByAssistant(ctx context.Context, assistantUserID int64) ([]assistants.Relationship, error) {
	return r.list(ctx, `SELECT `+relColumns+` FROM assistant_relationships WHERE assistant_user_id = $1 ORDER BY id ASC`, assistantUserID)
}

func (r *AssistantsRepo) Delete(ctx context.Context, ownerID, assistantUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM assistant_relationships
		WHERE owner_id = $1 AND assistant_user_id = $2
	`, ownerID, assistantUserID)
	return err
}

func (r *AssistantsRepo) list(ctx context.Context, query string, arg int64) ([]assistants.Relationship, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]assistants.Relationship, 0)
	for rows.Next() {
		var rel assistants.Relationship
		if err := rows.Scan(&rel.ID, &rel.OwnerID, &rel.AssistantUserID, &rel.IsActive, &rel.CreatedAt, &rel.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, rows.Err()
}
