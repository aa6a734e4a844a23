package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"rent-console/internal/domain/accessgrants"
	"rent-console/internal/permission"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `id, property_id, owner_id, assistant_user_id, permissions, created_at, updated_at`

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO property_grants (
			id, property_id, owner_id, assistant_user_id,
			permissions, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		g.ID,
		g.PropertyID,
		g.OwnerID,
		g.AssistantUserID,
		joinPermissions(g.Permissions),
		g.CreatedAt,
		g.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return accessgrants.ErrAlreadyExists
	}
	return err
}

func (r *AccessGrantsRepo) Update(ctx context.Context, g accessgrants.Grant) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE property_grants
		SET permissions = $3, updated_at = $4
		WHERE property_id = $1 AND assistant_user_id = $2
	`,
		g.PropertyID,
		g.AssistantUserID,
		joinPermissions(g.Permissions),
		g.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AccessGrantsRepo) Get(ctx context.Context, propertyID, assistantUserID int64) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM property_grants
		WHERE property_id = $1 AND assistant_user_id = $2
	`, propertyID, assistantUserID)

	g, err := scanGrant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return accessgrants.Grant{}, ErrNotFound
	}
	return g, err
}

func (r *AccessGrantsRepo) ListByProperty(ctx context.Context, propertyID int64) ([]accessgrants.Grant, error) {
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM property_grants
		WHERE property_id = $1
		ORDER BY created_at ASC
	`, propertyID)
}

func (r *AccessGrantsRepo) ListByAssistant(ctx context.Context, assistantUserID int64) ([]accessgrants.Grant, error) {
	return r.list(ctx, `
		SELECT `+grantColumns+`
		FROM property_grants
		WHERE assistant_user_id = $1
		ORDER BY property_id ASC
	`, assistantUserID)
}

func (r *AccessGrantsRepo) Delete(ctx context.Context, propertyID, assistantUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM property_grants
		WHERE property_id = $1 AND assistant_user_id = $2
	`, propertyID, assistantUserID)
	return err
}

func (r *AccessGrantsRepo) DeleteByPair(ctx context.Context, ownerID, assistantUserID int64) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM property_grants
		WHERE owner_id = $1 AND assistant_user_id = $2
	`, ownerID, assistantUserID)
	return err
}

func (r *AccessGrantsRepo) list(ctx context.Context, query string, arg int64) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(row rowScanner) (accessgrants.Grant, error) {
	var g accessgrants.Grant
	var perms string

	if err := row.Scan(
		&g.ID,
		&g.PropertyID,
		&g.OwnerID,
		&g.AssistantUserID,
		&perms,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return accessgrants.Grant{}, err
	}
	g.Permissions = splitPermissions(perms)
	return g, nil
}

// helpers: los permisos se guardan como CSV en orden canónico.
func joinPermissions(in []permission.Permission) string {
	return strings.Join(permission.Strings(in), ",")
}

func splitPermissions(raw string) []permission.Permission {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []permission.Permission{}
	}
	return permission.FromStrings(strings.Split(raw, ","))
}
