package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/jmoiron/sqlx"
)

const targetColumns = `
SELECT b.id AS business_id, b.name AS business_name, p.kind AS owner_kind,
       p.id AS owner_id, p.name AS owner_name, COALESCE(o.owner_id, p.id) AS owner_user_id
FROM businesses b
JOIN parties p ON p.id = b.owner_id
LEFT JOIN organizations o ON o.id = p.id`

type targetRow struct {
	BusinessID   int64  `db:"business_id"`
	BusinessName string `db:"business_name"`
	OwnerKind    string `db:"owner_kind"`
	OwnerID      int64  `db:"owner_id"`
	OwnerName    string `db:"owner_name"`
	OwnerUserID  int64  `db:"owner_user_id"`
}

// Locator loads the gate target for a business together with its owner.
type Locator struct {
	db *sqlx.DB
}

func NewLocator(db *sqlx.DB) *Locator {
	return &Locator{db: db}
}

// Locate finds a business by owner name (case-insensitive) and exact
// business name. A missing business yields ErrBusinessNotFound.
func (l *Locator) Locate(ctx context.Context, ownerName, businessName string) (Target, error) {
	query := targetColumns + ` WHERE p.name_key = ? AND b.name = ?`
	return l.get(ctx, query, strings.ToLower(ownerName), businessName)
}

func (l *Locator) LocateByID(ctx context.Context, businessID int64) (Target, error) {
	return l.get(ctx, targetColumns+` WHERE b.id = ?`, businessID)
}

func (l *Locator) get(ctx context.Context, query string, args ...interface{}) (Target, error) {
	var row targetRow
	err := l.db.GetContext(ctx, &row, l.db.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Target{}, internal.ErrBusinessNotFound
	}
	if err != nil {
		return Target{}, internal.ErrInternal(fmt.Errorf("locate business: %w", err))
	}
	return Target{
		BusinessID:   row.BusinessID,
		BusinessName: row.BusinessName,
		OwnerKind:    OwnerKind(row.OwnerKind),
		OwnerID:      row.OwnerID,
		OwnerName:    row.OwnerName,
		OwnerUserID:  row.OwnerUserID,
	}, nil
}
