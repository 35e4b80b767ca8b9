package kb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries stores the document as the single row with id 1.
type Queries struct {
	db DBTX
}

const get = `-- name: Get :one
SELECT document FROM knowledge_base WHERE id = 1`

func (q *Queries) Get(ctx context.Context) (map[string]any, error) {
	var document map[string]any
	err := q.db.QueryRow(ctx, get).Scan(&document)
	return document, err
}

const setField = `-- name: SetField :one
INSERT INTO knowledge_base (id, document, updated_at)
VALUES (1, jsonb_build_object($1::text, $2::jsonb), now())
ON CONFLICT (id) DO UPDATE
SET document = knowledge_base.document || jsonb_build_object($1::text, $2::jsonb),
    updated_at = now()
RETURNING document`

// SetField encodes value itself since pgx passes strings and byte slices to jsonb parameters unchanged.
func (q *Queries) SetField(ctx context.Context, field string, value any) (map[string]any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field %s: %w", field, err)
	}

	var document map[string]any
	err = q.db.QueryRow(ctx, setField, field, encoded).Scan(&document)
	return document, err
}

const removeField = `-- name: RemoveField :one
INSERT INTO knowledge_base (id, document, updated_at)
VALUES (1, '{}'::jsonb, now())
ON CONFLICT (id) DO UPDATE
SET document = knowledge_base.document - $1::text,
    updated_at = now()
RETURNING document`

func (q *Queries) RemoveField(ctx context.Context, field string) (map[string]any, error) {
	var document map[string]any
	err := q.db.QueryRow(ctx, removeField, field).Scan(&document)
	return document, err
}

const seed = `-- name: Seed :execrows
INSERT INTO knowledge_base (id, document, updated_at)
VALUES (1, $1::jsonb, now())
ON CONFLICT (id) DO NOTHING`

func (q *Queries) Seed(ctx context.Context, document map[string]any) (bool, error) {
	encoded, err := json.Marshal(document)
	if err != nil {
		return false, fmt.Errorf("failed to encode document: %w", err)
	}

	result, err := q.db.Exec(ctx, seed, encoded)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}
