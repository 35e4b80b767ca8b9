package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const workflowColumns = `id, name, description, version, is_active, nodes, start_node, tags, metadata, created_at, updated_at`

type CreateParams struct {
	ID          uuid.UUID
	Name        string
	Description string
	Version     string
	IsActive    bool
	Nodes       map[string]Node
	StartNode   string
	Tags        []string
	Metadata    *Metadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListParams filters a listing. Zero values disable the corresponding filter.
type ListParams struct {
	IsActive *bool
	Tags     []string
	Category string
}

// UpdateParams carries a partial update. Nil fields keep the stored value.
type UpdateParams struct {
	ID          uuid.UUID
	Name        *string
	Description *string
	Version     *string
	IsActive    *bool
	Nodes       map[string]Node
	StartNode   *string
	Tags        []string
	Metadata    *Metadata
	UpdatedAt   time.Time
}

const create = `-- name: Create :one
INSERT INTO workflows (id, name, description, version, is_active, nodes, start_node, tags, metadata, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + workflowColumns

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Workflow, error) {
	nodes, err := marshalNodes(arg.Nodes)
	if err != nil {
		return Workflow{}, err
	}
	metadata, err := marshalMetadata(arg.Metadata)
	if err != nil {
		return Workflow{}, err
	}

	tags := arg.Tags
	if tags == nil {
		tags = []string{}
	}

	row := q.db.QueryRow(ctx, create,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Version,
		arg.IsActive,
		nodes,
		arg.StartNode,
		tags,
		metadata,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanWorkflow(row)
}

const getByID = `-- name: GetByID :one
SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Workflow, error) {
	row := q.db.QueryRow(ctx, getByID, id)
	return scanWorkflow(row)
}

const getByName = `-- name: GetByName :one
SELECT ` + workflowColumns + ` FROM workflows WHERE name = $1
ORDER BY updated_at DESC
LIMIT 1`

func (q *Queries) GetByName(ctx context.Context, name string) (Workflow, error) {
	row := q.db.QueryRow(ctx, getByName, name)
	return scanWorkflow(row)
}

const list = `-- name: List :many
SELECT ` + workflowColumns + ` FROM workflows
WHERE ($1::boolean IS NULL OR is_active = $1)
  AND (cardinality($2::text[]) = 0 OR tags && $2::text[])
  AND ($3::text = '' OR metadata->>'category' = $3)
ORDER BY updated_at DESC`

func (q *Queries) List(ctx context.Context, arg ListParams) ([]Workflow, error) {
	tags := arg.Tags
	if tags == nil {
		tags = []string{}
	}

	rows, err := q.db.Query(ctx, list, arg.IsActive, tags, arg.Category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Workflow{}
	for rows.Next() {
		w, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const update = `-- name: Update :execrows
UPDATE workflows SET
    name = COALESCE($2, name),
    description = COALESCE($3, description),
    version = COALESCE($4, version),
    is_active = COALESCE($5, is_active),
    nodes = COALESCE($6::jsonb, nodes),
    start_node = COALESCE($7, start_node),
    tags = COALESCE($8::text[], tags),
    metadata = COALESCE($9::jsonb, metadata),
    updated_at = $10
WHERE id = $1`

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (bool, error) {
	var nodes []byte
	if arg.Nodes != nil {
		encoded, err := marshalNodes(arg.Nodes)
		if err != nil {
			return false, err
		}
		nodes = encoded
	}
	metadata, err := marshalMetadata(arg.Metadata)
	if err != nil {
		return false, err
	}

	var tags any
	if arg.Tags != nil {
		tags = arg.Tags
	}

	result, err := q.db.Exec(ctx, update,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Version,
		arg.IsActive,
		nodes,
		arg.StartNode,
		tags,
		metadata,
		arg.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

const deleteWorkflow = `-- name: Delete :execrows
DELETE FROM workflows WHERE id = $1`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result, err := q.db.Exec(ctx, deleteWorkflow, id)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func scanWorkflow(row pgx.Row) (Workflow, error) {
	var (
		w        Workflow
		nodes    []byte
		metadata []byte
	)

	err := row.Scan(
		&w.ID,
		&w.Name,
		&w.Description,
		&w.Version,
		&w.IsActive,
		&nodes,
		&w.StartNode,
		&w.Tags,
		&metadata,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return Workflow{}, err
	}

	if err := json.Unmarshal(nodes, &w.Nodes); err != nil {
		return Workflow{}, fmt.Errorf("failed to decode nodes of workflow %s: %w", w.ID, err)
	}
	if len(metadata) > 0 {
		w.Metadata = &Metadata{}
		if err := json.Unmarshal(metadata, w.Metadata); err != nil {
			return Workflow{}, fmt.Errorf("failed to decode metadata of workflow %s: %w", w.ID, err)
		}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}

	return w, nil
}

func marshalNodes(nodes map[string]Node) ([]byte, error) {
	if nodes == nil {
		nodes = map[string]Node{}
	}
	encoded, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nodes: %w", err)
	}
	return encoded, nil
}

func marshalMetadata(metadata *Metadata) ([]byte, error) {
	if metadata == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return encoded, nil
}
