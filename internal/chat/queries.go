package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
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

type Queries struct {
	db DBTX
}

type CreateMessageParams struct {
	ID        uuid.UUID
	SessionID string
	Content   string
	IsUser    bool
	NodeKey   string
	Type      MessageType
	Timestamp time.Time
}

const createSession = `-- name: CreateSession :one
INSERT INTO chat_sessions (id, created_at) VALUES ($1, $2)
RETURNING id, created_at`

func (q *Queries) CreateSession(ctx context.Context, id string, createdAt time.Time) (Session, error) {
	var s Session
	err := q.db.QueryRow(ctx, createSession, id, createdAt).Scan(&s.ID, &s.CreatedAt)
	return s, err
}

const createMessage = `-- name: CreateMessage :one
INSERT INTO chat_messages (id, session_id, content, is_user, node_key, type, created_at)
VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
RETURNING id, session_id, content, is_user, COALESCE(node_key, ''), type, created_at`

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, createMessage,
		arg.ID,
		arg.SessionID,
		arg.Content,
		arg.IsUser,
		arg.NodeKey,
		string(arg.Type),
		arg.Timestamp,
	)
	return scanMessage(row)
}

const listMessages = `-- name: ListMessages :many
SELECT id, session_id, content, is_user, COALESCE(node_key, ''), type, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC, seq ASC`

func (q *Queries) ListMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessages, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		m           Message
		messageType string
	)
	err := row.Scan(
		&m.ID,
		&m.SessionID,
		&m.Content,
		&m.IsUser,
		&m.NodeKey,
		&messageType,
		&m.Timestamp,
	)
	m.Type = MessageType(messageType)
	return m, err
}
