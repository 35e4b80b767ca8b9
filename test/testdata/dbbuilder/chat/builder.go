package chatbuilder

import (
	"context"
	"testing"
	"time"

	"erpbot/chatbot-backend/internal/chat"
	"erpbot/chatbot-backend/test/testdata"
	"erpbot/chatbot-backend/test/testdata/dbbuilder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *chat.Queries {
	return chat.New(b.db)
}

func (b Builder) CreateSession() chat.Session {
	session, err := b.Queries().CreateSession(context.Background(), uuid.NewString(), time.Now().UTC())
	require.NoError(b.t, err)

	return session
}

// CreateMessage stores a free-form message with a random question as content.
func (b Builder) CreateMessage(sessionID string, isUser bool, timestamp time.Time) chat.Message {
	message, err := b.Queries().CreateMessage(context.Background(), chat.CreateMessageParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		Content:   testdata.RandomQuestion(),
		IsUser:    isUser,
		Type:      chat.MessageTypeFreeform,
		Timestamp: timestamp,
	})
	require.NoError(b.t, err)

	return message
}
