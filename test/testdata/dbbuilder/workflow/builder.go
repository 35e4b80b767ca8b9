package workflowbuilder

import (
	"context"
	"testing"
	"time"

	"erpbot/chatbot-backend/internal/workflow"
	"erpbot/chatbot-backend/test/testdata"
	"erpbot/chatbot-backend/test/testdata/dbbuilder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type FactoryParams struct {
	Name      string
	IsActive  bool
	Tags      []string
	Category  string
	UpdatedAt time.Time
}

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *workflow.Queries {
	return workflow.New(b.db)
}

// Create stores a valid two-node workflow (welcome -> done).
func (b Builder) Create(opts ...Option) workflow.Workflow {
	p := &FactoryParams{
		Name:      testdata.RandomName(),
		Tags:      []string{testdata.RandomTag()},
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	for _, opt := range opts {
		opt(p)
	}

	var metadata *workflow.Metadata
	if p.Category != "" {
		metadata = &workflow.Metadata{Category: p.Category}
	}

	row, err := b.Queries().Create(context.Background(), workflow.CreateParams{
		ID:          uuid.New(),
		Name:        p.Name,
		Description: testdata.RandomDescription(),
		Version:     workflow.DefaultVersion,
		IsActive:    p.IsActive,
		Nodes:       TwoNodeGraph(),
		StartNode:   "welcome",
		Tags:        p.Tags,
		Metadata:    metadata,
		CreatedAt:   p.UpdatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
	require.NoError(b.t, err)

	return row
}

func TwoNodeGraph() map[string]workflow.Node {
	return map[string]workflow.Node{
		"welcome": {
			ID:          "welcome",
			Title:       "Welcome",
			Type:        workflow.NodeTypeStart,
			Message:     testdata.RandomNodeMessage(),
			Connections: []string{"done"},
		},
		"done": {
			ID:          "done",
			Title:       "Done",
			Type:        workflow.NodeTypeResponse,
			Message:     testdata.RandomNodeMessage(),
			Connections: []string{},
		},
	}
}
