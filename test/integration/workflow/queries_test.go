package workflow

import (
	"context"
	"testing"
	"time"

	"erpbot/chatbot-backend/internal/workflow"
	"erpbot/chatbot-backend/test/integration"
	"erpbot/chatbot-backend/test/testdata/dbbuilder"
	workflowbuilder "erpbot/chatbot-backend/test/testdata/dbbuilder/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkflowService_List(t *testing.T) {
	active := true
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	type testCase struct {
		name          string
		setup         func(t *testing.T, db dbbuilder.DBTX)
		filter        workflow.Filter
		expectedNames []string
	}

	testCases := []testCase{
		{
			name: "newest first",
			setup: func(t *testing.T, db dbbuilder.DBTX) {
				builder := workflowbuilder.New(t, db)
				builder.Create(workflowbuilder.WithName("old"), workflowbuilder.WithUpdatedAt(base))
				builder.Create(workflowbuilder.WithName("new"), workflowbuilder.WithUpdatedAt(base.Add(time.Hour)))
			},
			expectedNames: []string{"new", "old"},
		},
		{
			name: "active only",
			setup: func(t *testing.T, db dbbuilder.DBTX) {
				builder := workflowbuilder.New(t, db)
				builder.Create(workflowbuilder.WithName("live"), workflowbuilder.WithActive(true))
				builder.Create(workflowbuilder.WithName("draft"))
			},
			filter:        workflow.Filter{IsActive: &active},
			expectedNames: []string{"live"},
		},
		{
			name: "any shared tag",
			setup: func(t *testing.T, db dbbuilder.DBTX) {
				builder := workflowbuilder.New(t, db)
				builder.Create(workflowbuilder.WithName("erp"), workflowbuilder.WithTags("erp", "demo"), workflowbuilder.WithUpdatedAt(base))
				builder.Create(workflowbuilder.WithName("sales"), workflowbuilder.WithTags("sales"), workflowbuilder.WithUpdatedAt(base.Add(time.Minute)))
				builder.Create(workflowbuilder.WithName("support"), workflowbuilder.WithTags("support"))
			},
			filter:        workflow.Filter{Tags: []string{"demo", "sales"}},
			expectedNames: []string{"sales", "erp"},
		},
		{
			name: "category",
			setup: func(t *testing.T, db dbbuilder.DBTX) {
				builder := workflowbuilder.New(t, db)
				builder.Create(workflowbuilder.WithName("school"), workflowbuilder.WithCategory("Education"))
				builder.Create(workflowbuilder.WithName("helpdesk"), workflowbuilder.WithCategory("Support"))
			},
			filter:        workflow.Filter{Category: "Education"},
			expectedNames: []string{"school"},
		},
	}

	resourceManager, logger, err := integration.GetOrInitResource()
	if err != nil {
		t.Fatalf("failed to get resource manager: %v", err)
	}
	defer resourceManager.Cleanup()

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, rollback, err := resourceManager.SetupPostgres()
			if err != nil {
				t.Fatalf("failed to setup postgres: %v", err)
			}
			defer rollback()

			tc.setup(t, db)

			service := workflow.NewService(logger, workflow.New(db))
			got, err := service.List(context.Background(), tc.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(got))
			for _, w := range got {
				names = append(names, w.Name)
			}
			require.Equal(t, tc.expectedNames, names)
		})
	}
}

func TestWorkflowService_Lifecycle(t *testing.T) {
	resourceManager, logger, err := integration.GetOrInitResource()
	if err != nil {
		t.Fatalf("failed to get resource manager: %v", err)
	}
	defer resourceManager.Cleanup()

	db, rollback, err := resourceManager.SetupPostgres()
	if err != nil {
		t.Fatalf("failed to setup postgres: %v", err)
	}
	defer rollback()

	ctx := context.Background()
	service := workflow.NewService(logger, workflow.New(db))

	created, err := service.CreateFromTemplate(ctx, "School ERP Demo Flow", "Spring campaign")
	require.NoError(t, err)
	require.Equal(t, "mainMenu", created.StartNode)
	require.Len(t, created.Nodes, 4)

	found, err := service.GetByName(ctx, "Spring campaign")
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, created.ID, found.ID)

	description := "Updated for the spring intake"
	matched, err := service.Update(ctx, created.ID, workflow.UpdateRequest{Description: &description})
	require.NoError(t, err)
	require.True(t, matched)

	updated, err := service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, description, updated.Description)
	require.Equal(t, created.Nodes, updated.Nodes)

	activated, err := service.Activate(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, activated.IsActive)

	current, err := service.GetActive(ctx)
	require.NoError(t, err)
	require.Equal(t, created.ID, current.ID)

	result, err := service.Test(ctx, created.ID, workflow.TestInput{})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "mainMenu", result.Steps[0].NodeID)

	copied, err := service.Duplicate(ctx, created.ID, "Spring campaign (copy)")
	require.NoError(t, err)
	require.False(t, copied.IsActive)
	require.NotEqual(t, created.ID, copied.ID)

	deleted, err := service.Delete(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	missing, err := service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Nil(t, missing)

	matched, err = service.Update(ctx, uuid.New(), workflow.UpdateRequest{Description: &description})
	require.NoError(t, err)
	require.False(t, matched)

	logger.Info("Workflow lifecycle finished", zap.String("copy_id", copied.ID.String()))
}
