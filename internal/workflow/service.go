package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"erpbot/chatbot-backend/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Workflow, error)
	GetByID(ctx context.Context, id uuid.UUID) (Workflow, error)
	GetByName(ctx context.Context, name string) (Workflow, error)
	List(ctx context.Context, arg ListParams) ([]Workflow, error)
	Update(ctx context.Context, arg UpdateParams) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type CreateRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Version     string          `json:"version"`
	IsActive    bool            `json:"isActive"`
	Nodes       map[string]Node `json:"nodes" validate:"required,dive"`
	StartNode   string          `json:"startNode" validate:"required"`
	Tags        []string        `json:"tags"`
	Metadata    *Metadata       `json:"metadata"`
}

// UpdateRequest replaces the top-level fields that are present. Nested values are not merged.
type UpdateRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Version     *string         `json:"version"`
	IsActive    *bool           `json:"isActive"`
	Nodes       map[string]Node `json:"nodes" validate:"omitempty,dive"`
	StartNode   *string         `json:"startNode"`
	Tags        []string        `json:"tags"`
	Metadata    *Metadata       `json:"metadata"`
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(logger *zap.Logger, queries Querier) *Service {
	return &Service{
		logger:  logger,
		queries: queries,
		tracer:  otel.Tracer("workflow/service"),
		now:     time.Now,
	}
}

func NewServiceForTesting(logger *zap.Logger, tracer trace.Tracer, queries Querier, now func() time.Time) *Service {
	return &Service{
		logger:  logger,
		queries: queries,
		tracer:  tracer,
		now:     now,
	}
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Workflow, error) {
	methodName := "Create"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	version := req.Version
	if version == "" {
		version = DefaultVersion
	}

	now := s.now().UTC()
	created, err := s.queries.Create(ctx, CreateParams{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Version:     version,
		IsActive:    req.IsActive,
		Nodes:       req.Nodes,
		StartNode:   req.StartNode,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create workflow")
		span.RecordError(err)
		return Workflow{}, err
	}

	logger.Info("Created workflow", zap.String("id", created.ID.String()), zap.String("name", created.Name))
	return created, nil
}

// CreateFromTemplate stores a new inactive workflow seeded from the named catalog entry.
func (s *Service) CreateFromTemplate(ctx context.Context, templateName, name string) (Workflow, error) {
	methodName := "CreateFromTemplate"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	template, ok := FindTemplate(templateName)
	if !ok {
		err := fmt.Errorf("%w: %s", internal.ErrTemplateNotFound, templateName)
		span.RecordError(err)
		return Workflow{}, err
	}

	if name == "" {
		name = template.Name
	}

	return s.Create(ctx, CreateRequest{
		Name:        name,
		Description: template.Description,
		Nodes:       template.Nodes,
		StartNode:   template.StartNode,
		Tags:        template.Tags,
		Metadata:    &Metadata{Category: template.Category},
	})
}

// GetByID returns nil without error when no workflow has the id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	methodName := "GetByID"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	w, err := s.queries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workflows", "id", id.String(), logger, "get workflow by id")
		span.RecordError(err)
		return nil, err
	}

	return &w, nil
}

// GetByName returns nil without error when no workflow has the name.
func (s *Service) GetByName(ctx context.Context, name string) (*Workflow, error) {
	methodName := "GetByName"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	w, err := s.queries.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workflows", "name", name, logger, "get workflow by name")
		span.RecordError(err)
		return nil, err
	}

	return &w, nil
}

// List returns the matching workflows, most recently updated first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Workflow, error) {
	methodName := "List"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	workflows, err := s.queries.List(ctx, ListParams{
		IsActive: filter.IsActive,
		Tags:     filter.Tags,
		Category: filter.Category,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list workflows")
		span.RecordError(err)
		return nil, err
	}

	return workflows, nil
}

// Update applies a partial update and refreshes updatedAt. It reports whether a workflow matched.
// The stored graph is not validated.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (bool, error) {
	methodName := "Update"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	matched, err := s.queries.Update(ctx, UpdateParams{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Version:     req.Version,
		IsActive:    req.IsActive,
		Nodes:       req.Nodes,
		StartNode:   req.StartNode,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workflows", "id", id.String(), logger, "update workflow")
		span.RecordError(err)
		return false, err
	}

	return matched, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	methodName := "Delete"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	deleted, err := s.queries.Delete(ctx, id)
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workflows", "id", id.String(), logger, "delete workflow")
		span.RecordError(err)
		return false, err
	}

	if deleted {
		logger.Info("Deleted workflow", zap.String("id", id.String()))
	}
	return deleted, nil
}

// Duplicate copies a workflow under a new name. The copy is inactive and has fresh timestamps.
// It returns nil without error when the source does not exist.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, newName string) (*Workflow, error) {
	methodName := "Duplicate"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	source, err := s.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if source == nil {
		return nil, nil
	}

	c := source.Clone()
	created, err := s.Create(ctx, CreateRequest{
		Name:        newName,
		Description: c.Description,
		Version:     c.Version,
		IsActive:    false,
		Nodes:       c.Nodes,
		StartNode:   c.StartNode,
		Tags:        c.Tags,
		Metadata:    c.Metadata,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return &created, nil
}

func (s *Service) Templates(ctx context.Context) []Template {
	_, span := s.tracer.Start(ctx, "Templates")
	defer span.End()

	return Templates()
}

func (s *Service) Validate(ctx context.Context, w *Workflow) ValidationResult {
	_, span := s.tracer.Start(ctx, "Validate")
	defer span.End()

	return Validate(w)
}

// Test dry-runs a stored workflow. A missing workflow is reported in the result, not as an error.
func (s *Service) Test(ctx context.Context, id uuid.UUID, in TestInput) (TestResult, error) {
	methodName := "Test"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	w, err := s.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return TestResult{}, err
	}
	if w == nil {
		return TestResult{Success: false, Steps: []Step{}, Error: "Workflow not found"}, nil
	}

	return Simulate(w, in), nil
}

// GetActive selects the workflow that drives live conversations: the most recently updated
// active one. It returns nil without error when none is active.
func (s *Service) GetActive(ctx context.Context) (*Workflow, error) {
	methodName := "GetActive"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	active := true
	workflows, err := s.List(ctx, Filter{IsActive: &active})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(workflows) == 0 {
		return nil, nil
	}

	return &workflows[0], nil
}

// Activate marks a workflow active after it passes validation. Other active workflows are left untouched.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	methodName := "Activate"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	w, err := s.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if w == nil {
		return nil, internal.ErrWorkflowNotFound
	}

	result := Validate(w)
	if !result.IsValid {
		err = fmt.Errorf("%w: %s", internal.ErrWorkflowValidationFailed, strings.Join(result.Errors, ", "))
		span.RecordError(err)
		return nil, err
	}

	active := true
	matched, err := s.Update(ctx, id, UpdateRequest{IsActive: &active})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if !matched {
		return nil, internal.ErrWorkflowNotFound
	}

	logger.Info("Activated workflow", zap.String("id", id.String()), zap.Int("warnings", len(result.Warnings)))
	return s.GetByID(ctx, id)
}
