package kb

import (
	"context"
	"errors"
	"fmt"
	"os"

	"erpbot/chatbot-backend/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Querier interface {
	Get(ctx context.Context) (map[string]any, error)
	SetField(ctx context.Context, field string, value any) (map[string]any, error)
	RemoveField(ctx context.Context, field string) (map[string]any, error)
	Seed(ctx context.Context, document map[string]any) (bool, error)
}

// Service owns the company context document handed to the AI model with every question.
type Service struct {
	logger  *zap.Logger
	queries Querier
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, queries Querier) *Service {
	return &Service{
		logger:  logger,
		queries: queries,
		tracer:  otel.Tracer("kb/service"),
	}
}

// Get returns the document, or an empty one when nothing has been stored yet.
func (s *Service) Get(ctx context.Context) (map[string]any, error) {
	methodName := "Get"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	document, err := s.queries.Get(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return map[string]any{}, nil
		}
		err = databaseutil.WrapDBError(err, logger, "get knowledge base document")
		span.RecordError(err)
		return nil, err
	}
	if document == nil {
		document = map[string]any{}
	}

	return document, nil
}

// CompanyContext is the document in the shape the AI collaborator expects.
func (s *Service) CompanyContext(ctx context.Context) (map[string]any, error) {
	return s.Get(ctx)
}

// Patch sets, or with a null value removes, exactly one top-level field.
func (s *Service) Patch(ctx context.Context, patch map[string]any) (map[string]any, error) {
	methodName := "Patch"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	if len(patch) != 1 {
		span.RecordError(internal.ErrPatchFieldCount)
		return nil, internal.ErrPatchFieldCount
	}

	var (
		document map[string]any
		err      error
	)
	for field, value := range patch {
		if value == nil {
			document, err = s.queries.RemoveField(ctx, field)
		} else {
			document, err = s.queries.SetField(ctx, field, value)
		}
		if err != nil {
			err = databaseutil.WrapDBErrorWithKeyValue(err, "knowledge_base", "field", field, logger, "patch knowledge base document")
			span.RecordError(err)
			return nil, err
		}
		logger.Info("Patched knowledge base field", zap.String("field", field), zap.Bool("removed", value == nil))
	}

	return document, nil
}

// Seed stores document only when no document exists yet.
func (s *Service) Seed(ctx context.Context, document map[string]any) error {
	methodName := "Seed"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	seeded, err := s.queries.Seed(ctx, document)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "seed knowledge base document")
		span.RecordError(err)
		return err
	}

	if seeded {
		logger.Info("Seeded knowledge base document", zap.Int("fields", len(document)))
	}
	return nil
}

// LoadFile reads a YAML (or JSON) document from path.
func LoadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read company context file: %w", err)
	}

	var document map[string]any
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrInvalidDocument, err)
	}
	if document == nil {
		return nil, internal.ErrInvalidDocument
	}

	return document, nil
}
