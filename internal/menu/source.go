package menu

import (
	"context"

	"erpbot/chatbot-backend/internal/workflow"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ActiveWorkflowGetter interface {
	GetActive(ctx context.Context) (*workflow.Workflow, error)
}

// Source decides which table drives live conversations.
type Source struct {
	logger *zap.Logger
	tracer trace.Tracer
	getter ActiveWorkflowGetter
}

func NewSource(logger *zap.Logger, getter ActiveWorkflowGetter) *Source {
	return &Source{
		logger: logger,
		tracer: otel.Tracer("menu/source"),
		getter: getter,
	}
}

// Table returns the active workflow rendered as a menu. The hand-authored table is used when
// no workflow is active or the store cannot be read.
func (s *Source) Table(ctx context.Context) Table {
	ctx, span := s.tracer.Start(ctx, "Table")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	if s.getter == nil {
		return Default()
	}

	active, err := s.getter.GetActive(ctx)
	if err != nil {
		span.RecordError(err)
		logger.Warn("Failed to load active workflow, serving default menu", zap.Error(err))
		return Default()
	}
	if active == nil {
		return Default()
	}

	return FromWorkflow(active)
}
