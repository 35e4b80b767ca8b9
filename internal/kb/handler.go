package kb

import (
	"context"
	"encoding/json"
	"net/http"

	"erpbot/chatbot-backend/internal"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxDocumentBytes = 1 << 20

type Store interface {
	Get(ctx context.Context) (map[string]any, error)
	Patch(ctx context.Context, patch map[string]any) (map[string]any, error)
}

type Handler struct {
	logger        *zap.Logger
	tracer        trace.Tracer
	problemWriter *problem.HttpWriter
	store         Store
}

func NewHandler(logger *zap.Logger, problemWriter *problem.HttpWriter, store Store) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("kb/handler"),
		problemWriter: problemWriter,
		store:         store,
	}
}

func (h *Handler) GetRaw(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetRaw")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	document, err := h.store.Get(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, document)
}

func (h *Handler) PatchRaw(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "PatchRaw")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	// The body is free-form, so it is decoded without struct validation.
	var patch map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDocumentBytes)).Decode(&patch); err != nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidDocument, logger)
		return
	}

	document, err := h.store.Patch(traceCtx, patch)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, document)
}
