package workflow

import (
	"context"
	"net/http"

	"erpbot/chatbot-backend/internal"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Store interface {
	Create(ctx context.Context, req CreateRequest) (Workflow, error)
	CreateFromTemplate(ctx context.Context, templateName, name string) (Workflow, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Workflow, error)
	List(ctx context.Context, filter Filter) ([]Workflow, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	Duplicate(ctx context.Context, id uuid.UUID, newName string) (*Workflow, error)
	Templates(ctx context.Context) []Template
	Validate(ctx context.Context, w *Workflow) ValidationResult
	Test(ctx context.Context, id uuid.UUID, in TestInput) (TestResult, error)
	GetActive(ctx context.Context) (*Workflow, error)
	Activate(ctx context.Context, id uuid.UUID) (*Workflow, error)
}

type Handler struct {
	logger *zap.Logger
	tracer trace.Tracer

	validator     *validator.Validate
	problemWriter *problem.HttpWriter

	store Store
}

func NewHandler(
	logger *zap.Logger,
	validator *validator.Validate,
	problemWriter *problem.HttpWriter,
	store Store,
) *Handler {
	return &Handler{
		logger:        logger,
		tracer:        otel.Tracer("workflow/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

type duplicateRequest struct {
	Name string `json:"name" validate:"required"`
}

type useTemplateRequest struct {
	Template string `json:"template" validate:"required"`
	Name     string `json:"name"`
}

type validateRequest struct {
	Nodes     map[string]Node `json:"nodes" validate:"required"`
	StartNode string          `json:"startNode" validate:"required"`
}

type workflowResponse struct {
	Workflow Workflow `json:"workflow"`
}

type listResponse struct {
	Workflows []Workflow `json:"workflows"`
}

type templatesResponse struct {
	Templates []Template `json:"templates"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListWorkflows")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	filter, err := ParseFilterRequest(r)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	workflows, err := h.store.List(traceCtx, filter)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, listResponse{Workflows: workflows})
}

func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	found, err := h.store.GetByID(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if found == nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, workflowResponse{Workflow: *found})
}

func (h *Handler) GetActiveWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetActiveWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	active, err := h.store.GetActive(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if active == nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrNoActiveWorkflow, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, workflowResponse{Workflow: *active})
}

func (h *Handler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req CreateRequest
	err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	created, err := h.store.Create(traceCtx, req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, workflowResponse{Workflow: created})
}

func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UpdateWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req UpdateRequest
	err = handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	matched, err := h.store.Update(traceCtx, id, req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if !matched {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	updated, err := h.store.GetByID(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if updated == nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, workflowResponse{Workflow: *updated})
}

func (h *Handler) DeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DeleteWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	deleted, err := h.store.Delete(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if !deleted {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) DuplicateWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "DuplicateWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	var req duplicateRequest
	err = handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	duplicated, err := h.store.Duplicate(traceCtx, id, req.Name)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if duplicated == nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, workflowResponse{Workflow: *duplicated})
}

func (h *Handler) ActivateWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ActivateWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	activated, err := h.store.Activate(traceCtx, id)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}
	if activated == nil {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrWorkflowNotFound, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, workflowResponse{Workflow: *activated})
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ListTemplates")
	defer span.End()

	handlerutil.WriteJSONResponse(w, http.StatusOK, templatesResponse{Templates: h.store.Templates(traceCtx)})
}

func (h *Handler) UseTemplate(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "UseTemplate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req useTemplateRequest
	err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	created, err := h.store.CreateFromTemplate(traceCtx, req.Template, req.Name)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusCreated, workflowResponse{Workflow: created})
}

func (h *Handler) ValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "ValidateWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	var req validateRequest
	err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	result := h.store.Validate(traceCtx, &Workflow{Nodes: req.Nodes, StartNode: req.StartNode})
	handlerutil.WriteJSONResponse(w, http.StatusOK, result)
}

func (h *Handler) TestWorkflow(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "TestWorkflow")
	defer span.End()
	logger := logutil.WithContext(traceCtx, h.logger)

	id, err := handlerutil.ParseUUID(r.PathValue("id"))
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	// The test input is optional.
	var in TestInput
	if r.ContentLength != 0 {
		err = handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &in)
		if err != nil {
			h.problemWriter.WriteError(traceCtx, w, err, logger)
			return
		}
	}

	result, err := h.store.Test(traceCtx, id, in)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, result)
}
