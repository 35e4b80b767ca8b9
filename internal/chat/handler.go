package chat

import (
	"context"
	"net/http"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/menu"

	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Store interface {
	NewSession(ctx context.Context) (Session, error)
	SendMessage(ctx context.Context, sessionID, content string) (Message, Message, error)
	History(ctx context.Context, sessionID string) ([]Message, error)
	Log(ctx context.Context, req LogRequest) (Message, error)
	Menu(ctx context.Context) (menu.Table, menu.State)
	Select(ctx context.Context, move Move) (MoveResult, error)
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
		tracer:        otel.Tracer("chat/handler"),
		validator:     validator,
		problemWriter: problemWriter,
		store:         store,
	}
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content" validate:"required"`
}

type selectRequest struct {
	SessionID string     `json:"sessionId"`
	State     menu.State `json:"state"`
	Label     string     `json:"label" validate:"required_without_all=Back Restart"`
	Back      bool       `json:"back"`
	Restart   bool       `json:"restart"`
}

type sendMessageResponse struct {
	UserMessage Message `json:"userMessage"`
	AIMessage   Message `json:"aiMessage"`
}

type historyResponse struct {
	Messages []Message `json:"messages"`
}

type logResponse struct {
	Message Message `json:"message"`
}

type menuResponse struct {
	Menu  menu.Table `json:"menu"`
	State menu.State `json:"state"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "CreateSession")
	defer span.End()
	logger := internal.WithContext(traceCtx, h.logger)

	session, err := h.store.NewSession(traceCtx)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, session)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SendMessage")
	defer span.End()
	logger := internal.WithContext(traceCtx, h.logger)

	var req sendMessageRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	userMessage, aiMessage, err := h.store.SendMessage(traceCtx, req.SessionID, req.Content)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, sendMessageResponse{UserMessage: userMessage, AIMessage: aiMessage})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetHistory")
	defer span.End()

	sessionID := r.PathValue("sessionId")
	traceCtx = internal.WithSessionID(traceCtx, sessionID)
	logger := internal.WithContext(traceCtx, h.logger)

	if sessionID == "" {
		h.problemWriter.WriteError(traceCtx, w, internal.ErrSessionRequired, logger)
		return
	}

	messages, err := h.store.History(traceCtx, sessionID)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, historyResponse{Messages: messages})
}

func (h *Handler) LogMessage(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "LogMessage")
	defer span.End()
	logger := internal.WithContext(traceCtx, h.logger)

	var req LogRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	message, err := h.store.Log(traceCtx, req)
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, logResponse{Message: message})
}

func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "GetMenu")
	defer span.End()

	table, state := h.store.Menu(traceCtx)
	handlerutil.WriteJSONResponse(w, http.StatusOK, menuResponse{Menu: table, State: state})
}

func (h *Handler) SelectOption(w http.ResponseWriter, r *http.Request) {
	traceCtx, span := h.tracer.Start(r.Context(), "SelectOption")
	defer span.End()
	logger := internal.WithContext(traceCtx, h.logger)

	var req selectRequest
	if err := handlerutil.ParseAndValidateRequestBody(traceCtx, h.validator, r, &req); err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	result, err := h.store.Select(traceCtx, Move{
		SessionID: req.SessionID,
		State:     req.State,
		Label:     req.Label,
		Back:      req.Back,
		Restart:   req.Restart,
	})
	if err != nil {
		h.problemWriter.WriteError(traceCtx, w, err, logger)
		return
	}

	handlerutil.WriteJSONResponse(w, http.StatusOK, result)
}
