package chat

import (
	"context"
	"fmt"
	"time"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/menu"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	CreateSession(ctx context.Context, id string, createdAt time.Time) (Session, error)
	CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error)
	ListMessages(ctx context.Context, sessionID string) ([]Message, error)
}

// Generator produces the AI answer for a free-text question.
type Generator interface {
	Generate(ctx context.Context, userText string, companyContext map[string]any) (string, error)
}

type ContextProvider interface {
	CompanyContext(ctx context.Context) (map[string]any, error)
}

type MenuSource interface {
	Table(ctx context.Context) menu.Table
}

type Service struct {
	logger    *zap.Logger
	queries   Querier
	tracer    trace.Tracer
	generator Generator
	context   ContextProvider
	menus     MenuSource
	now       func() time.Time
}

func NewService(logger *zap.Logger, queries Querier, generator Generator, contextProvider ContextProvider, menus MenuSource) *Service {
	return &Service{
		logger:    logger,
		queries:   queries,
		tracer:    otel.Tracer("chat/service"),
		generator: generator,
		context:   contextProvider,
		menus:     menus,
		now:       time.Now,
	}
}

func NewServiceForTesting(logger *zap.Logger, tracer trace.Tracer, queries Querier, generator Generator, contextProvider ContextProvider, menus MenuSource, now func() time.Time) *Service {
	return &Service{
		logger:    logger,
		queries:   queries,
		tracer:    tracer,
		generator: generator,
		context:   contextProvider,
		menus:     menus,
		now:       now,
	}
}

type LogRequest struct {
	SessionID string      `json:"sessionId" validate:"required"`
	Content   string      `json:"content" validate:"required"`
	IsUser    bool        `json:"isUser"`
	NodeKey   string      `json:"nodeKey"`
	Type      MessageType `json:"type" validate:"omitempty,oneof=menu freeform"`
}

// Move is one interaction with the menu. Exactly one of Back, Restart or Label applies, in that order.
type Move struct {
	SessionID string     `json:"sessionId"`
	State     menu.State `json:"state"`
	Label     string     `json:"label"`
	Back      bool       `json:"back"`
	Restart   bool       `json:"restart"`
}

type MoveResult struct {
	State  menu.State  `json:"state"`
	Action menu.Action `json:"action"`
	Node   *menu.Node  `json:"node,omitempty"`
	Reply  *Message    `json:"reply,omitempty"`
}

func (s *Service) NewSession(ctx context.Context) (Session, error) {
	methodName := "NewSession"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	id := uuid.NewString()
	ctx = internal.WithSessionID(ctx, id)
	logger := internal.WithContext(ctx, s.logger)

	session, err := s.queries.CreateSession(ctx, id, s.now().UTC())
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create chat session")
		span.RecordError(err)
		return Session{}, err
	}

	logger.Info("Created chat session")
	return session, nil
}

// SendMessage stores the user's text, asks the AI collaborator and stores its answer. Any
// failure to produce an answer is turned into ApologyMessage.
func (s *Service) SendMessage(ctx context.Context, sessionID, content string) (Message, Message, error) {
	methodName := "SendMessage"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	if sessionID == "" {
		return Message{}, Message{}, internal.ErrSessionRequired
	}
	ctx = internal.WithSessionID(ctx, sessionID)

	userMessage, err := s.save(ctx, sessionID, content, true, "", MessageTypeFreeform)
	if err != nil {
		span.RecordError(err)
		return Message{}, Message{}, err
	}

	aiMessage, err := s.save(ctx, sessionID, s.answer(ctx, content), false, "", MessageTypeFreeform)
	if err != nil {
		span.RecordError(err)
		return Message{}, Message{}, err
	}

	return userMessage, aiMessage, nil
}

func (s *Service) answer(ctx context.Context, question string) string {
	ctx, span := s.tracer.Start(ctx, "answer")
	defer span.End()
	logger := internal.WithContext(ctx, s.logger)

	companyContext := map[string]any{}
	if s.context != nil {
		loaded, err := s.context.CompanyContext(ctx)
		if err != nil {
			span.RecordError(err)
			logger.Error("Failed to load company context", zap.Error(err))
			return ApologyMessage
		}
		companyContext = loaded
	}

	if s.generator == nil {
		return ApologyMessage
	}

	text, err := s.generator.Generate(ctx, question, companyContext)
	if err != nil {
		span.RecordError(err)
		logger.Error("Failed to generate AI response", zap.Error(err))
		return ApologyMessage
	}

	return text
}

// History returns the messages of a session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string) ([]Message, error) {
	methodName := "History"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	logger := internal.WithContext(internal.WithSessionID(ctx, sessionID), s.logger)

	messages, err := s.queries.ListMessages(ctx, sessionID)
	if err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "chat_messages", "session_id", sessionID, logger, "list chat messages")
		span.RecordError(err)
		return nil, err
	}

	return messages, nil
}

// Log records a message produced on the client side, such as a menu prompt or a button press.
func (s *Service) Log(ctx context.Context, req LogRequest) (Message, error) {
	methodName := "Log"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()

	messageType := req.Type
	if messageType == "" {
		messageType = MessageTypeMenu
	}

	message, err := s.save(internal.WithSessionID(ctx, req.SessionID), req.SessionID, req.Content, req.IsUser, req.NodeKey, messageType)
	if err != nil {
		span.RecordError(err)
		return Message{}, err
	}

	return message, nil
}

// Menu returns the table currently driving conversations with its starting state.
func (s *Service) Menu(ctx context.Context) (menu.Table, menu.State) {
	ctx, span := s.tracer.Start(ctx, "Menu")
	defer span.End()

	table := s.menus.Table(ctx)
	return table, table.Begin()
}

// Select applies a menu move. A query option is answered by the AI collaborator right away.
// When the move names a session, the button press and the bot's reply are logged to it.
func (s *Service) Select(ctx context.Context, move Move) (MoveResult, error) {
	methodName := "Select"
	ctx, span := s.tracer.Start(ctx, methodName)
	defer span.End()
	if move.SessionID != "" {
		ctx = internal.WithSessionID(ctx, move.SessionID)
	}

	table := s.menus.Table(ctx)
	state := move.State
	if state.Current == "" {
		state = table.Begin()
	}

	var (
		result MoveResult
		err    error
	)
	switch {
	case move.Restart:
		result.State = table.Restart()
		result.Action = menu.Action{Kind: menu.ActionShow, Node: result.State.Current}
	case move.Back:
		result.State = table.Back(state)
		result.Action = menu.Action{Kind: menu.ActionShow, Node: result.State.Current}
	default:
		result.State, result.Action, err = table.SelectLabel(state, move.Label)
		if err != nil {
			span.RecordError(err)
			return MoveResult{}, err
		}
		if err := s.logMenu(ctx, move.SessionID, move.Label, true, state.Current); err != nil {
			span.RecordError(err)
			return MoveResult{}, err
		}
	}

	switch result.Action.Kind {
	case menu.ActionShow:
		if node, ok := table.Node(result.Action.Node); ok {
			result.Node = &node
			if err := s.logMenu(ctx, move.SessionID, node.Message, false, result.Action.Node); err != nil {
				span.RecordError(err)
				return MoveResult{}, err
			}
		}
	case menu.ActionHandoff:
		if node, ok := table.Node(result.Action.Node); ok {
			result.Node = &node
		}
	case menu.ActionQuery:
		reply := Message{SessionID: move.SessionID, Content: s.answer(ctx, result.Action.Query), Type: MessageTypeFreeform, Timestamp: s.now().UTC()}
		if move.SessionID != "" {
			reply, err = s.save(ctx, move.SessionID, reply.Content, false, "", MessageTypeFreeform)
			if err != nil {
				span.RecordError(err)
				return MoveResult{}, err
			}
		}
		result.Reply = &reply
	case menu.ActionNone:
	}

	return result, nil
}

func (s *Service) logMenu(ctx context.Context, sessionID, content string, isUser bool, nodeKey string) error {
	if sessionID == "" || content == "" {
		return nil
	}
	_, err := s.save(ctx, sessionID, content, isUser, nodeKey, MessageTypeMenu)
	return err
}

func (s *Service) save(ctx context.Context, sessionID, content string, isUser bool, nodeKey string, messageType MessageType) (Message, error) {
	logger := internal.WithContext(ctx, s.logger)

	message, err := s.queries.CreateMessage(ctx, CreateMessageParams{
		ID:        uuid.New(),
		SessionID: sessionID,
		Content:   content,
		IsUser:    isUser,
		NodeKey:   nodeKey,
		Type:      messageType,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		return Message{}, databaseutil.WrapDBError(err, logger, fmt.Sprintf("save %s chat message", messageType))
	}

	return message, nil
}
