package chat_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"erpbot/chatbot-backend/internal"
	"erpbot/chatbot-backend/internal/chat"
	"erpbot/chatbot-backend/internal/menu"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, userText string, companyContext map[string]any) (string, error) {
	args := m.Called(ctx, userText, companyContext)
	return args.String(0), args.Error(1)
}

type mockContextProvider struct {
	mock.Mock
}

func (m *mockContextProvider) CompanyContext(ctx context.Context) (map[string]any, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[string]any), args.Error(1)
}

type staticMenus struct {
	table menu.Table
}

func (s staticMenus) Table(context.Context) menu.Table {
	return s.table.Clone()
}

type stepClock struct {
	mu      sync.Mutex
	current time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(time.Second)
	return c.current
}

var companyContext = map[string]any{"company": "Entab"}

func testTable() menu.Table {
	return menu.Table{
		Start:   "main",
		Handoff: "demo",
		Nodes: map[string]menu.Node{
			"main": {
				Message: "Welcome",
				Options: []menu.Option{
					{Label: "Products", Next: "products"},
					{Label: "Book a demo", Next: "demo"},
					{Label: "Pricing", Query: "How much does the ERP cost?"},
					{Label: "Nothing"},
				},
			},
			"products": {
				Message: "Our products",
				Options: []menu.Option{{Label: "Book a demo", Next: "demo"}},
			},
			"demo": {Message: "Leave your details", CollectContact: true},
		},
	}
}

func createService(t *testing.T, generator chat.Generator, provider chat.ContextProvider) (*chat.Service, *chat.MemoryStore) {
	t.Helper()

	store := chat.NewMemoryStore()
	clock := &stepClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	service := chat.NewServiceForTesting(zap.NewNop(), noop.NewTracerProvider().Tracer("test"), store, generator, provider, staticMenus{table: testTable()}, clock.Now)
	return service, store
}

func newContextProvider() *mockContextProvider {
	provider := new(mockContextProvider)
	provider.On("CompanyContext", mock.Anything).Return(companyContext, nil)
	return provider
}

func TestService_NewSession(t *testing.T) {
	t.Parallel()

	service, _ := createService(t, new(mockGenerator), newContextProvider())

	first, err := service.NewSession(context.Background())
	require.NoError(t, err)
	second, err := service.NewSession(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
}

func TestService_SendMessage(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name          string
		setup         func(generator *mockGenerator, provider *mockContextProvider)
		expectedReply string
	}

	testCases := []testCase{
		{
			name: "AI answer is stored",
			setup: func(generator *mockGenerator, provider *mockContextProvider) {
				provider.On("CompanyContext", mock.Anything).Return(companyContext, nil)
				generator.On("Generate", mock.Anything, "Do you have an LMS?", companyContext).Return("Yes, we do.", nil)
			},
			expectedReply: "Yes, we do.",
		},
		{
			name: "generator failure becomes the apology",
			setup: func(generator *mockGenerator, provider *mockContextProvider) {
				provider.On("CompanyContext", mock.Anything).Return(companyContext, nil)
				generator.On("Generate", mock.Anything, "Do you have an LMS?", companyContext).Return("", errors.New("quota exceeded"))
			},
			expectedReply: chat.ApologyMessage,
		},
		{
			name: "context failure becomes the apology",
			setup: func(generator *mockGenerator, provider *mockContextProvider) {
				provider.On("CompanyContext", mock.Anything).Return(map[string]any(nil), errors.New("connection refused"))
			},
			expectedReply: chat.ApologyMessage,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			generator := new(mockGenerator)
			provider := new(mockContextProvider)
			tc.setup(generator, provider)
			service, _ := createService(t, generator, provider)

			ctx := context.Background()
			session, err := service.NewSession(ctx)
			require.NoError(t, err)

			userMessage, aiMessage, err := service.SendMessage(ctx, session.ID, "Do you have an LMS?")
			require.NoError(t, err)

			require.True(t, userMessage.IsUser)
			require.Equal(t, "Do you have an LMS?", userMessage.Content)
			require.Equal(t, chat.MessageTypeFreeform, userMessage.Type)
			require.False(t, aiMessage.IsUser)
			require.Equal(t, tc.expectedReply, aiMessage.Content)

			history, err := service.History(ctx, session.ID)
			require.NoError(t, err)
			require.Len(t, history, 2)
			require.Equal(t, userMessage.ID, history[0].ID)
			require.Equal(t, aiMessage.ID, history[1].ID)

			generator.AssertExpectations(t)
		})
	}
}

func TestService_SendMessage_SessionRequired(t *testing.T) {
	t.Parallel()

	service, store := createService(t, new(mockGenerator), newContextProvider())

	_, _, err := service.SendMessage(context.Background(), "", "hello")
	require.ErrorIs(t, err, internal.ErrSessionRequired)

	messages, err := store.ListMessages(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestService_Log(t *testing.T) {
	t.Parallel()

	service, _ := createService(t, new(mockGenerator), newContextProvider())
	ctx := context.Background()

	logged, err := service.Log(ctx, chat.LogRequest{SessionID: "s1", Content: "Welcome", NodeKey: "main"})
	require.NoError(t, err)
	require.Equal(t, chat.MessageTypeMenu, logged.Type)
	require.Equal(t, "main", logged.NodeKey)

	logged, err = service.Log(ctx, chat.LogRequest{SessionID: "s1", Content: "typed", IsUser: true, Type: chat.MessageTypeFreeform})
	require.NoError(t, err)
	require.Equal(t, chat.MessageTypeFreeform, logged.Type)

	history, err := service.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "Welcome", history[0].Content)

	history, err = service.History(ctx, "never-issued")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestService_Menu(t *testing.T) {
	t.Parallel()

	service, _ := createService(t, new(mockGenerator), newContextProvider())

	table, state := service.Menu(context.Background())
	require.Equal(t, "main", table.Start)
	require.Equal(t, "main", state.Current)
	require.Empty(t, state.History)
}

func TestService_Select(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name            string
		move            chat.Move
		expectedState   menu.State
		expectedAction  menu.Action
		expectedNode    string
		expectedReply   string
		expectedHistory int
	}

	productsState := menu.State{Current: "products", History: []string{"main"}}

	testCases := []testCase{
		{
			name:            "empty state starts at the start node",
			move:            chat.Move{SessionID: "s1", Label: "Products"},
			expectedState:   productsState,
			expectedAction:  menu.Action{Kind: menu.ActionShow, Node: "products"},
			expectedNode:    "Our products",
			expectedHistory: 2,
		},
		{
			name:            "hand-off keeps the state",
			move:            chat.Move{SessionID: "s1", State: productsState, Label: "Book a demo"},
			expectedState:   productsState,
			expectedAction:  menu.Action{Kind: menu.ActionHandoff, Node: "demo"},
			expectedNode:    "Leave your details",
			expectedHistory: 1,
		},
		{
			name:            "query option is answered",
			move:            chat.Move{SessionID: "s1", State: menu.State{Current: "main", History: []string{}}, Label: "Pricing"},
			expectedState:   menu.State{Current: "main", History: []string{}},
			expectedAction:  menu.Action{Kind: menu.ActionQuery, Query: "How much does the ERP cost?"},
			expectedReply:   "It depends on the modules.",
			expectedHistory: 2,
		},
		{
			name:            "option without target does nothing",
			move:            chat.Move{SessionID: "s1", State: menu.State{Current: "main", History: []string{}}, Label: "Nothing"},
			expectedState:   menu.State{Current: "main", History: []string{}},
			expectedAction:  menu.Action{Kind: menu.ActionNone},
			expectedHistory: 1,
		},
		{
			name:            "back pops the history",
			move:            chat.Move{SessionID: "s1", State: productsState, Back: true},
			expectedState:   menu.State{Current: "main", History: []string{}},
			expectedAction:  menu.Action{Kind: menu.ActionShow, Node: "main"},
			expectedNode:    "Welcome",
			expectedHistory: 1,
		},
		{
			name:            "restart wins over a label",
			move:            chat.Move{SessionID: "s1", State: productsState, Label: "Book a demo", Restart: true},
			expectedState:   menu.State{Current: "main", History: []string{}},
			expectedAction:  menu.Action{Kind: menu.ActionShow, Node: "main"},
			expectedNode:    "Welcome",
			expectedHistory: 1,
		},
		{
			name:            "moves without a session are not logged",
			move:            chat.Move{Label: "Products"},
			expectedState:   productsState,
			expectedAction:  menu.Action{Kind: menu.ActionShow, Node: "products"},
			expectedNode:    "Our products",
			expectedHistory: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			generator := new(mockGenerator)
			generator.On("Generate", mock.Anything, "How much does the ERP cost?", companyContext).Return("It depends on the modules.", nil)
			service, store := createService(t, generator, newContextProvider())
			ctx := context.Background()

			result, err := service.Select(ctx, tc.move)
			require.NoError(t, err)

			require.Equal(t, tc.expectedState, result.State)
			require.Equal(t, tc.expectedAction, result.Action)
			if tc.expectedNode != "" {
				require.NotNil(t, result.Node)
				require.Equal(t, tc.expectedNode, result.Node.Message)
			} else {
				require.Nil(t, result.Node)
			}
			if tc.expectedReply != "" {
				require.NotNil(t, result.Reply)
				require.Equal(t, tc.expectedReply, result.Reply.Content)
			} else {
				require.Nil(t, result.Reply)
			}

			messages, err := store.ListMessages(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, messages, tc.expectedHistory)
		})
	}
}

func TestService_Select_Errors(t *testing.T) {
	t.Parallel()

	service, _ := createService(t, new(mockGenerator), newContextProvider())
	ctx := context.Background()

	_, err := service.Select(ctx, chat.Move{State: menu.State{Current: "main"}, Label: "Unknown"})
	require.ErrorIs(t, err, internal.ErrOptionNotFound)

	_, err = service.Select(ctx, chat.Move{State: menu.State{Current: "missing"}, Label: "Products"})
	require.ErrorIs(t, err, internal.ErrMenuNodeUnknown)
}

type failingQuerier struct {
	*chat.MemoryStore
}

func (f *failingQuerier) CreateMessage(context.Context, chat.CreateMessageParams) (chat.Message, error) {
	return chat.Message{}, errors.New("connection reset")
}

func TestService_StoreFailure(t *testing.T) {
	t.Parallel()

	clock := &stepClock{current: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	service := chat.NewServiceForTesting(zap.NewNop(), noop.NewTracerProvider().Tracer("test"), &failingQuerier{MemoryStore: chat.NewMemoryStore()}, new(mockGenerator), newContextProvider(), staticMenus{table: testTable()}, clock.Now)

	_, _, err := service.SendMessage(context.Background(), "s1", "hello")
	require.Error(t, err)
}
