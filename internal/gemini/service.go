package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-flash-lite-latest"

	requestTimeout = 30 * time.Second
)

var (
	ErrMissingAPIKey = errors.New("gemini API key is not configured")
	ErrEmptyResponse = errors.New("gemini returned no text")
)

const DefaultSystemPrompt = `You are a professional marketing AI assistant for Entab Infotech Pvt Ltd, a leading Indian software development company specializing in school management solutions. Your primary goal is to generate leads and promote Entab's products and services.

IMPORTANT GUIDELINES:
- Always be professional, knowledgeable, and solution-oriented
- Focus on lead generation and converting inquiries into business opportunities
- Highlight Entab's expertise in school management solutions (ERP, mobile apps, digital learning tools)
- Use proper formatting with emojis and bullet points for better readability
- If you don't have specific information, offer to connect them with the sales team
- Always maintain Entab's professional brand image
- Be clear and concise but compelling in your responses

COMPANY CONTEXT:
%s

Please respond to the user's query in a professional, marketing-focused way that generates leads and promotes Entab's solutions.`

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// SystemPrompt holds a single %s verb that receives the indented company context JSON.
	SystemPrompt string
}

type Service struct {
	logger *zap.Logger
	tracer trace.Tracer
	config Config
	client *http.Client
}

func NewService(logger *zap.Logger, config Config) *Service {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.SystemPrompt == "" {
		config.SystemPrompt = DefaultSystemPrompt
	}

	return &Service{
		logger: logger,
		tracer: otel.Tracer("gemini/service"),
		config: config,
		client: &http.Client{Timeout: requestTimeout},
	}
}

// BuildRequest renders the system prompt with the company context followed by the user query.
func (s *Service) BuildRequest(userText string, companyContext map[string]any) (GeminiAPIRequest, error) {
	if companyContext == nil {
		companyContext = map[string]any{}
	}
	encoded, err := json.MarshalIndent(companyContext, "", "  ")
	if err != nil {
		return GeminiAPIRequest{}, fmt.Errorf("failed to encode company context: %w", err)
	}

	return GeminiAPIRequest{
		Contents: []Content{
			{
				Role: "user",
				Parts: []Part{
					{Text: fmt.Sprintf(s.config.SystemPrompt, string(encoded))},
					{Text: "User Query: " + userText},
				},
			},
		},
	}, nil
}

// Generate asks the model for a marketing answer to userText, grounded on companyContext.
func (s *Service) Generate(ctx context.Context, userText string, companyContext map[string]any) (string, error) {
	traceCtx, span := s.tracer.Start(ctx, "Generate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	if s.config.APIKey == "" {
		span.RecordError(ErrMissingAPIKey)
		return "", ErrMissingAPIKey
	}

	req, err := s.BuildRequest(userText, companyContext)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	geminiResp, err := s.send(traceCtx, logger, req)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		err := fmt.Errorf("prompt was blocked: %s", geminiResp.PromptFeedback.BlockReason)
		logger.Warn("Prompt was blocked", zap.String("reason", geminiResp.PromptFeedback.BlockReason))
		span.RecordError(err)
		return "", err
	}

	text := geminiResp.Text()
	if text == "" {
		span.RecordError(ErrEmptyResponse)
		return "", ErrEmptyResponse
	}

	logger.Debug("Received response from Gemini API", zap.Int("text_length", len(text)))
	return text, nil
}

func (s *Service) send(ctx context.Context, logger *zap.Logger, req GeminiAPIRequest) (GeminiAPIResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return GeminiAPIResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", s.config.BaseURL, s.config.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return GeminiAPIResponse{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.config.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return GeminiAPIResponse{}, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return GeminiAPIResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("Gemini API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(body)),
		)
		return GeminiAPIResponse{}, fmt.Errorf("gemini API returned status %d", resp.StatusCode)
	}

	var geminiResp GeminiAPIResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return GeminiAPIResponse{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return geminiResp, nil
}
