package gemini

import "strings"

// GeminiAPIRequest represents the request format for Gemini API
type GeminiAPIRequest struct {
	Contents []Content `json:"contents"`
}

// Content represents a content object in Gemini API request
type Content struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

// Part represents a part object in Gemini API request
type Part struct {
	Text string `json:"text,omitempty"`
}

// GeminiAPIResponse represents the full response from Gemini API
type GeminiAPIResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata  `json:"usageMetadata,omitempty"`
	ModelVersion   string          `json:"modelVersion,omitempty"`
}

// Candidate represents a candidate response from Gemini API
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason"`
	Index        int     `json:"index"`
}

type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// UsageMetadata represents token usage information
type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

// Text joins the text parts of the first candidate.
func (g *GeminiAPIResponse) Text() string {
	if len(g.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range g.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
