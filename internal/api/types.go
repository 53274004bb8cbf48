package api

import (
	"github.com/samcharles93/babble/internal/brain"
)

type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code,omitempty"`
}

// TrainRequest retrains the model from inline text or from a file on the
// server's disk. Exactly one of Text and Path must be set.
type TrainRequest struct {
	Text   *string `json:"text,omitempty"`
	Path   string  `json:"path,omitempty"`
	Source string  `json:"source,omitempty"`
}

type TrainResponse struct {
	Object     string      `json:"object"`
	Source     string      `json:"source"`
	Tokens     int         `json:"tokens"`
	Stats      brain.Stats `json:"stats"`
	DurationMS int64       `json:"duration_ms"`
}

// CompletionRequest asks for a continuation of Prompt. Length is the target
// length in tokens including the prompt; MaxTokens counts generated tokens
// only. Length wins when both are set.
type CompletionRequest struct {
	Prompt    string `json:"prompt"`
	Length    *int   `json:"length,omitempty"`
	MaxTokens *int   `json:"max_tokens,omitempty"`
	Store     *bool  `json:"store,omitempty"`
}

type CompletionChoice struct {
	Index        int    `json:"index"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

type CompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Prompt  string             `json:"prompt"`
	Choices []CompletionChoice `json:"choices"`
	Usage   CompletionUsage    `json:"usage"`
}

type DeleteCompletionResp struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

type TokenizeRequest struct {
	Text string `json:"text"`
}

type TokenizeResponse struct {
	Object string   `json:"object"`
	Tokens []string `json:"tokens"`
	Count  int      `json:"count"`
}
